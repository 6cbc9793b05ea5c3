package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cuemby/pipectl/pkg/client"
	"github.com/cuemby/pipectl/pkg/listview"
	"github.com/cuemby/pipectl/pkg/settings"
	"github.com/cuemby/pipectl/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a configuration file",
	Long: `Create or update agents, roles and settings from a YAML file.

A file may hold several documents separated by "---".

Examples:
  # Apply a role definition
  pipectl apply -f role.yaml

  # Apply everything in one file
  pipectl apply -f console.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply, - for stdin (required)")
	_ = applyCmd.MarkFlagRequired("file")
}

// Resource is one YAML document understood by apply
type Resource struct {
	Kind     string           `yaml:"kind"`
	Metadata ResourceMetadata `yaml:"metadata"`
	Spec     map[string]any   `yaml:"spec"`
}

type ResourceMetadata struct {
	Name     string            `yaml:"name"`
	Category string            `yaml:"category,omitempty"`
	Labels   map[string]string `yaml:"labels,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	var in io.Reader = cmd.InOrStdin()
	if filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %v", err)
		}
		defer f.Close()
		in = f
	}

	resources, err := decodeResources(in)
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	watchCtx, stopWatching := context.WithCancel(cmd.Context())
	defer stopWatching()
	totals := watchTotals(watchCtx, c, resources)

	out := cmd.OutOrStdout()
	for _, r := range resources {
		var msg string
		switch r.Kind {
		case "Agent":
			msg, err = applyAgent(cmd.Context(), c, r)
		case "Role":
			msg, err = applyRole(cmd.Context(), c, r)
		case "Settings":
			msg, err = applySettings(cmd.Context(), c, r)
		default:
			err = fmt.Errorf("unsupported resource kind: %s", r.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", r.Kind, r.Metadata.Name, err)
		}
		fmt.Fprintln(out, msg)
		for _, t := range totals {
			if t.kind == r.Kind {
				t.pending++
			}
		}
	}

	fmt.Fprintln(out)
	for _, t := range totals {
		before, after := t.wait(cmd.Context())
		fmt.Fprintf(out, "%s: %d (was %d)\n", t.noun, after, before)
	}
	return nil
}

// listTotal follows the size of one list view while apply writes to it.
// The view reloads on the change events the client publishes.
type listTotal struct {
	kind     string
	noun     string
	before   int
	pending  int
	reloaded <-chan int
	reload   func(context.Context) int
}

// wait collects one reload per applied write and returns the totals before
// and after. Events are delivered best effort, so after a short grace
// period it reloads directly.
func (t *listTotal) wait(ctx context.Context) (int, int) {
	after := t.before
	timeout := time.After(3 * time.Second)
	for t.pending > 0 {
		select {
		case n, ok := <-t.reloaded:
			if !ok {
				return t.before, t.reload(ctx)
			}
			after = n
			t.pending--
		case <-timeout:
			return t.before, t.reload(ctx)
		}
	}
	return t.before, after
}

// watchTotals loads the list of every kind in resources and starts
// watching it for changes
func watchTotals(ctx context.Context, c *client.Client, resources []Resource) []*listTotal {
	kinds := map[string]bool{}
	for _, r := range resources {
		kinds[r.Kind] = true
	}

	var totals []*listTotal
	if kinds["Agent"] {
		totals = append(totals, followView(ctx, "Agent", listview.NewAgentsView(c, listview.DefaultPageSize)))
	}
	if kinds["Role"] {
		totals = append(totals, followView(ctx, "Role", listview.NewRolesView(c, listview.DefaultPageSize)))
	}
	if kinds["Settings"] {
		totals = append(totals, followView(ctx, "Settings", listview.NewSettingsView(c, listview.DefaultPageSize)))
	}
	return totals
}

func followView[T any](ctx context.Context, kind string, view *listview.Controller[T]) *listTotal {
	first := view.Refresh(ctx)
	snaps := view.Watch(ctx, broker)

	counts := make(chan int)
	go func() {
		defer close(counts)
		for snap := range snaps {
			select {
			case counts <- snap.TotalCount:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &listTotal{
		kind:     kind,
		noun:     view.Noun(),
		before:   first.TotalCount,
		reloaded: counts,
		reload: func(ctx context.Context) int {
			return view.Reload(ctx).TotalCount
		},
	}
}

func decodeResources(in io.Reader) ([]Resource, error) {
	dec := yaml.NewDecoder(in)
	var out []Resource
	for {
		var r Resource
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %v", err)
		}
		if r.Kind == "" {
			continue
		}
		if r.Metadata.Name == "" {
			return nil, fmt.Errorf("%s without metadata.name", r.Kind)
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeSpec converts the generic spec map into a typed request through
// its YAML tags
func decodeSpec(spec map[string]any, dst any) error {
	buf, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, dst)
}

// findAgentByName scans the agent list; agents are keyed by a generated id
func findAgentByName(ctx context.Context, c *client.Client, name string) (*types.Agent, error) {
	for page := 1; ; page++ {
		resp, err := c.ListAgents(ctx, types.ListAgentsParams{PageNum: page, PageSize: 100})
		if err != nil {
			return nil, err
		}
		for i := range resp.Agents {
			if resp.Agents[i].AgentName == name {
				return &resp.Agents[i], nil
			}
		}
		if len(resp.Agents) == 0 || page*100 >= resp.Count {
			return nil, nil
		}
	}
}

func applyAgent(ctx context.Context, c *client.Client, r Resource) (string, error) {
	name := r.Metadata.Name
	existing, err := findAgentByName(ctx, c, name)
	if err != nil {
		return "", err
	}

	if existing != nil {
		var req types.UpdateAgentRequest
		if err := decodeSpec(r.Spec, &req); err != nil {
			return "", err
		}
		if r.Metadata.Labels != nil {
			req.Labels = r.Metadata.Labels
		}
		if _, err := c.UpdateAgent(ctx, existing.AgentID, req); err != nil {
			return "", fmt.Errorf("failed to update agent: %v", err)
		}
		return fmt.Sprintf("✓ Agent updated: %s (ID: %s)", name, existing.AgentID), nil
	}

	var req types.CreateAgentRequest
	if err := decodeSpec(r.Spec, &req); err != nil {
		return "", err
	}
	req.AgentName = name
	req.Labels = r.Metadata.Labels
	created, err := c.CreateAgent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create agent: %v", err)
	}
	return fmt.Sprintf("✓ Agent created: %s (ID: %s, token: %s)", name, created.AgentID, created.Token), nil
}

func applyRole(ctx context.Context, c *client.Client, r Resource) (string, error) {
	roleID := r.Metadata.Name
	_, err := c.GetRole(ctx, roleID)
	switch {
	case err == nil:
		var req types.UpdateRoleRequest
		if err := decodeSpec(r.Spec, &req); err != nil {
			return "", err
		}
		if _, err := c.UpdateRole(ctx, roleID, req); err != nil {
			return "", fmt.Errorf("failed to update role: %v", err)
		}
		return "✓ Role updated: " + roleID, nil
	case client.IsNotFound(err):
		var req types.CreateRoleRequest
		if err := decodeSpec(r.Spec, &req); err != nil {
			return "", err
		}
		req.RoleID = roleID
		if req.Name == "" {
			req.Name = roleID
		}
		if _, err := c.CreateRole(ctx, req); err != nil {
			return "", fmt.Errorf("failed to create role: %v", err)
		}
		return "✓ Role created: " + roleID, nil
	default:
		return "", err
	}
}

// applySettings merges spec.data over an existing entry. Settings entries
// are defined by the server and cannot be created.
func applySettings(ctx context.Context, c *client.Client, r Resource) (string, error) {
	if r.Metadata.Category == "" {
		return "", fmt.Errorf("settings need metadata.category")
	}
	current, err := c.GetSettingsByName(ctx, r.Metadata.Category, r.Metadata.Name)
	if err != nil {
		return "", err
	}

	raw, ok := r.Spec["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("settings spec.data must be a mapping")
	}
	patch, err := settings.FromAny(raw)
	if err != nil {
		return "", err
	}
	obj, _ := patch.AsObject()

	data := current.Data.Clone()
	for k, v := range obj {
		data[k] = v
	}

	req := types.UpdateSettingsRequest{Data: data, Schema: current.Schema}
	if dn, ok := r.Spec["displayName"].(string); ok {
		req.DisplayName = &dn
	}
	if _, err := c.UpdateSettings(ctx, current.SettingsID, req); err != nil {
		return "", err
	}
	return fmt.Sprintf("✓ Settings updated: %s/%s", r.Metadata.Category, r.Metadata.Name), nil
}
