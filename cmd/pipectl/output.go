package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cuemby/pipectl/pkg/listview"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes a header row and rows separated by tabs
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// printSnapshot renders one page of a list view with its pagination footer
func printSnapshot[T any](w io.Writer, noun string, snap listview.Snapshot[T], header []string, row func(T) []string) error {
	if jsonOutput {
		return printJSON(w, map[string]any{
			"items":      snap.Items,
			"totalCount": snap.TotalCount,
			"pageNum":    snap.Shown.PageNum,
			"pageSize":   snap.Shown.PageSize,
			"mode":       snap.Mode.String(),
		})
	}

	p := snap.Pagination()
	if len(snap.Items) == 0 {
		if snap.TotalCount > 0 {
			_, err := fmt.Fprintf(w, "Page %d is out of range: %d %s fit on %d pages\n",
				p.PageNum, snap.TotalCount, noun, p.TotalPages())
			return err
		}
		_, err := fmt.Fprintln(w, listview.EmptyMessage(noun, snap.Shown))
		return err
	}

	rows := make([][]string, len(snap.Items))
	for i, item := range snap.Items {
		rows[i] = row(item)
	}
	if err := printTable(w, header, rows); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  pages: %s\n", p.Summary(), pageNumbers(p))
	if snap.Truncated {
		fmt.Fprintln(w, "warning: only the first rows were searched; narrow the filters for complete results")
	}
	return nil
}

// pageNumbers renders the page selector, marking the current page
func pageNumbers(p listview.Pagination) string {
	nums := p.PageNumbers()
	parts := make([]string, len(nums))
	for i, n := range nums {
		switch {
		case n == listview.Ellipsis:
			parts[i] = "..."
		case n == p.PageNum:
			parts[i] = "[" + strconv.Itoa(n) + "]"
		default:
			parts[i] = strconv.Itoa(n)
		}
	}
	return strings.Join(parts, " ")
}

// kv parses key=value arguments
func kv(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		out[k] = v
	}
	return out, nil
}

// sortedLabels renders labels as key=value in key order
func sortedLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + labels[k]
	}
	return out
}
