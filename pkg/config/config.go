package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Environment variables read by Resolve
const (
	EnvAPIURL   = "PIPECTL_API_URL"
	EnvToken    = "PIPECTL_TOKEN"
	EnvProfile  = "PIPECTL_PROFILE"
	EnvLogLevel = "PIPECTL_LOG_LEVEL"
)

// Defaults used when nothing else sets a value
const (
	DefaultAPIURL   = "http://localhost:8080/api/v1"
	DefaultTimeout  = 10 * time.Second
	DefaultLogLevel = "info"
)

var (
	ErrProfileInvalid  = errors.New("pipectl profile is invalid")
	ErrProfileNotFound = errors.New("pipectl profile is not found")
)

// Profile is one named backend connection
type Profile struct {
	APIRoot string        `yaml:"apiRoot"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

func verifyURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

// Verify returns ErrProfileInvalid when apiRoot is not an absolute URL or
// the timeout is negative.
func (p *Profile) Verify() error {
	if !verifyURL(p.APIRoot) {
		return fmt.Errorf("%w: apiRoot is not an absolute URL: %q", ErrProfileInvalid, p.APIRoot)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrProfileInvalid)
	}
	return nil
}

// File is the content of the profiles file
type File struct {
	Current  string              `yaml:"current,omitempty"`
	Profiles map[string]*Profile `yaml:"profiles"`
}

// DefaultPath returns ~/.config/pipectl/config.yaml, or its platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "pipectl", "config.yaml"), nil
}

// Load reads the profiles file. A missing file yields an empty File.
func Load(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Profiles: map[string]*Profile{}}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Unmarshal(buf)
}

// Unmarshal parses a profiles file
func Unmarshal(buf []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(buf, f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if f.Profiles == nil {
		f.Profiles = map[string]*Profile{}
	}
	return f, nil
}

// Save writes the file with owner-only permissions
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	buf, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Set adds or replaces a profile after verifying it
func (f *File) Set(name string, p *Profile) error {
	if err := p.Verify(); err != nil {
		return err
	}
	if f.Profiles == nil {
		f.Profiles = map[string]*Profile{}
	}
	f.Profiles[name] = p
	if f.Current == "" {
		f.Current = name
	}
	return nil
}

// Use makes name the current profile
func (f *File) Use(name string) error {
	if _, ok := f.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	f.Current = name
	return nil
}

// Names returns profile names in sorted order
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overrides are values given on the command line. Empty fields are unset.
type Overrides struct {
	APIURL   string
	Token    string
	Profile  string
	LogLevel string
}

// Settings is the resolved configuration
type Settings struct {
	APIURL   string
	Token    string
	Timeout  time.Duration
	Profile  string
	LogLevel string
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, name := range files {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Resolve merges flags, environment, the selected profile and defaults, in
// that order of precedence. getenv is usually os.Getenv.
func Resolve(f *File, flags Overrides, getenv func(string) string) (Settings, error) {
	s := Settings{
		APIURL:   DefaultAPIURL,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
	}

	name := first(flags.Profile, getenv(EnvProfile))
	explicit := name != ""
	if !explicit && f != nil {
		name = f.Current
	}

	if name != "" {
		var p *Profile
		if f != nil {
			p = f.Profiles[name]
		}
		switch {
		case p != nil:
			if err := p.Verify(); err != nil {
				return Settings{}, fmt.Errorf("profile %s: %w", name, err)
			}
			s.Profile = name
			s.APIURL = p.APIRoot
			s.Token = p.Token
			if p.Timeout > 0 {
				s.Timeout = p.Timeout
			}
		case explicit:
			return Settings{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
	}

	s.APIURL = first(flags.APIURL, getenv(EnvAPIURL), s.APIURL)
	s.Token = first(flags.Token, getenv(EnvToken), s.Token)
	s.LogLevel = first(flags.LogLevel, getenv(EnvLogLevel), s.LogLevel)

	if !verifyURL(s.APIURL) {
		return Settings{}, fmt.Errorf("%w: API URL is not an absolute URL: %q", ErrProfileInvalid, s.APIURL)
	}
	return s, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
