package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
current: staging
profiles:
  staging:
    apiRoot: https://staging.example.com/api/v1
    token: staging-token
    timeout: 30s
  local:
    apiRoot: http://localhost:8080/api/v1
`

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestUnmarshal(t *testing.T) {
	f, err := Unmarshal([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "staging", f.Current)
	assert.Equal(t, []string{"local", "staging"}, f.Names())
	assert.Equal(t, 30*time.Second, f.Profiles["staging"].Timeout)
	assert.Equal(t, "staging-token", f.Profiles["staging"].Token)
}

func TestProfileVerify(t *testing.T) {
	assert.NoError(t, (&Profile{APIRoot: "https://x.example.com"}).Verify())
	assert.ErrorIs(t, (&Profile{APIRoot: "x.example.com/api"}).Verify(), ErrProfileInvalid)
	assert.ErrorIs(t, (&Profile{APIRoot: "/api/v1"}).Verify(), ErrProfileInvalid)
	assert.ErrorIs(t, (&Profile{APIRoot: "http://x", Timeout: -1}).Verify(), ErrProfileInvalid)
}

func TestResolvePrecedence(t *testing.T) {
	f, err := Unmarshal([]byte(sample))
	require.NoError(t, err)

	t.Run("defaults without profiles", func(t *testing.T) {
		s, err := Resolve(nil, Overrides{}, env(nil))
		require.NoError(t, err)
		assert.Equal(t, DefaultAPIURL, s.APIURL)
		assert.Equal(t, DefaultTimeout, s.Timeout)
		assert.Equal(t, "info", s.LogLevel)
	})

	t.Run("current profile", func(t *testing.T) {
		s, err := Resolve(f, Overrides{}, env(nil))
		require.NoError(t, err)
		assert.Equal(t, "staging", s.Profile)
		assert.Equal(t, "https://staging.example.com/api/v1", s.APIURL)
		assert.Equal(t, 30*time.Second, s.Timeout)
	})

	t.Run("env selects profile and overrides token", func(t *testing.T) {
		s, err := Resolve(f, Overrides{}, env(map[string]string{EnvProfile: "local", EnvToken: "from-env"}))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api/v1", s.APIURL)
		assert.Equal(t, "from-env", s.Token)
		assert.Equal(t, DefaultTimeout, s.Timeout)
	})

	t.Run("flags beat env", func(t *testing.T) {
		s, err := Resolve(f, Overrides{APIURL: "http://flag:1/api", LogLevel: "debug"},
			env(map[string]string{EnvAPIURL: "http://env:2/api", EnvLogLevel: "warn"}))
		require.NoError(t, err)
		assert.Equal(t, "http://flag:1/api", s.APIURL)
		assert.Equal(t, "debug", s.LogLevel)
		assert.Equal(t, "staging-token", s.Token)
	})

	t.Run("unknown explicit profile", func(t *testing.T) {
		_, err := Resolve(f, Overrides{Profile: "prod"}, env(nil))
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("relative url rejected", func(t *testing.T) {
		_, err := Resolve(nil, Overrides{APIURL: "localhost/api"}, env(nil))
		assert.ErrorIs(t, err, ErrProfileInvalid)
	})
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	missing, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, missing.Profiles)

	f := &File{}
	require.NoError(t, f.Set("dev", &Profile{APIRoot: "http://dev:8080/api/v1", Timeout: 5 * time.Second}))
	assert.Error(t, f.Set("bad", &Profile{APIRoot: "nope"}))
	require.NoError(t, f.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", loaded.Current)
	assert.Equal(t, 5*time.Second, loaded.Profiles["dev"].Timeout)

	assert.ErrorIs(t, loaded.Use("other"), ErrProfileNotFound)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PIPECTL_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("PIPECTL_TEST_DOTENV", "")
	os.Unsetenv("PIPECTL_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("PIPECTL_TEST_DOTENV"))
}
