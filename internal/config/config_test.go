// ABOUTME: Tests for stride config functionality
// ABOUTME: Verifies config load, save, path resolution, env overrides, and authorization

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/stride/internal/registry"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)
	t.Setenv("STRIDE_SERVER", "")
	t.Setenv("STRIDE_TOKEN", "")
	t.Setenv("STRIDE_ROLE", "")
	t.Setenv("STRIDE_DATA_DIR", "")
	return tmpDir
}

func TestGetConfigPathWithXDGConfigHome(t *testing.T) {
	tmpDir := isolate(t)

	path := GetConfigPath()
	assert.True(t, strings.HasPrefix(path, tmpDir))
	assert.True(t, strings.HasSuffix(path, filepath.Join("stride", "config.json")))
}

func TestGetConfigPathWithoutXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, GetConfigPath(), ".config")
}

func TestLoadNonExistent(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultServer, cfg.GetServer())
	assert.Equal(t, "stride", cfg.GetProducer())
	assert.False(t, cfg.Authorization().Authenticated())

	_, statErr := os.Stat(GetConfigPath())
	assert.True(t, os.IsNotExist(statErr), "loading should not create a config file")
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)

	cfg := &Config{Server: "https://runs.example.com/", Producer: "Forward", LogLevel: "debug"}
	cfg.SignIn(" tok-1 ", "runner")
	require.True(t, cfg.EnsureDeviceID())
	require.NoError(t, cfg.Save())

	info, err := os.Stat(GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://runs.example.com", loaded.GetServer())
	assert.Equal(t, "tok-1", loaded.Token)
	assert.Equal(t, "Forward", loaded.GetProducer())
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, cfg.DeviceID, loaded.DeviceID)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	isolate(t)

	require.NoError(t, (&Config{Server: "a"}).Save())
	require.NoError(t, (&Config{Server: "b"}).Save())

	entries, err := os.ReadDir(filepath.Dir(GetConfigPath()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadCorrupt(t *testing.T) {
	isolate(t)

	path := GetConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "corrupt config should be moved aside")
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	require.NoError(t, (&Config{Server: "https://file.example.com", Token: "file-token", Role: "coach"}).Save())

	t.Setenv("STRIDE_SERVER", "https://env.example.com")
	t.Setenv("STRIDE_TOKEN", "env-token")
	t.Setenv("STRIDE_ROLE", "owner")
	t.Setenv("STRIDE_DATA_DIR", "/tmp/stride-data")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.GetServer())
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "/tmp/stride-data", cfg.GetDataDir())
	assert.True(t, cfg.Authorization().Permitted())
}

func TestAuthorization(t *testing.T) {
	tests := []struct {
		token, role   string
		authenticated bool
		permitted     bool
	}{
		{"", "", false, false},
		{"", "owner", false, false},
		{"t", "", true, false},
		{"t", "coach", true, false},
		{"t", "owner", true, true},
		{"t", "RUNNER", true, true},
	}
	for _, tt := range tests {
		cfg := &Config{Token: tt.token, Role: tt.role}
		a := cfg.Authorization()
		assert.Equal(t, tt.authenticated, a.Authenticated(), "token=%q role=%q", tt.token, tt.role)
		assert.Equal(t, tt.permitted, a.Permitted(), "token=%q role=%q", tt.token, tt.role)
	}
}

func TestSignOut(t *testing.T) {
	cfg := &Config{Token: "t", Role: "owner"}
	cfg.SignOut()
	assert.Equal(t, registry.Authorization{}, cfg.Authorization())
}

func TestEnsureDeviceID(t *testing.T) {
	cfg := &Config{}
	require.True(t, cfg.EnsureDeviceID())
	_, err := ulid.Parse(cfg.DeviceID)
	assert.NoError(t, err)

	id := cfg.DeviceID
	assert.False(t, cfg.EnsureDeviceID())
	assert.Equal(t, id, cfg.DeviceID)
}

func TestDataDir(t *testing.T) {
	tmpDir := isolate(t)

	cfg := &Config{}
	assert.Equal(t, filepath.Join(tmpDir, "stride"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(tmpDir, "stride", "stride.db"), cfg.DBPath())

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg.DataDir = "~/runs"
	assert.Equal(t, filepath.Join(home, "runs"), cfg.GetDataDir())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "x", "y"), ExpandPath("~/x/y"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}

func TestOpenStorage(t *testing.T) {
	isolate(t)

	repo, err := (&Config{}).OpenStorage()
	require.NoError(t, err)
	defer repo.Close()

	runs, err := repo.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestGetRequestTimeout(t *testing.T) {
	c := &Config{}
	assert.Equal(t, DefaultRequestTimeout, c.GetRequestTimeout())

	c.RequestTimeoutSec = -5
	assert.Equal(t, DefaultRequestTimeout, c.GetRequestTimeout())

	c.RequestTimeoutSec = 5
	assert.Equal(t, 5*time.Second, c.GetRequestTimeout())
}
