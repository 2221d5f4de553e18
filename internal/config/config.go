// ABOUTME: Stride configuration management
// ABOUTME: Handles the config file, environment overrides, and the derived authorization state

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/stride/internal/registry"
	"github.com/harper/stride/internal/storage"
	"github.com/harper/stride/internal/track"
	"github.com/oklog/ulid/v2"
)

// DefaultServer is the backend used when none is configured.
const DefaultServer = "http://localhost:8080"

const dbFilename = "stride.db"

// Config stores stride configuration.
type Config struct {
	// Server is the base URL of the runs backend.
	Server string `json:"server,omitempty"`

	// Token is the session token; empty means signed out.
	Token string `json:"token,omitempty"`

	// Role is the role reported at sign-in, e.g. "owner" or "coach".
	Role string `json:"role,omitempty"`

	// DataDir holds the run cache. Supports ~ expansion.
	// Defaults to ~/.local/share/stride.
	DataDir string `json:"data_dir,omitempty"`

	// DeviceID identifies this installation to the backend.
	DeviceID string `json:"device_id,omitempty"`

	// Producer is written as the creator of converted track files.
	Producer string `json:"producer,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// RequestTimeoutSec bounds each request to the runs backend.
	RequestTimeoutSec int `json:"request_timeout_sec,omitempty"`
}

// DefaultRequestTimeout applies when no request timeout is configured.
const DefaultRequestTimeout = 30 * time.Second

// GetRequestTimeout returns the per-request timeout for the runs backend.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeoutSec <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// GetServer returns the configured server, defaulting to DefaultServer.
func (c *Config) GetServer() string {
	if c.Server == "" {
		return DefaultServer
	}
	return strings.TrimRight(c.Server, "/")
}

// GetProducer returns the creator name for converted tracks.
func (c *Config) GetProducer() string {
	if c.Producer == "" {
		return track.DefaultProducer
	}
	return c.Producer
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// DBPath returns the path of the run cache database.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), dbFilename)
}

// OpenStorage opens the run cache.
func (c *Config) OpenStorage() (storage.Repository, error) {
	return storage.NewSQLiteDB(c.DBPath())
}

// Authorization derives the registry's authorization signal from the
// stored session.
func (c *Config) Authorization() registry.Authorization {
	return registry.Authorization{
		Token: c.Token,
		Role:  registry.ParseRole(c.Role),
	}
}

// SignIn stores a session.
func (c *Config) SignIn(token, role string) {
	c.Token = strings.TrimSpace(token)
	c.Role = strings.TrimSpace(role)
}

// SignOut clears the stored session.
func (c *Config) SignOut() {
	c.Token = ""
	c.Role = ""
}

// EnsureDeviceID mints a device ID if none is set. It reports whether one was created.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = ulid.Make().String()
	return true
}

// defaultDataDir returns the default XDG data directory for stride.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "stride")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "stride", "config.json")
}

// Load reads config from disk and applies environment overrides. A missing
// file yields an empty config. A corrupt file is moved aside and reported.
func Load() (*Config, error) {
	path := GetConfigPath()
	cfg := &Config{}

	//#nosec G304 -- path is derived from the user's config directory
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			backup := path + ".corrupt." + time.Now().Format("20060102-150405")
			if renameErr := os.Rename(path, backup); renameErr == nil {
				fmt.Fprintf(os.Stderr, "Warning: corrupted config backed up to %s\n", backup)
			}
			return nil, fmt.Errorf("config file corrupted: %w", jsonErr)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if server := os.Getenv("STRIDE_SERVER"); server != "" {
		cfg.Server = server
	}
	if token := os.Getenv("STRIDE_TOKEN"); token != "" {
		cfg.Token = token
	}
	if role := os.Getenv("STRIDE_ROLE"); role != "" {
		cfg.Role = role
	}
	if dataDir := os.Getenv("STRIDE_DATA_DIR"); dataDir != "" {
		cfg.DataDir = ExpandPath(dataDir)
	}
}

// Save writes config to disk atomically with owner-only permissions.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return atomicWrite(path, data, 0o600)
}

func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
