package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// SystemConfig is the small bootstrap file in the config directory: it only
// says where everything else lives.
type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

// BackendConfig holds the reasoning-service connection settings.
type BackendConfig struct {
	URL          string `toml:"url"`
	DefaultModel string `toml:"default_model"`
}

// SecurityConfig controls how the backend auth token is stored.
type SecurityConfig struct {
	Method     string `toml:"method"` // "plaintext" or "ssh_key"
	SSHKeyPath string `toml:"ssh_key_path,omitempty"`
}

// UserConfig lives in the data directory and holds everything the user
// actually tunes.
type UserConfig struct {
	Backend  BackendConfig  `toml:"backend"`
	Security SecurityConfig `toml:"security"`
}

// Config is the merged runtime view of system + user config + env overrides.
type Config struct {
	DataDirectory  string
	BackendURL     string
	DefaultModel   string
	SecurityMethod SecurityMethod
	SSHKeyPath     string
}

var Debug = false
var DebugLog *log.Logger

// DataDir returns the expanded data directory path.
func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("LOOM_BACKEND_URL"); url != "" {
		c.BackendURL = url
	}
	if model := os.Getenv("LOOM_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if dataDir := os.Getenv("LOOM_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

// Load reads the system config, then the user config in the data directory
// it points at, and merges env overrides on top. Missing files are created
// from the defaults so a first run works without any setup.
func Load() (*Config, error) {
	sysCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{DataDirectory: sysCfg.DataDirectory}
	// The env data dir must win before the user config is read from it.
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := EnsureDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, err
	}

	cfg.BackendURL = userCfg.Backend.URL
	cfg.DefaultModel = userCfg.Backend.DefaultModel
	cfg.SecurityMethod = SecurityMethod(userCfg.Security.Method)
	if cfg.SecurityMethod == "" {
		cfg.SecurityMethod = SecurityPlainText
	}
	cfg.SSHKeyPath = userCfg.Security.SSHKeyPath

	// Env overrides win over file values.
	cfg.applyEnvOverrides()

	return cfg, nil
}

// CheckDebug reports whether debug logging is requested via LOOM_DEBUG.
func CheckDebug() bool {
	debug := os.Getenv("LOOM_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens the debug log in the data directory when LOOM_DEBUG is
// set. Without it, Debug stays false and DebugLog stays nil.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - debug output may contain conversation fragments
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== loom debug log started ===")
}

// Env-var bootstrap: when all three are set, loom runs without any config
// files (container/CI use). Setting only some of them is a misconfiguration
// main.go reports before starting the UI.

var requiredEnvVars = []string{"LOOM_BACKEND_URL", "LOOM_MODEL", "LOOM_DATA_DIR"}

// HasAnyEnvVar reports whether at least one bootstrap env var is set.
func HasAnyEnvVar() bool {
	for _, name := range requiredEnvVars {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// HasAllEnvVars reports whether every bootstrap env var is set.
func HasAllEnvVars() bool {
	for _, name := range requiredEnvVars {
		if os.Getenv(name) == "" {
			return false
		}
	}
	return true
}

// GetMissingEnvVar returns the first unset bootstrap env var.
func GetMissingEnvVar() string {
	for _, name := range requiredEnvVars {
		if os.Getenv(name) == "" {
			return name
		}
	}
	return ""
}
