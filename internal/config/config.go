package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
}

// Gateway contains the webhook listener and WhatsApp bridge settings.
type Gateway struct {
	Bind           string `toml:"bind"`
	Token          string `toml:"token"`
	BridgeURL      string `toml:"bridge_url"`
	BridgeToken    string `toml:"bridge_token"`
	RequestTimeout int    `toml:"request_timeout"`
	CommandPrefix  string `toml:"command_prefix"`
}

// Access lists the sender identifiers treated as privileged actors.
type Access struct {
	Admins []string `toml:"admins"`
}

// Matching contains the library ranking thresholds.
type Matching struct {
	MinScore        float64 `toml:"min_score"`
	MaxResults      int     `toml:"max_results"`
	DefaultProvider string  `toml:"default_provider"`
}

// Guard contains the duplicate-command guard limits.
type Guard struct {
	WindowSeconds int `toml:"window_seconds"`
	MaxAgeHours   int `toml:"max_age_hours"`
	SweepAbove    int `toml:"sweep_above"`
	HardLimit     int `toml:"hard_limit"`
	TrimTo        int `toml:"trim_to"`
}

// Files contains outbound document limits.
type Files struct {
	MaxSendMB int `toml:"max_send_mb"`
}

// Classifier contains content classification settings.
type Classifier struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LLMEnabled     bool   `toml:"llm_enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
}

// Notifications contains event emitter configuration.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RedisURL       string `toml:"redis_url"`
	RedisChannel   string `toml:"redis_channel"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pedidobot.
//
// Configuration sections by subsystem:
//   - Paths: data, library root, and log directories
//   - Gateway: webhook listener and outbound bridge
//   - Access: privileged sender identifiers
//   - Matching: score threshold and result cap for library ranking
//   - Guard: duplicate-command window and eviction limits
//   - Files: maximum document size for library sends
//   - Classifier: classifier timeout and optional LLM backend
//   - Notifications: ntfy and Redis event emitters
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Gateway       Gateway       `toml:"gateway"`
	Access        Access        `toml:"access"`
	Matching      Matching      `toml:"matching"`
	Guard         Guard         `toml:"guard"`
	Files         Files         `toml:"files"`
	Classifier    Classifier    `toml:"classifier"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pedidobot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pedidobot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for server operation.
// LibraryDir is created on a best-effort basis so the server can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pedidobot.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "pedidobot.lock")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "pedidobot.log")
}

// MaxSendBytes returns the document size limit in bytes.
func (c *Config) MaxSendBytes() int64 {
	return int64(clampSendMB(c.Files.MaxSendMB)) * 1024 * 1024
}

// ClassifierTimeout returns the bounded wait applied to classifier calls.
func (c *Config) ClassifierTimeout() time.Duration {
	if c.Classifier.TimeoutSeconds <= 0 {
		return time.Duration(defaultClassifierTimeoutSeconds) * time.Second
	}
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// IsAdmin reports whether sender is listed in access.admins.
func (c *Config) IsAdmin(sender string) bool {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return false
	}
	for _, admin := range c.Access.Admins {
		if admin == sender {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
