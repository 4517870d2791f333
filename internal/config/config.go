package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Tiliavir/timesheet/internal/overtime"
)

// Config is the root configuration for tsh, stored in ~/.tsh/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Overtime OvertimeConfig `json:"overtime"`
	// Backend is one of "files", "sqlite" or "remote".
	Backend string `json:"backend"`
	// DataDir holds day files, the SQLite database and saved tokens. Empty = ~/.tsh.
	DataDir string `json:"data_dir"`
	// UserID scopes loaded entries. Empty loads every entry of a local store.
	UserID string       `json:"user_id"`
	Remote RemoteConfig `json:"remote"`
}

// OvertimeConfig holds the overtime thresholds in seconds.
type OvertimeConfig struct {
	DailySeconds  int64 `json:"daily_seconds"`
	WeeklySeconds int64 `json:"weekly_seconds"`
}

// RemoteConfig holds the time API settings used by the "remote" backend.
type RemoteConfig struct {
	BaseURL string `json:"base_url"`
	// Token is a static bearer token. When set the OAuth2 settings are ignored.
	Token         string   `json:"token"`
	ClientID      string   `json:"client_id"`
	TokenURL      string   `json:"token_url"`
	DeviceAuthURL string   `json:"device_auth_url"`
	Scopes        []string `json:"scopes"`
}

const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Overtime: OvertimeConfig{
			DailySeconds:  overtime.DefaultDailySeconds,
			WeeklySeconds: overtime.DefaultWeeklySeconds,
		},
		Backend: BackendFiles,
	}
}

// Thresholds returns the configured overtime thresholds.
func (c Config) Thresholds() overtime.Thresholds {
	return overtime.Thresholds{DailySeconds: c.Overtime.DailySeconds, WeeklySeconds: c.Overtime.WeeklySeconds}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// tsh configuration – ~/.tsh/config.json
//
// All settings are optional. Environment variables override the file:
// TSH_BACKEND, TSH_DATA_DIR, TSH_USER_ID, TSH_API_URL, TSH_API_TOKEN,
// TSH_DAILY_OVERTIME_SECONDS, TSH_WEEKLY_OVERTIME_SECONDS.
{
  // ── Overtime ─────────────────────────────────────────────────────────────
  // A day or week is overtime when its total is strictly greater than the
  // threshold. 28800 = 8h per day, 144000 = 40h per week.
  "overtime": {
    "daily_seconds": 28800,
    "weekly_seconds": 144000
  },

  // ── Storage ──────────────────────────────────────────────────────────────
  // • "files"  – one JSON file per day under data_dir (default)
  // • "sqlite" – a single SQLite database, data_dir/tsh.db
  // • "remote" – the time API configured below
  "backend": "files",

  // Leave empty to use ~/.tsh.
  "data_dir": "",

  // Only entries of this user are loaded. Empty = all entries (local backends).
  "user_id": "",

  // ── Remote time API ──────────────────────────────────────────────────────
  "remote": {
    "base_url": "",

    // Static bearer token. Takes precedence over the OAuth2 settings below.
    "token": "",

    // OAuth2 device code flow. The token is saved to data_dir/auth/token.json
    // and refreshed automatically.
    "client_id": "",
    "token_url": "",
    "device_auth_url": "",
    "scopes": []
  }
}
`

// configFilePath returns the path to ~/.tsh/config.json.
func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tsh", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.tsh/config.json, creating it with annotated defaults on first
// run, and applies environment overrides.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return applyEnv(defaultConfig())
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file is created from the
// annotated template.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return applyEnv(defaultConfig())
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	def := defaultConfig()
	if cfg.Overtime.DailySeconds <= 0 {
		cfg.Overtime.DailySeconds = def.Overtime.DailySeconds
	}
	if cfg.Overtime.WeeklySeconds <= 0 {
		cfg.Overtime.WeeklySeconds = def.Overtime.WeeklySeconds
	}
	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}

	return applyEnv(cfg)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSeconds(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("%s must be a positive number of seconds, got %q", key, v)
	}
	return n, nil
}

// applyEnv overrides cfg with TSH_* environment variables and validates the result.
func applyEnv(cfg Config) (Config, error) {
	cfg.Backend = getEnv("TSH_BACKEND", cfg.Backend)
	cfg.DataDir = getEnv("TSH_DATA_DIR", cfg.DataDir)
	cfg.UserID = getEnv("TSH_USER_ID", cfg.UserID)
	cfg.Remote.BaseURL = getEnv("TSH_API_URL", cfg.Remote.BaseURL)
	cfg.Remote.Token = getEnv("TSH_API_TOKEN", cfg.Remote.Token)

	var err error
	if cfg.Overtime.DailySeconds, err = getEnvSeconds("TSH_DAILY_OVERTIME_SECONDS", cfg.Overtime.DailySeconds); err != nil {
		return cfg, err
	}
	if cfg.Overtime.WeeklySeconds, err = getEnvSeconds("TSH_WEEKLY_OVERTIME_SECONDS", cfg.Overtime.WeeklySeconds); err != nil {
		return cfg, err
	}

	switch cfg.Backend {
	case BackendFiles, BackendSQLite, BackendRemote:
	default:
		return cfg, fmt.Errorf("unknown backend %q (want %s, %s or %s)", cfg.Backend, BackendFiles, BackendSQLite, BackendRemote)
	}
	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
