// Package config handles configuration loading from files, .env, defaults,
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/dateutil"
	"github.com/athro-ai/athro/internal/grid"
	"github.com/athro-ai/athro/internal/recurrence"
	"github.com/athro-ai/athro/internal/study"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	Account   AccountConfig   `toml:"account"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Storage   StorageConfig   `toml:"storage"`
	Server    ServerConfig    `toml:"server"`
	Reminders RemindersConfig `toml:"reminders"`
	Log       LogConfig       `toml:"log"`
	UI        UIConfig        `toml:"ui"`
}

// AccountConfig identifies the local user for CLI and TUI sessions.
type AccountConfig struct {
	UserID string `toml:"user_id"`
}

// ScheduleConfig holds the study window and slot expansion settings.
type ScheduleConfig struct {
	StudyStart        string   `toml:"study_start"`         // e.g., "15:00"
	StudyEnd          string   `toml:"study_end"`           // e.g., "22:00", last grid row
	IntervalMinutes   int      `toml:"interval_minutes"`    // grid row height
	Timezone          string   `toml:"timezone"`            // IANA name, empty for local
	Expansion         string   `toml:"expansion"`           // "all" or "first"
	SessionGapMinutes int      `toml:"session_gap_minutes"` // break between expanded sessions
	MaxDailyMinutes   int      `toml:"max_daily_minutes"`   // 0 disables the budget check
	Subjects          []string `toml:"subjects"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Driver         string `toml:"driver"`          // "sqlite" or "postgres"
	DBPath         string `toml:"db_path"`         // sqlite file
	DSN            string `toml:"dsn"`             // postgres connection string
	RequestTimeout string `toml:"request_timeout"` // e.g., "15s"
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Listen    string `toml:"listen"`
	JWTSecret string `toml:"jwt_secret"`
}

// RemindersConfig holds the reminder job settings.
type RemindersConfig struct {
	Cron        string `toml:"cron"`
	LeadMinutes int    `toml:"lead_minutes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "error"
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte", "light"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			UserID: defaultUserID(),
		},
		Schedule: ScheduleConfig{
			StudyStart:        "15:00",
			StudyEnd:          "22:00",
			IntervalMinutes:   grid.DefaultInterval,
			Expansion:         string(recurrence.ModeAll),
			SessionGapMinutes: recurrence.DefaultGapMinutes,
			MaxDailyMinutes:   360,
			Subjects: []string{
				"Maths", "English Language", "English Literature", "Biology",
				"Chemistry", "Physics", "History", "Geography", "Computer Science",
				"French", "Spanish",
			},
		},
		Storage: StorageConfig{
			Driver:         DriverSQLite,
			DBPath:         defaultDBPath(),
			RequestTimeout: "15s",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8080",
		},
		Reminders: RemindersConfig{
			Cron:        "*/5 * * * *",
			LeadMinutes: 10,
		},
		Log: LogConfig{
			Level: string(applog.LevelInfo),
		},
		UI: UIConfig{
			Theme: "frappe",
		},
	}
}

func defaultUserID() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "athro.db"
	}
	return filepath.Join(home, ".local", "share", "athro", "athro.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "athro", "config.toml")
}

// Load reads .env from the working directory, then loads configuration
// from the default path.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	return LoadFrom(DefaultConfigPath())
}

// LoadDotEnv exports the variables in path that are not already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies ATHRO_* environment variables on top of the
// file config.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"ATHRO_USER_ID":         &cfg.Account.UserID,
		"ATHRO_STUDY_START":     &cfg.Schedule.StudyStart,
		"ATHRO_STUDY_END":       &cfg.Schedule.StudyEnd,
		"ATHRO_TIMEZONE":        &cfg.Schedule.Timezone,
		"ATHRO_EXPANSION":       &cfg.Schedule.Expansion,
		"ATHRO_DB_DRIVER":       &cfg.Storage.Driver,
		"ATHRO_DB_PATH":         &cfg.Storage.DBPath,
		"ATHRO_DSN":             &cfg.Storage.DSN,
		"ATHRO_REQUEST_TIMEOUT": &cfg.Storage.RequestTimeout,
		"ATHRO_LISTEN":          &cfg.Server.Listen,
		"ATHRO_JWT_SECRET":      &cfg.Server.JWTSecret,
		"ATHRO_REMIND_CRON":     &cfg.Reminders.Cron,
		"ATHRO_LOG_LEVEL":       &cfg.Log.Level,
		"ATHRO_UI_THEME":        &cfg.UI.Theme,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ATHRO_INTERVAL_MINUTES":    &cfg.Schedule.IntervalMinutes,
		"ATHRO_SESSION_GAP_MINUTES": &cfg.Schedule.SessionGapMinutes,
		"ATHRO_MAX_DAILY_MINUTES":   &cfg.Schedule.MaxDailyMinutes,
		"ATHRO_REMIND_LEAD_MINUTES": &cfg.Reminders.LeadMinutes,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		*dst = n
	}

	if v := os.Getenv("ATHRO_SUBJECTS"); v != "" {
		var subjects []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				subjects = append(subjects, s)
			}
		}
		cfg.Schedule.Subjects = subjects
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.UserID == "" {
		return errors.New("account.user_id must be set")
	}
	if _, err := c.Grid(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if _, err := dateutil.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Schedule.Timezone, err)
	}
	if _, err := recurrence.ParseMode(c.Schedule.Expansion); err != nil {
		return err
	}
	if c.Schedule.SessionGapMinutes < 0 {
		return errors.New("session_gap_minutes must not be negative")
	}
	if c.Schedule.MaxDailyMinutes < 0 {
		return errors.New("max_daily_minutes must not be negative")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if d, err := time.ParseDuration(c.Storage.RequestTimeout); err != nil || d <= 0 {
		return fmt.Errorf("request_timeout must be a positive duration, got %q", c.Storage.RequestTimeout)
	}

	if c.Reminders.LeadMinutes < 0 {
		return errors.New("lead_minutes must not be negative")
	}
	if _, err := applog.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Grid returns the grid window described by the schedule section.
func (c *Config) Grid() (grid.Config, error) {
	return grid.NewConfig(c.Schedule.StudyStart, c.Schedule.StudyEnd, c.Schedule.IntervalMinutes)
}

// Location returns the display timezone.
func (c *Config) Location() *time.Location {
	loc, err := dateutil.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ExpandOptions returns the slot expansion options.
func (c *Config) ExpandOptions() recurrence.Options {
	mode, _ := recurrence.ParseMode(c.Schedule.Expansion)
	return recurrence.Options{
		Mode:       mode,
		GapMinutes: c.Schedule.SessionGapMinutes,
		Location:   c.Location(),
	}
}

// Session returns the session of the configured local user.
func (c *Config) Session() study.Session {
	return study.Session{UserID: c.Account.UserID}
}

// Timeout returns the per-request storage timeout.
func (s StorageConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
