package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config keeps runtime settings for the task manager.
type Config struct {
	TelegramToken    string
	OwnerID          int64
	DatabaseURL      string
	ReportInterval   time.Duration
	ReportTime       string
	AutosaveInterval time.Duration
	RefreshInterval  time.Duration
	SeedExamples     bool
	LogLevel         string
	LogFormat        string
}

// fileConfig mirrors the optional TOML file named by TASKMANAGER_CONFIG.
type fileConfig struct {
	Telegram struct {
		Token   string `toml:"token"`
		OwnerID int64  `toml:"owner-id"`
	} `toml:"telegram"`
	Database struct {
		URL string `toml:"url"`
	} `toml:"database"`
	Schedule struct {
		ReportIntervalHours int    `toml:"report-interval-hours"`
		ReportTime          string `toml:"report-time"`
		Autosave            string `toml:"autosave"`
		Refresh             string `toml:"refresh"`
	} `toml:"schedule"`
	SeedExamples *bool `toml:"seed-examples"`
	Log          struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// ErrMissingToken is returned when the bot is started without a token.
var ErrMissingToken = errors.New("TELEGRAM_TOKEN is required")

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		DatabaseURL:      "task_manager.db",
		ReportInterval:   24 * time.Hour,
		AutosaveInterval: 10 * time.Second,
		RefreshInterval:  time.Minute,
		SeedExamples:     true,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads configuration from an optional TOML file and then environment
// variables, which win over the file.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("TASKMANAGER_CONFIG")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RequireTelegram checks the settings the bot cannot run without.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.TelegramToken, fc.Telegram.Token)
	if fc.Telegram.OwnerID != 0 {
		cfg.OwnerID = fc.Telegram.OwnerID
	}
	setString(&cfg.DatabaseURL, fc.Database.URL)
	if fc.Schedule.ReportIntervalHours > 0 {
		cfg.ReportInterval = time.Duration(fc.Schedule.ReportIntervalHours) * time.Hour
	}
	if err := setClock(&cfg.ReportTime, fc.Schedule.ReportTime); err != nil {
		return fmt.Errorf("config file %s: report-time: %w", path, err)
	}
	if err := setDuration(&cfg.AutosaveInterval, fc.Schedule.Autosave); err != nil {
		return fmt.Errorf("config file %s: autosave: %w", path, err)
	}
	if err := setDuration(&cfg.RefreshInterval, fc.Schedule.Refresh); err != nil {
		return fmt.Errorf("config file %s: refresh: %w", path, err)
	}
	if fc.SeedExamples != nil {
		cfg.SeedExamples = *fc.SeedExamples
	}
	setString(&cfg.LogLevel, fc.Log.Level)
	setString(&cfg.LogFormat, fc.Log.Format)
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.TelegramToken, os.Getenv("TELEGRAM_TOKEN"))
	setString(&cfg.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv("LOG_FORMAT"))

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_OWNER_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_OWNER_ID: %w", err)
		}
		cfg.OwnerID = id
	}

	if interval := parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))); interval > 0 {
		cfg.ReportInterval = interval
	}
	if err := setClock(&cfg.ReportTime, os.Getenv("REPORT_TIME")); err != nil {
		return fmt.Errorf("REPORT_TIME: %w", err)
	}
	if err := setDuration(&cfg.AutosaveInterval, os.Getenv("AUTOSAVE_INTERVAL")); err != nil {
		return fmt.Errorf("AUTOSAVE_INTERVAL: %w", err)
	}
	if err := setDuration(&cfg.RefreshInterval, os.Getenv("REFRESH_INTERVAL")); err != nil {
		return fmt.Errorf("REFRESH_INTERVAL: %w", err)
	}

	if raw := strings.TrimSpace(os.Getenv("SEED_EXAMPLES")); raw != "" {
		seed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("SEED_EXAMPLES: %w", err)
		}
		cfg.SeedExamples = seed
	}
	return nil
}

func setString(dst *string, raw string) {
	if v := strings.TrimSpace(raw); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", raw)
	}
	*dst = d
	return nil
}

// setClock accepts an "HH:MM" time of day.
func setClock(dst *string, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if _, err := time.Parse("15:04", raw); err != nil {
		return fmt.Errorf("expected HH:MM, got %q", raw)
	}
	*dst = raw
	return nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
