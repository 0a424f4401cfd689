// Package config loads cadence settings from defaults, an optional TOML
// file and CADENCE_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alexanderramin/cadence/internal/domain"
)

type Config struct {
	DBPath      string        // CADENCE_DB (default ~/.cadence/cadence.db)
	NATSURL     string        // CADENCE_NATS_URL (optional, empty = no events)
	LogLevel    string        // CADENCE_LOG_LEVEL (default "info")
	LockTTL     time.Duration // CADENCE_LOCK_TTL (default 10m)
	WorkingDays []string      // CADENCE_WORKING_DAYS (default mon..fri)
	ActingUser  string        // CADENCE_USER (default $USER)
}

// Default returns the built-in settings.
func Default() Config {
	dbPath := "cadence.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".cadence", "cadence.db")
	}
	return Config{
		DBPath:      dbPath,
		LogLevel:    "info",
		LockTTL:     10 * time.Minute,
		WorkingDays: []string{"mon", "tue", "wed", "thu", "fri"},
		ActingUser:  envOrDefault("USER", "system"),
	}
}

// Load applies the TOML file named by CADENCE_CONFIG (if any) and then the
// environment on top of the defaults. A missing config file is not an error.
func Load() (*Config, error) {
	c := Default()

	if path := os.Getenv("CADENCE_CONFIG"); path != "" {
		if err := c.decodeFile(path); err != nil {
			return nil, err
		}
	}

	c.DBPath = envOrDefault("CADENCE_DB", c.DBPath)
	c.NATSURL = envOrDefault("CADENCE_NATS_URL", c.NATSURL)
	c.LogLevel = envOrDefault("CADENCE_LOG_LEVEL", c.LogLevel)
	c.ActingUser = envOrDefault("CADENCE_USER", c.ActingUser)

	if v := os.Getenv("CADENCE_LOCK_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CADENCE_LOCK_TTL: %w", err)
		}
		c.LockTTL = d
	}
	if v := os.Getenv("CADENCE_WORKING_DAYS"); v != "" {
		c.WorkingDays = strings.Split(v, ",")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) decodeFile(path string) error {
	var file struct {
		DBPath      string   `toml:"db_path"`
		NATSURL     string   `toml:"nats_url"`
		LogLevel    string   `toml:"log_level"`
		LockTTL     string   `toml:"lock_ttl"`
		WorkingDays []string `toml:"working_days"`
		ActingUser  string   `toml:"acting_user"`
	}
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if file.DBPath != "" {
		c.DBPath = file.DBPath
	}
	if file.NATSURL != "" {
		c.NATSURL = file.NATSURL
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.LockTTL != "" {
		d, err := time.ParseDuration(file.LockTTL)
		if err != nil {
			return fmt.Errorf("config %s: lock_ttl: %w", path, err)
		}
		c.LockTTL = d
	}
	if len(file.WorkingDays) > 0 {
		c.WorkingDays = file.WorkingDays
	}
	if file.ActingUser != "" {
		c.ActingUser = file.ActingUser
	}
	return nil
}

// Validate checks values that cannot be checked while parsing.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock ttl must be positive, got %s", c.LockTTL)
	}
	if _, err := c.Weekdays(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Weekdays parses WorkingDays into a weekday set.
func (c *Config) Weekdays() (domain.WeekdaySet, error) {
	set, err := domain.ParseWeekdays(c.WorkingDays)
	if err != nil {
		return set, fmt.Errorf("working days: %w", err)
	}
	if set.Empty() {
		return set, fmt.Errorf("working days: at least one weekday must be working")
	}
	return set, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
