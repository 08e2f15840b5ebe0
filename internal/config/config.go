package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/practicebot/internal/spaced_repetition"
)

// Config is the runtime configuration assembled from .env and the environment.
//
// Hour settings of 0 mean "use the default", so WAKE_HOUR=0 wakes at 08:00 and
// QUIET_START_HOUR=0 with QUIET_END_HOUR=0 keeps the 22-6 window. Set both quiet
// hours to the same non-zero value to turn quiet hours off.
type Config struct {
	DBType      string // sqlite or postgres
	DBPath      string // sqlite file
	DatabaseURL string // postgres DSN
	LogMode     string

	TelegramToken  string
	TelegramChatID int64
	ReminderEvery  time.Duration

	QuietStartHour  int
	QuietEndHour    int
	WakeHour        int
	RetryLag        time.Duration
	MinIntervalDays int
	MaxIntervalDays int

	// Timezone is an IANA name such as Europe/Berlin. Empty → local time.
	Timezone string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DBType:          "sqlite",
		DBPath:          "data/practice.db",
		LogMode:         "dev",
		ReminderEvery:   time.Hour,
		QuietStartHour:  spaced_repetition.DefaultQuietStart,
		QuietEndHour:    spaced_repetition.DefaultQuietEnd,
		WakeHour:        spaced_repetition.DefaultWakeHour,
		RetryLag:        spaced_repetition.DefaultRetryLag,
		MinIntervalDays: spaced_repetition.DefaultMinInterval,
		MaxIntervalDays: spaced_repetition.DefaultMaxInterval,
	}
}

// Load reads the given env files (".env" when none are named) and then the
// process environment. A missing env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	cfg := FromEnv()
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from the environment, keeping defaults for
// unset or unparsable values.
func FromEnv() Config {
	cfg := Default()
	cfg.DBType = strings.ToLower(str("DB_TYPE", cfg.DBType))
	cfg.DBPath = str("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = str("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogMode = str("LOG_MODE", cfg.LogMode)
	cfg.TelegramToken = str("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChatID = int64(integer("TELEGRAM_CHAT_ID", 0))
	cfg.ReminderEvery = time.Duration(integer("REMINDER_EVERY_MINUTES", int(cfg.ReminderEvery/time.Minute))) * time.Minute
	cfg.QuietStartHour = hour("QUIET_START_HOUR", cfg.QuietStartHour)
	cfg.QuietEndHour = hour("QUIET_END_HOUR", cfg.QuietEndHour)
	cfg.WakeHour = hour("WAKE_HOUR", cfg.WakeHour)
	cfg.RetryLag = time.Duration(integer("RETRY_LAG_MINUTES", int(cfg.RetryLag/time.Minute))) * time.Minute
	cfg.MinIntervalDays = integer("MIN_INTERVAL_DAYS", cfg.MinIntervalDays)
	cfg.MaxIntervalDays = integer("MAX_INTERVAL_DAYS", cfg.MaxIntervalDays)
	cfg.Timezone = str("TIMEZONE", cfg.Timezone)
	return cfg
}

// Validate reports settings the application cannot run with.
func (c Config) Validate() error {
	switch c.DBType {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.ReminderEvery <= 0 {
		return fmt.Errorf("REMINDER_EVERY_MINUTES must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	_, err := spaced_repetition.NewScheduler(c.SchedulerConfig())
	return err
}

// Location resolves Timezone. An empty Timezone gives time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RemindersEnabled reports whether a notification channel is configured.
func (c Config) RemindersEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// SchedulerConfig maps the settings onto the engine configuration.
func (c Config) SchedulerConfig() spaced_repetition.SchedulerConfig {
	return spaced_repetition.SchedulerConfig{
		MinInterval: c.MinIntervalDays,
		MaxInterval: c.MaxIntervalDays,
		RetryLag:    c.RetryLag,
		QuietStart:  c.QuietStartHour,
		QuietEnd:    c.QuietEndHour,
		WakeHour:    c.WakeHour,
		Location:    c.location(),
	}
}

// location is Location with an unknown zone falling back to local time.
// Validate reports the bad zone.
func (c Config) location() *time.Location {
	loc, err := c.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

func str(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func integer(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func hour(name string, def int) int {
	h := integer(name, def)
	if h < 0 || h > 23 {
		return def
	}
	return h
}
