// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"campus/internal/domain/absence"
	"campus/internal/domain/attendance"
	"campus/internal/domain/calendar"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr     string
	DBPath   string
	Env      string
	Location *time.Location
	RestDay  time.Weekday

	AttendanceThreshold decimal.Decimal
	TutorDayCap         decimal.Decimal

	AdminEmail    string
	AdminPassword string

	ResendKey    string
	MailFrom     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	CSRFKey        []byte
	OutboxInterval time.Duration
	SlowQuery      time.Duration
	BusyTimeout    time.Duration
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DSN is the SQLite data source with write transactions taken as BEGIN IMMEDIATE.
func (c Config) DSN() string {
	return fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)",
		c.DBPath, c.BusyTimeout.Milliseconds())
}

// LoadDotEnv loads a .env file into the process environment. A missing file is not an error.
// POST: Variables already set in the environment are not overwritten
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	slog.Info("config_event", "event", "dotenv_loaded", "path", path)
	return nil
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load builds a Config from lookup, applying defaults for unset keys.
// PRE: lookup behaves like os.LookupEnv
// POST: Returns the first parse error encountered, naming the offending key
func Load(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	c := Config{
		Addr:          get("CAMPUS_ADDR", ":8080"),
		DBPath:        get("CAMPUS_DB_PATH", "campus.db"),
		Env:           get("CAMPUS_ENV", EnvDevelopment),
		AdminEmail:    get("CAMPUS_ADMIN_EMAIL", ""),
		AdminPassword: get("CAMPUS_ADMIN_PASSWORD", ""),
		ResendKey:     get("CAMPUS_RESEND_KEY", ""),
		MailFrom:      get("CAMPUS_MAIL_FROM", "Campus Office <noreply@campus.local>"),
		SMTPHost:      get("CAMPUS_SMTP_HOST", ""),
		SMTPUser:      get("CAMPUS_SMTP_USER", ""),
		SMTPPassword:  get("CAMPUS_SMTP_PASSWORD", ""),
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return Config{}, fmt.Errorf("CAMPUS_ENV: must be %s or %s, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	var err error
	if c.Location, err = time.LoadLocation(get("CAMPUS_TZ", "UTC")); err != nil {
		return Config{}, fmt.Errorf("CAMPUS_TZ: %w", err)
	}
	if c.RestDay, err = calendar.ParseWeekday(get("CAMPUS_REST_DAY", "sunday")); err != nil {
		return Config{}, fmt.Errorf("CAMPUS_REST_DAY: %w", err)
	}
	if c.AttendanceThreshold, err = parsePercent("CAMPUS_ATTENDANCE_THRESHOLD", get("CAMPUS_ATTENDANCE_THRESHOLD", attendance.DefaultThreshold.String())); err != nil {
		return Config{}, err
	}
	if c.TutorDayCap, err = decimal.NewFromString(get("CAMPUS_TUTOR_DAY_CAP", absence.DefaultTutorDayCap.String())); err != nil || !c.TutorDayCap.IsPositive() {
		return Config{}, fmt.Errorf("CAMPUS_TUTOR_DAY_CAP: must be a positive number")
	}
	if c.SMTPPort, err = strconv.Atoi(get("CAMPUS_SMTP_PORT", "587")); err != nil || c.SMTPPort <= 0 {
		return Config{}, fmt.Errorf("CAMPUS_SMTP_PORT: must be a positive integer")
	}
	if c.OutboxInterval, err = parseDuration("CAMPUS_OUTBOX_INTERVAL", get("CAMPUS_OUTBOX_INTERVAL", "1m")); err != nil {
		return Config{}, err
	}
	if c.SlowQuery, err = parseMillis("CAMPUS_SLOW_QUERY_MS", get("CAMPUS_SLOW_QUERY_MS", "50")); err != nil {
		return Config{}, err
	}
	if c.BusyTimeout, err = parseMillis("CAMPUS_BUSY_TIMEOUT_MS", get("CAMPUS_BUSY_TIMEOUT_MS", "5000")); err != nil {
		return Config{}, err
	}
	if c.CSRFKey, err = csrfKey(get("CAMPUS_CSRF_KEY", ""), c.IsProduction()); err != nil {
		return Config{}, err
	}
	return c, nil
}

func parsePercent(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("%s: must be a number between 0 and 100", key)
	}
	return d, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: must be a positive duration such as 30s or 1m", key)
	}
	return d, nil
}

func parseMillis(key, raw string) (time.Duration, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: must be a non-negative integer", key)
	}
	return time.Duration(n) * time.Millisecond, nil
}

// csrfKey decodes the 32-byte hex secret. Development falls back to a random
// key, so sessions do not survive a restart.
func csrfKey(raw string, production bool) ([]byte, error) {
	if raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("CAMPUS_CSRF_KEY: must be 64 hex characters")
		}
		return key, nil
	}
	if production {
		return nil, fmt.Errorf("CAMPUS_CSRF_KEY: required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key")
	return key, nil
}
