package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	StoreDriver string
	LogLevel    string
	PolicyFile  string

	NATSURL           string
	NATSSubjectPrefix string

	TransitionTimeout    time.Duration
	IdempotencyRetention time.Duration

	PurgeSchedule       string
	OutboxSchedule      string
	OutboxBatchSize     int
	OutboxMaxAttempts   int
	AutoAdvanceSchedule string
	AutoAdvanceLimit    int
}

// LoadConfig reads the configuration from the environment after loading
// envFile into it. A missing envFile is not an error; variables already set
// in the environment take precedence over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		HTTPPort:            envString("HTTP_PORT", "8080"),
		DBHost:              envString("DB_HOST", "localhost"),
		DBPort:              envString("DB_PORT", "5432"),
		DBUser:              envString("DB_USER", "postgres"),
		DBPassword:          envString("DB_PASSWORD", ""),
		DBName:              envString("DB_NAME", "orderflow"),
		DBSslMode:           envString("DB_SSLMODE", "disable"),
		StoreDriver:         strings.ToLower(envString("STORE_DRIVER", StorePostgres)),
		LogLevel:            envString("LOG_LEVEL", "info"),
		PolicyFile:          envString("POLICY_FILE", ""),
		NATSURL:             envString("NATS_URL", ""),
		NATSSubjectPrefix:   envString("NATS_SUBJECT_PREFIX", "orderflow"),
		PurgeSchedule:       envString("PURGE_SCHEDULE", "0 0 * * * *"),
		OutboxSchedule:      envString("OUTBOX_SCHEDULE", "*/5 * * * * *"),
		AutoAdvanceSchedule: envString("AUTO_ADVANCE_SCHEDULE", "*/30 * * * * *"),
	}

	var problems []error
	var err error
	if cfg.TransitionTimeout, err = envDuration("TRANSITION_TIMEOUT", 5*time.Second); err != nil {
		problems = append(problems, err)
	}
	if cfg.IdempotencyRetention, err = envDuration("IDEMPOTENCY_RETENTION", 72*time.Hour); err != nil {
		problems = append(problems, err)
	}
	if cfg.OutboxBatchSize, err = envInt("OUTBOX_BATCH_SIZE", 100); err != nil {
		problems = append(problems, err)
	}
	if cfg.OutboxMaxAttempts, err = envInt("OUTBOX_MAX_ATTEMPTS", 10); err != nil {
		problems = append(problems, err)
	}
	if cfg.AutoAdvanceLimit, err = envInt("AUTO_ADVANCE_LIMIT", 100); err != nil {
		problems = append(problems, err)
	}
	if cfg.StoreDriver != StorePostgres && cfg.StoreDriver != StoreMemory {
		problems = append(problems, fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", StorePostgres, StoreMemory, cfg.StoreDriver))
	}
	if _, err = cfg.SlogLevel(); err != nil {
		problems = append(problems, err)
	}

	if err = errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return d, nil
	}
	return def, nil
}

func envInt(key string, def int) (int, error) {
	if v, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return i, nil
	}
	return def, nil
}
