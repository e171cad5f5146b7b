package main

import (
	"calendar-sessions-backend/cmd/calendar-api/repository"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const envPrefix = "CALENDAR"

type EnvCfg struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"postgres"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	Port            int           `envconfig:"PORT" default:"8080"`
	MetricsPort     int           `envconfig:"METRICS_PORT" default:"9090"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	MaxBody         string        `envconfig:"MAX_BODY" default:"1M"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func loadConfig() (EnvCfg, error) {
	var cfg EnvCfg
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return EnvCfg{}, err
	}
	if _, err := cfg.Level(); err != nil {
		return EnvCfg{}, err
	}
	return cfg, nil
}

// DSN prefers DATABASE_URL and falls back to the discrete settings.
func (cfg EnvCfg) DSN() string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)
}

func (cfg EnvCfg) Pool() repository.PoolConfig {
	return repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}
}

func (cfg EnvCfg) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid %s_LOG_LEVEL %q: %w", envPrefix, cfg.LogLevel, err)
	}
	return level, nil
}

// setupLogger installs a tint handler as the default logger. Colors are
// only emitted when w is a terminal.
func setupLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	log := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
	slog.SetDefault(log)
	return log
}
