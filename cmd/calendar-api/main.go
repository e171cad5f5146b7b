package main

import (
	"calendar-sessions-backend/cmd/calendar-api/apis"
	"calendar-sessions-backend/cmd/calendar-api/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {

	err := os.Setenv("TZ", "UTC")
	if err != nil {
		panic(err)
	}

	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("calendar-api failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "calendar-api",
		Usage:  "Session-scoped calendar event store over HTTP",
		Action: runServe,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			importCommand(),
			exportCommand(),
		},
	}
}

// bootstrap reads the environment and installs the process logger.
func bootstrap() (EnvCfg, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return EnvCfg{}, nil, fmt.Errorf("load config: %w", err)
	}
	level, _ := cfg.Level()
	return cfg, setupLogger(os.Stderr, level), nil
}

func openDB(ctx context.Context, cfg EnvCfg, log *slog.Logger) (*gorm.DB, error) {
	db, err := repository.Open(cfg.DSN(), cfg.Pool(), log)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		_ = repository.Close(ctx, db)
		return nil, err
	}
	return db, nil
}

func closeDB(ctx context.Context, db *gorm.DB, log *slog.Logger) {
	if err := repository.Close(ctx, db); err != nil {
		log.Error("can't close database", "error", err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API (default)",
		Action: runServe,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the events table and indexes if missing, then exit",
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := openDB(c.Context, cfg, log)
			if err != nil {
				return err
			}
			log.Info("schema is up to date")
			return repository.Close(c.Context, db)
		},
	}
}

// newAPIServer builds the public listener. Only the routes of the event
// store and the liveness marker are mounted here.
func newAPIServer(cfg EnvCfg, log *slog.Logger, metrics *apis.Metrics, eventRepo *repository.EventRepo, health *apis.HealthCheckAPI) *echo.Echo {
	e := apis.NewServer(log, metrics, cfg.MaxBody)

	rootg := e.Group("")

	health.Setup(rootg)

	apis.
		NewSessionAPI(eventRepo).
		Setup(rootg)

	apis.
		NewEventAPI(eventRepo).
		Setup(rootg)

	return e
}

func runServe(c *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := openDB(c.Context, cfg, log)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, "calendar"),
	)

	health := apis.NewHealthCheckAPI(sqlDB)
	e := newAPIServer(cfg, log, apis.NewMetrics(reg), repository.NewEventRepo(db), health)

	servers := map[string]*echo.Echo{"api": e}
	addrs := map[string]int{"api": cfg.Port}
	if cfg.MetricsPort != 0 {
		servers["admin"] = apis.NewAdminServer(log, reg, health)
		addrs["admin"] = cfg.MetricsPort
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(servers))
	for name, srv := range servers {
		go func(name string, srv *echo.Echo) {
			addr := fmt.Sprintf(":%d", addrs[name])
			log.Info("listening", "server", name, "addr", addr)
			if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s server: %w", name, err)
			}
		}(name, srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	for name, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("can't shut down server", "server", name, "error", err)
		}
	}
	closeDB(shutdownCtx, db, log)

	return runErr
}
