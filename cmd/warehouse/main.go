// Warehouse: a small-business inventory tracker.
//
// Serves the local HTTP API for claims, receipts, issues and stock balances,
// and optionally a read-only terminal console over the same store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/database"
	"github.com/stockroom/warehouse/internal/database/seed"
	"github.com/stockroom/warehouse/internal/server"
	"github.com/stockroom/warehouse/internal/services"
	"github.com/stockroom/warehouse/internal/tui"
	"github.com/stockroom/warehouse/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	configPath  string
	migrateOnly bool
	seedData    bool
	debugMode   bool
	console     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.migrateOnly, "migrate-only", false, "Run migrations and exit")
	flag.BoolVar(&opts.seedData, "seed", false, "Generate demo data into an empty store and exit")
	flag.BoolVar(&opts.debugMode, "debug", false, "Enable debug logging")
	flag.BoolVar(&opts.console, "tui", false, "Run the terminal console alongside the server")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("warehouse version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, cfgPath, err := config.Load(opts.configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	closeLog, err := setupLogging(cfg, opts)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("warehouse starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("closing database")
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	if opts.migrateOnly {
		slog.Info("migrations complete, exiting")
		return nil
	}

	clock := util.SystemClock{}
	svc := services.New(db, clock, cfg.Inventory)

	if opts.seedData {
		summary, err := seed.NewGenerator(svc, seed.DefaultConfig(clock.Now())).Generate(ctx)
		if errors.Is(err, seed.ErrNotEmpty) {
			slog.Warn("store already has items, skipping seed generation")
			return nil
		}
		if err != nil {
			return fmt.Errorf("generating seed data: %w", err)
		}
		fmt.Printf("seeded %d items, %d claims, %d inbounds, %d outbounds\n",
			summary.Items, summary.Claims, summary.Inbounds, summary.Outbounds)
		return nil
	}

	if !opts.debugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(cfg, db, svc, clock, Version)

	if !opts.console {
		if err := srv.Run(ctx, os.Stdout); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		slog.Info("warehouse shutdown complete")
		return nil
	}

	// The console owns the terminal; the server runs beside it until either
	// stops.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run(ctx, io.Discard)
		cancel()
	}()

	slog.Info("starting console")
	consoleErr := tui.Run(ctx, svc, cfg, clock, Version)
	cancel()

	if err := <-serverErr; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	if consoleErr != nil {
		return fmt.Errorf("console error: %w", consoleErr)
	}

	slog.Info("warehouse shutdown complete")
	return nil
}

// setupLogging installs the default slog logger: JSON to the configured log
// file, otherwise text on stderr. While the console owns the terminal,
// stderr logging is dropped.
func setupLogging(cfg *config.Config, opts options) (func(), error) {
	logLevel := slog.LevelInfo
	if opts.debugMode {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	closer := func() {}
	var handler slog.Handler
	switch {
	case logPath != "":
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closer = func() { logFile.Close() }
		handler = slog.NewJSONHandler(logFile, handlerOpts)
	case opts.console:
		handler = slog.NewTextHandler(io.Discard, handlerOpts)
	default:
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}

// openStore recovers the database file if needed and opens it.
func openStore(cfg *config.Config) (*database.DB, error) {
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir)
		if err != nil {
			slog.Error("database recovery failed",
				"path", dbPath,
				"steps", len(report.Steps),
			)
			return nil, fmt.Errorf("database recovery failed: %w", err)
		}

		switch report.Result {
		case database.RecoveryFromBackup:
			slog.Warn("database restored from backup",
				"backup", report.BackupUsed,
			)
		case database.RecoverySuccess:
			slog.Debug("database integrity verified")
		}
	}

	db, err := database.Open(dbPath, &cfg.Database, backupDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
