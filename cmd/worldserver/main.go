package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/wowgo/internal/config"
	"github.com/udisondev/wowgo/internal/db"
	"github.com/udisondev/wowgo/internal/game/instancelock"
)

const WorldConfigPath = "config/worldserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := WorldConfigPath
	if p := os.Getenv("WOWGO_WORLD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadWorldServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading world config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("wowgo world server starting", "log_level", cfg.LogLevel)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	instanceRepo := db.NewInstanceRepository(database.Pool())
	lockMgr := instancelock.NewLockManager(
		&lockStoreAdapter{repo: instanceRepo},
		cfg.DailyResetHour,
		time.Weekday(cfg.WeeklyResetDay),
		cfg.WeeklyResetHour,
	)
	if err := lockMgr.LoadInstanceLocks(ctx); err != nil {
		return fmt.Errorf("loading instance locks: %w", err)
	}

	playerLocks, tempLocks, sharedData := lockMgr.Statistics()
	slog.Info("instance lock registry ready",
		"playerLocks", playerLocks,
		"temporaryLocks", tempLocks,
		"sharedData", sharedData)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runLockSweepLoop(gctx, instanceRepo, time.Duration(cfg.LockSweepInterval)*time.Second)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	slog.Info("world server stopped")
	return nil
}

// runLockSweepLoop periodically purges expired, not-extended lock rows.
// Blocks until context is canceled.
func runLockSweepLoop(ctx context.Context, repo *db.InstanceRepository, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("instance lock sweep loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("instance lock sweep loop stopping")
			return ctx.Err()
		case <-ticker.C:
			removed, err := repo.DeleteExpiredLocks(ctx, time.Now())
			if err != nil {
				slog.Error("expired lock sweep", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired instance locks purged", "count", removed)
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
