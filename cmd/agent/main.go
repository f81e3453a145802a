package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	configloader "github.com/pigletlabs/peppavoice/external/config"
	notifyimpl "github.com/pigletlabs/peppavoice/external/notify"
	repositoryimpl "github.com/pigletlabs/peppavoice/external/repository"
	roomimpl "github.com/pigletlabs/peppavoice/external/room"
	"github.com/pigletlabs/peppavoice/internal/config"
	roompkg "github.com/pigletlabs/peppavoice/internal/room"
	"github.com/pigletlabs/peppavoice/internal/session"
	"github.com/pigletlabs/peppavoice/internal/task"
)

const roomConnectTimeout = 20 * time.Second

func main() {
	// Local deployments keep their variables in .env.local; absence is
	// fine where the environment is injected directly.
	_ = godotenv.Load(".env.local")

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "room_name", cfg.RoomName)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: attaching to room")
	runAgent(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	roomimpl.RegisterDI(injector)
	notifyimpl.RegisterDI(injector)
	task.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func runAgent(injector do.Injector) {
	rc, err := do.Invoke[roompkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve room client", "error", err)
		os.Exit(1)
	}
	runner, err := do.Invoke[*task.Runner](injector)
	if err != nil {
		slog.Error("failed to resolve task runner", "error", err)
		os.Exit(1)
	}
	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve session manager", "error", err)
		os.Exit(1)
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), roomConnectTimeout)
	defer connectCancel()
	if err := rc.Connect(connectCtx); err != nil {
		slog.Error("room connect failed", "error", err)
		os.Exit(1)
	}

	manager.Attach()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := rc.Run()
		// The room connection ending also ends the session; stop the
		// reconciliation poll with it.
		cancel()
		return err
	})
	g.Go(func() error {
		return manager.RunReconcilePoll(gctx)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			slog.Info("shutting down")
			cancel()
			_ = rc.Close()
		case <-gctx.Done():
		}
	}()

	if err := g.Wait(); err != nil {
		slog.Error("agent run loop failed", "error", err)
	}
	_ = rc.Close()

	manager.Close()
	runner.Stop()
	slog.Info("shutdown complete")
}
