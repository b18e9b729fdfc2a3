package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gokul1818/foodOrderAdmin/internal/auth"
	"github.com/gokul1818/foodOrderAdmin/internal/config"
	"github.com/gokul1818/foodOrderAdmin/internal/gateway"
	"github.com/gokul1818/foodOrderAdmin/internal/logging"
	"github.com/gokul1818/foodOrderAdmin/internal/notify"
	"github.com/gokul1818/foodOrderAdmin/internal/orders"
	"github.com/gokul1818/foodOrderAdmin/internal/session"
	"github.com/gokul1818/foodOrderAdmin/internal/store"
	"github.com/gokul1818/foodOrderAdmin/internal/tenant"
)

const appName = "foodOrderAdmin"

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := store.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *gateway.Server, controller *session.Controller, hub *gateway.Hub, rdb *goredis.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		controller.Stop()
		hub.Stop()

		if err := rdb.Close(); err != nil {
			slog.Error("Redis close error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Console runtime starting", "env", cfg.AppEnv, "port", cfg.Port)

	ctx := context.Background()
	rdb := setupRedis(ctx, cfg)

	// Store bindings
	watcher := store.NewWatcher(rdb)
	docs := store.NewCollection(rdb)
	sink := store.NewStateSink(rdb)

	// Auth
	policy := auth.NewPolicy(cfg.SuperAdmins())
	provider := auth.NewProvider(rdb, policy)
	authSession := auth.NewSession(provider)

	// Notification pipeline
	hub := gateway.NewHub(cfg.MaxWebSocketConnections)
	toasts := notify.NewToastCenter(clock, cfg.ToastAutoDismiss, hub.BroadcastToast)
	sound := notify.NewSoundPlayer()
	platform := notify.NewBeeepPlatform(appName)
	desktop := notify.NewDesktopNotifier(platform, cfg.NotifyIcon, cfg.OrdersRoute, func(route string) {
		slog.Info("Notification activated, navigating", "route", route)
	})
	channel := notify.NewChannel(toasts, sound, desktop)

	// Sync core
	resolver := tenant.NewResolver(watcher)
	orderWatcher := orders.NewWatcher(watcher, channel)
	controller := session.NewController(authSession, resolver, orderWatcher, sink)

	if err := controller.Start(ctx); err != nil {
		slog.Error("Failed to start session controller", "error", err)
		os.Exit(1)
	}

	srv := gateway.NewServer(cfg, controller, hub, toasts, provider, docs, rdb)
	done := runGracefulShutdown(srv, controller, hub, rdb)

	slog.Info("Gateway starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
