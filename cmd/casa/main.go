package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/config"
	"github.com/dukerupert/casa/internal/database"
	"github.com/dukerupert/casa/internal/events"
	"github.com/dukerupert/casa/internal/handler"
	"github.com/dukerupert/casa/internal/logging"
	"github.com/dukerupert/casa/internal/messaging"
	"github.com/dukerupert/casa/internal/middleware"
	"github.com/dukerupert/casa/internal/server"
	"github.com/dukerupert/casa/internal/store"
	ws "github.com/dukerupert/casa/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("casa stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.OpenDriver(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database ready", "driver", cfg.DBDriver)

	docs := store.NewDocumentStore(db)
	stores := store.NewStores(docs)
	svc := auth.NewService(stores.Users, auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL), cfg.BcryptCost)

	if cfg.AdminEmail != "" {
		created, err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			logger.Info("created admin user", "email", cfg.AdminEmail)
		}
	}

	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		limiter = middleware.NewRedisLimiter(rdb)
		logger.Info("rate limiting through redis", "addr", cfg.RedisAddr)
	} else {
		mem := middleware.NewRateLimiter()
		go mem.RunCleanup(ctx, 5*time.Minute)
		limiter = mem
	}

	hub := ws.NewHub(logger.With("component", "websocket"))
	notifiers := events.Fanout{hub}
	if cfg.AMQPURL != "" {
		pub, err := messaging.NewPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger.With("component", "amqp"))
		if err != nil {
			return err
		}
		defer pub.Close()
		notifiers = append(notifiers, pub)
		logger.Info("publishing changes", "queue", cfg.AMQPQueue)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, cfg.DBDriver),
		docs,
	)

	srv := server.New(server.Options{
		Routes: handler.Routes(handler.Deps{
			Stores:         stores,
			Auth:           svc,
			Notifier:       notifiers,
			UploadMaxBytes: cfg.UploadMaxBytes,
		}),
		DB:       docs,
		Auth:     svc,
		Limiter:  limiter,
		Hub:      hub,
		Registry: reg,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("casa listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
