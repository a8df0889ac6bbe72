package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskhub/taskhub/internal/cache"
	"github.com/taskhub/taskhub/internal/config"
	"github.com/taskhub/taskhub/internal/db"
	httpx "github.com/taskhub/taskhub/internal/http"
	"github.com/taskhub/taskhub/internal/http/middlewares"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/redisclient"
	"github.com/taskhub/taskhub/internal/repo/memory"
	"github.com/taskhub/taskhub/internal/repo/mongodb"
	"github.com/taskhub/taskhub/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// tracing
	shutdownTracer, err := observability.InitTracer(ctx, "taskhub-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		sctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	// metrics
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Prom:           prom,
		Gatherer:       reg,
		Cache:          cache.New(30 * time.Second),
		AllowedOrigins: cfg.AllowedOrigins,
	}

	// persistence backend
	switch cfg.Backend {
	case "mongo":
		client, mdb, err := db.NewMongo(cfg.MongoURI, cfg.MongoDB)

		if err != nil {
			log.Error("mongo connect failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			dctx, cancel := config.WithTimeout(3 * time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()

		usersRepo := mongodb.NewUsersRepo(mdb, prom)

		if err := usersRepo.EnsureIndexes(ctx); err != nil {
			log.Error("mongo index setup failed", "err", err)
			os.Exit(1)
		}

		deps.Users = usersRepo
		deps.UserIDs = usersRepo
		deps.Tasks = mongodb.NewTasksRepo(mdb, prom)
		deps.Ping = func() error {
			pctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return client.Ping(pctx, nil)
		}

	case "memory":
		usersRepo := memory.NewUsersRepo()

		deps.Users = usersRepo
		deps.UserIDs = usersRepo
		deps.Tasks = memory.NewTasksRepo()

	default: // postgres
		pool, err := db.NewPool(cfg.DBURL)

		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}

		defer pool.Close()

		usersRepo := postgres.NewUsersRepo(pool, prom)

		deps.Users = usersRepo
		deps.UserIDs = usersRepo
		deps.Tasks = postgres.NewTasksRepo(pool, prom)
		deps.Ping = func() error {
			pctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return pool.Ping(pctx)
		}
	}

	// rate limiting for the credential endpoints; shared counter when redis
	// is configured, per-process otherwise
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		defer func() { _ = rdb.Close() }()

		deps.Limiter = middlewares.NewRateLimiter(20, time.Minute, rdb)
	} else {
		deps.Limiter = middlewares.NewRateLimiter(20, time.Minute, nil)
	}

	router := httpx.NewRouter(log, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "backend", cfg.Backend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(sctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
