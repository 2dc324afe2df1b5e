package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/koopa0/artshop/internal/artshop"
	"github.com/koopa0/artshop/internal/cache"
	"github.com/koopa0/artshop/internal/config"
	"github.com/koopa0/artshop/internal/events"
	"github.com/koopa0/artshop/internal/handler"
	"github.com/koopa0/artshop/internal/logs"
	"github.com/koopa0/artshop/internal/migrations"
	"github.com/koopa0/artshop/internal/storage"
	"github.com/koopa0/artshop/internal/visits"
	"github.com/koopa0/artshop/pkg/logger"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// runServe 組裝所有元件並啟動 HTTP 伺服器，收到 SIGINT/SIGTERM 時優雅關閉
func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 設定日誌
	if out := cfg.Log.Output; out != "" && out != "stdout" && out != "stderr" {
		if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	log, logCloser, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.AddSource)
	if err != nil {
		return fmt.Errorf("failed to open log output: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 存儲
	store, ready, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 快取
	registry, err := cache.NewRegistry(cfg.Cache.Capacity, log)
	if err != nil {
		return fmt.Errorf("failed to create caches: %w", err)
	}

	// 事件
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	// 造訪計數
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MaxRetries:   cfg.Redis.MaxRetries,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			// 不中止啟動；計數器會在連續錯誤後切換為內存模式
			log.Warn("redis is not reachable", "addr", cfg.Redis.Addr, "error", err)
		}
	}
	counter := visits.NewCounter(redisClient, visits.Config{
		FallbackThreshold: cfg.Visits.FallbackThreshold,
		HealthInterval:    cfg.Visits.HealthInterval,
	}, log)
	defer counter.Close()

	// 日誌報表
	reports := logs.NewReports(logs.NewExtractor(cfg.Logs.Dir), logs.ReportsConfig{
		Dir:     cfg.Logs.ReportsDir,
		Workers: cfg.Logs.Workers,
		Delay:   cfg.Logs.ReportDelay,
	}, log)
	defer reports.Close()

	caches := registry.Caches()
	h := handler.New(handler.Services{
		Artists:         artshop.NewArtistService(store, caches, publisher, log),
		Arts:            artshop.NewArtService(store, caches, publisher, log),
		Classifications: artshop.NewClassificationService(store, caches, publisher, log),
		Reports:         reports,
		Visits:          counter,
		Ready:           ready,
	}, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server",
			"port", cfg.Server.Port,
			"storage", cfg.Storage.Driver,
			"cache_capacity", cfg.Cache.Capacity,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown server", "error", err)
			// 強制關閉伺服器
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("failed to force close server", "error", closeErr)
			}
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// openStore 依 storage.driver 建立存儲；返回就緒檢查與關閉函數
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (artshop.Store, []handler.Pinger, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Info("using in-memory storage")
		return storage.NewMemory(), nil, func() {}, nil
	}

	if cfg.Storage.AutoMigrate {
		if err := migrate(cfg, log); err != nil {
			return nil, nil, nil, err
		}
	}

	pool, err := storage.OpenPool(ctx, cfg.PostgresDSN(), cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	pg := storage.NewPostgres(pool)
	return pg, []handler.Pinger{pg}, pool.Close, nil
}

func migrate(cfg *config.Config, log *slog.Logger) error {
	m, err := migrations.New(cfg.PostgresURL(), log)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("failed to close migrator", "error", err)
		}
	}()

	if err := m.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
