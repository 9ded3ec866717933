package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKris124/poultry-manager/common/database"
	"github.com/MKris124/poultry-manager/common/logger"
	"github.com/MKris124/poultry-manager/internal/config"
	httpapi "github.com/MKris124/poultry-manager/internal/http"
	"github.com/MKris124/poultry-manager/internal/metrics"
	"github.com/MKris124/poultry-manager/internal/repository"
	"github.com/MKris124/poultry-manager/internal/service"
	"github.com/MKris124/poultry-manager/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var file *logger.FileOptions
	if cfg.Log.File != "" {
		file = &logger.FileOptions{Path: cfg.Log.File, MaxSizeMB: cfg.Log.MaxSizeMB, MaxBackups: cfg.Log.MaxBackups}
	}
	log, err := logger.NewLoggerWithFile(cfg.Log.Level, cfg.Log.Format, "poultry-manager", file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB 不可用时退回内存存储，便于本地联调
	var db *sql.DB
	var st repository.Store = repository.NewMemoryStore()
	if cfg.DBEnabled {
		if d, err := database.Open(&cfg.Database); err == nil {
			sqlStore := repository.NewSQLStore(d, cfg.Database.Driver)
			if err := sqlStore.Migrate(ctx); err != nil {
				log.Fatal("Schema migration failed", zap.Error(err))
			}
			db, st = d, sqlStore
			log.Info("DB enabled", zap.String("driver", cfg.Database.Driver))
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	} else {
		log.Info("DB disabled, using memory store")
	}

	var redisClient *redis.Client
	var kv store.KV = store.NewMemoryKV()
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis ping failed, import reports kept in memory", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			kv = store.NewRedisKV(redisClient)
		}
	}

	router := httpapi.NewAPI(httpapi.Deps{
		Store:       st,
		Reports:     service.NewImportReportStore(kv, cfg.Import.ReportTTL),
		Metrics:     metrics.Import(),
		MaxUploadMB: cfg.Import.MaxUploadMB,
		Logger:      log,
	})

	srv := service.NewServer(cfg.HTTP, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	if err := srv.Stop(context.Background()); err != nil {
		log.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = database.Close(db)
	}
}
