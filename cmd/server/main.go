package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nexusmart/internal/app"
	"nexusmart/internal/config"
	"nexusmart/internal/database"
	"nexusmart/internal/events"
	"nexusmart/internal/handlers"
	"nexusmart/internal/repository"
	"nexusmart/internal/services"
	"nexusmart/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("❌ server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if !cfg.IsProduction() {
		zcfg = zap.NewDevelopmentConfig()
	}
	if err := zcfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, errors.Wrap(err, "parse LOG_LEVEL")
	}
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra := app.Infra{Health: map[string]handlers.Pinger{}}

	switch cfg.StoreDriver {
	case "scylla":
		sm := database.NewScyllaManager(cfg, logger)
		if err := sm.Connect(); err != nil {
			return errors.Wrap(err, "connect scylla")
		}
		defer sm.Close()
		infra.Store = repository.NewScyllaStore(sm, cfg)
		infra.Health["scylla"] = sm
	case "memory":
		logger.Warn("⚠️ STORE_DRIVER=memory, data is lost on restart")
		infra.Store = repository.NewMemoryStore()
	default:
		return errors.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.Info("✅ Redis connected", zap.String("addr", cfg.RedisHost))
	infra.Redis = rdb

	es, err := database.ConnectElastic(cfg)
	if err != nil {
		logger.Warn("⚠️ Elasticsearch unavailable, keyword search scans the catalog", zap.Error(err))
	} else if es != nil {
		infra.Search = services.NewElasticSearch(es, cfg.ElasticIndex)
		logger.Info("✅ Elasticsearch connected", zap.String("index", cfg.ElasticIndex))
	}

	mc, err := database.ConnectMinIO(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "connect minio")
	}
	if mc != nil {
		infra.Images = services.NewImageStore(mc, cfg.MinIOBucket)
		logger.Info("✅ MinIO connected", zap.String("bucket", cfg.MinIOBucket))
	}

	if cfg.KafkaBrokers != "" {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		defer producer.Close()
		infra.Publisher = producer
		logger.Info("✅ Kafka producer ready", zap.String("topic", cfg.KafkaOrderTopic))
	}

	infra.Mailer, err = utils.NewMailer(cfg, logger)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger, infra)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 NexusMart API listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("🛑 shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
