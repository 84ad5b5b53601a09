package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/config"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/db"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/excel"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/logger"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/queue"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/storage"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting import worker")

	repo, closeRepo, err := db.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open feedback store")
	}
	defer closeRepo()

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
	}

	// Undated rows on paper forms are read in the event's timezone.
	loc, err := time.LoadLocation(cfg.Export.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Export.Timezone).Msg("Invalid timezone")
	}

	consumer := queue.NewConsumer(redisClient, cfg.Redis.ImportQueue, cfg.Redis.DLQSuffix, log)
	importWorker := worker.NewImportWorker(repo, s3Storage, excel.NewExcelStrategy(loc), consumer, cfg.Workers.Import.Count, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := importWorker.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("Import worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down import worker...")

	cancel()
	<-done

	log.Info().Msg("Import worker exited")
}
