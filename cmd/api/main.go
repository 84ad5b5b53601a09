package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/api"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/auth"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/config"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/db"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/logger"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/queue"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Str("driver", cfg.Database.Driver).Msg("Starting API server")

	repo, closeRepo, err := db.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open feedback store")
	}
	defer closeRepo()

	authenticator, err := auth.NewAuthenticator(cfg.Admin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure admin auth")
	}

	// Spreadsheet imports need both Redis and S3; the rest of the API runs
	// without them.
	var (
		producer api.JobProducer
		s3Store  storage.Storage
	)
	if cfg.Redis.Host != "" && cfg.Storage.S3.Bucket != "" {
		redisClient, err := queue.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		producer = queue.NewProducer(redisClient, cfg.Redis.ImportQueue)

		s3Store, err = storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
	} else {
		log.Warn().Msg("Redis or S3 not configured, spreadsheet imports disabled")
	}

	handler := api.NewHandler(repo, s3Store, producer, authenticator, cfg, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
