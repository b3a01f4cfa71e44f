package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dharanvel/certvault/internal/api"
	"github.com/dharanvel/certvault/internal/config"
	"github.com/dharanvel/certvault/internal/database"
	"github.com/dharanvel/certvault/internal/repository"
	"github.com/dharanvel/certvault/internal/s3storage"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.WithError(err).Fatal("ensure schema")
	}

	store, err := s3storage.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("init object storage")
	}
	if err := store.EnsureBuckets(ctx); err != nil {
		log.WithError(err).Fatal("ensure buckets")
	}

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	repo := repository.NewCertificateRepository(pool)
	server := api.New(cfg, log, repo, store, queueClient)
	if err := server.Run(ctx); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
	log.Info("server shut down")
}
