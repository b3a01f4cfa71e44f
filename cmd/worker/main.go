package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dharanvel/certvault/internal/config"
	"github.com/dharanvel/certvault/internal/database"
	"github.com/dharanvel/certvault/internal/repository"
	"github.com/dharanvel/certvault/internal/s3storage"
	"github.com/dharanvel/certvault/internal/worker"
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

	store, err := s3storage.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("init object storage")
	}

	repo := repository.NewCertificateRepository(pool)
	indexer := worker.NewIndexer(repo, store, log)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{Concurrency: cfg.WorkerConcurrency},
	)

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	log.WithField("concurrency", cfg.WorkerConcurrency).Info("worker starting")
	if err := srv.Run(indexer.Handler()); err != nil {
		log.WithError(err).Fatal("worker stopped")
	}
	log.Info("worker shut down")
}
