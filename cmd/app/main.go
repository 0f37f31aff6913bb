package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DermaScan/internal/config"
	"DermaScan/pkg/detector"
	"DermaScan/pkg/labels"
	"DermaScan/pkg/log"
	"DermaScan/pkg/metrics"
	"DermaScan/pkg/recommender"
	"DermaScan/pkg/s3"
	"DermaScan/pkg/storage"
	"DermaScan/pkg/utils"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	validator := config.NewValidator()
	settings, err := config.LoadSettings(validator)
	if err != nil {
		logger.Fatal(err)
	}

	table := labels.Default()
	m := metrics.New()

	det := detector.Load(settings.DetectorConfig(table.Len()), logger)
	m.SetModelLoaded(det.Ready() == nil)

	ctx := context.Background()
	rec, err := recommender.NewFromConfig(ctx, settings.RecommenderConfig())
	if err != nil {
		logger.Fatal(err)
	}

	var mirror s3.ItfS3
	if s3Cfg := s3.ConfigFromEnv(); s3Cfg.Bucket != "" {
		mirror, err = s3.New(s3Cfg)
		if err != nil {
			logger.Warnf("S3 mirror disabled: %v", err)
			mirror = nil
		}
	}

	u := utils.New()
	store, err := storage.New(settings.UploadDir, logger, u, mirror)
	if err != nil {
		logger.Fatal(err)
	}

	fiberApp := config.NewFiber(logger, settings.BodyLimit)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithSettings(settings),
		config.WithUtils(),
		config.WithMiddleware(),
		config.WithLabels(table),
		config.WithDetector(det),
		config.WithRecommender(rec),
		config.WithStorage(store),
		config.WithMetrics(m),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.WithFields(log.Fields{
		"port":         settings.Port,
		"detector":     det.Name(),
		"model_loaded": det.Ready() == nil,
		"llm_provider": rec.Provider(),
	}).Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
