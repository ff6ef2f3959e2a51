package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/TooLazyToCreate/lap-counter/config"
	"github.com/TooLazyToCreate/lap-counter/internal/app"
	"github.com/TooLazyToCreate/lap-counter/internal/telemetry"
)

func main() {
	var cfg *config.Config
	if workingDir, err := os.Getwd(); err != nil {
		log.Fatal("os.Getwd() failed with error - " + err.Error())
	} else {
		/* go.env необязателен, переменные могут прийти из окружения */
		if err := godotenv.Load(workingDir + "/go.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatal("Error loading .env file; Error - " + err.Error())
		}
		//config.WriteTemplate(workingDir + "/config.json")
		cfg = config.MustLoad(workingDir + "/config.json")
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.IsDev() {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
	} else {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapConfig.Development = false
	}
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatal("Failed to build logger - " + err.Error())
	}
	defer logger.Sync()

	shutdown, err := telemetry.Setup(context.Background(), "lap-counter", cfg.OtelEndpoint)
	if err != nil {
		logger.Error("Tracing is disabled", zap.Error(err))
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("Failed to flush traces", zap.Error(err))
		}
	}()

	if err = app.Run(logger, cfg); err != nil {
		logger.Error("Server have been stopped with error", zap.Error(err))
	} else {
		logger.Info("Server have been stopped.")
	}
}
