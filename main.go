// main.go
package main

import (
	"context"
	"log"

	"myvillage-api/cmd"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/wire"
	"myvillage-api/pkg/cache"
	"myvillage-api/pkg/database"
	"myvillage-api/pkg/metrics"
	"myvillage-api/pkg/storage"
	"myvillage-api/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	if config.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx := context.Background()

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis only backs rate limiting; run without it when unreachable
	redisClient, err := cache.NewRedis(ctx, config.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("Redis connected successfully")
	}

	store := initStorage(ctx, config, logger)

	metrics.Register()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, wire.Infra{
		DB:        db,
		Redis:     redisClient,
		Storage:   store,
		UploadDir: config.Upload.Dir,
	}, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

// initStorage prefers S3 and keeps local disk as the fallback.
func initStorage(ctx context.Context, config *utils.Config, logger *zap.Logger) storage.Storage {
	local := storage.NewLocal(config.Upload.Dir, "/uploads")
	if !config.Storage.Enabled() {
		logger.Info("S3 not configured, storing uploads on local disk", zap.String("dir", config.Upload.Dir))
		return local
	}

	s3, err := storage.NewS3(ctx, config.Storage)
	if err != nil {
		logger.Warn("Failed to init S3 storage, using local disk", zap.Error(err))
		return local
	}

	logger.Info("S3 storage enabled", zap.String("bucket", config.Storage.Bucket))
	return storage.NewFallback(s3, local, logger)
}
