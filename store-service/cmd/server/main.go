package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/config"
	"storefront/store-service/internal/app/store/handler"
	"storefront/store-service/internal/app/store/media"
	"storefront/store-service/internal/app/store/processor"
	"storefront/store-service/internal/app/store/ratelimit"
	"storefront/store-service/internal/app/store/repository"
	"storefront/store-service/internal/app/store/service"
	"storefront/store-service/internal/app/store/util"

	"github.com/gin-gonic/gin"
)

const serviceName = "store-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init(serviceName, logLevel)

	if logstashAddr := os.Getenv("LOGSTASH_ADDR"); logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, serviceName, logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	if !cfg.Server.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := util.ConnectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.DBName).
		Msg("Connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := util.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		logger.Info().Msg("Database schema migrated")
	}

	redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	productPublisher := util.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic)
	defer productPublisher.Close()
	walletPublisher := util.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.WalletTopic)
	defer walletPublisher.Close()
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn().Msg("KAFKA_BROKERS not set, domain events are disabled")
	} else {
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("product_topic", cfg.Kafka.ProductTopic).
			Str("wallet_topic", cfg.Kafka.WalletTopic).
			Msg("Initialized Kafka producers")
	}

	storage, err := media.NewStorage(cfg.Upload.PublicDir, media.Limits{
		MaxFileSize: cfg.Upload.MaxFileSize,
		ImageTypes:  cfg.Upload.ImageTypes,
		VideoTypes:  cfg.Upload.VideoTypes,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare upload directory")
	}

	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	productService := service.NewProductService(productRepo, storage, productPublisher)
	catalogService := service.NewCatalogService(categoryRepo, merchantRepo, redisClient)
	orderService := service.NewOrderService(orderRepo, productRepo)
	walletService := service.NewWalletService(walletRepo, userRepo, walletPublisher)
	statsService := service.NewStatsService(userRepo, orderRepo, walletRepo, cfg.Stats.MonthlyTarget)

	handlers := handler.Handlers{
		Product: handler.NewProductHandler(productService, storage),
		Catalog: handler.NewCatalogHandler(catalogService),
		Order:   handler.NewOrderHandler(orderService),
		Wallet:  handler.NewWalletHandler(walletService),
		Admin:   handler.NewAdminHandler(statsService),
	}
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	limiter := ratelimit.NewLimiter(redisClient.Raw(), cfg.RateLimit.Window, cfg.RateLimit.Enabled)

	router := handler.SetupRoutes(cfg, handlers, authMiddleware, limiter, storage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sweeper *processor.MediaSweeper
	if cfg.Sweeper.Enabled {
		sweeper = processor.NewMediaSweeper(productRepo, storage, cfg.Sweeper.GracePeriod)
		if err := sweeper.Start(ctx, cfg.Sweeper.Schedule); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start media sweeper")
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  60 * time.Second, // загрузка видео до 50 MB
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("public_dir", storage.Dir()).
			Msg("Starting Store Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Store Service...")

	if sweeper != nil {
		sweeper.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Store Service stopped gracefully")
}
