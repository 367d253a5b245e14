package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"nft-mint-service/config"
	"nft-mint-service/handlers"
	"nft-mint-service/middleware"
	"nft-mint-service/models"
	"nft-mint-service/services"
	"nft-mint-service/storage"
	"nft-mint-service/store"
	"nft-mint-service/workers"
)

func main() {
	log := logrus.New()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.MintTask{},
	); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	users := store.NewGormUserStore(db)
	tasks := store.NewGormMintTaskStore(db)

	storageCost, err := decimal.NewFromString(cfg.MintStorageCostUSDC)
	if err != nil {
		log.WithError(err).Fatal("MINT_STORAGE_COST_USDC is not a valid decimal")
	}

	walletProvider := services.NewWalletProviderClient(
		cfg.WalletProviderBaseURL, cfg.WalletProviderAPIKey, cfg.WalletSetID, cfg.WalletAccountType, log)
	sponsorship := services.NewSponsorshipClient(cfg.SponsorshipBaseURL, cfg.SponsorshipAPIKey, log)
	pinning := services.NewPinningClient(cfg.PinningBaseURL, cfg.PinningJWT)

	walletService := services.NewWalletService(users, walletProvider, log)
	metadataService := services.NewMetadataService(pinning, cfg.IPFSGatewayURL, log)
	submitter := services.NewTransactionSubmitter(sponsorship, cfg.FeeLevel, cfg.GasLimit, log)
	poller := services.NewTransactionPoller(sponsorship, services.PollOptions{
		MaxWait:      cfg.PollMaxWait,
		PollInterval: cfg.PollInterval,
	}, log)

	parser, err := services.NewReceiptParser(services.DialChainClients(cfg.RPCURLs, log), log)
	if err != nil {
		log.WithError(err).Fatal("failed to build receipt parser")
	}

	notifier := services.NewMintNotifier(cfg.SendgridAPIKey, cfg.NotifyFromName, cfg.NotifyFromAddress, log)
	if !cfg.NotificationsEnabled() {
		log.Info("SENDGRID_API_KEY not set, mint notifications disabled")
	}

	mintService := services.NewMintService(
		walletService, metadataService, submitter, poller, parser, tasks, notifier,
		services.MintServiceConfig{
			ContractAddresses: cfg.ContractAddresses,
			StorageCostUSDC:   storageCost,
			BatchItemDelay:    cfg.BatchItemDelay,
		}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backfill := workers.NewTokenBackfillWorker(tasks, parser, log)
	if err := backfill.Start(ctx, 5*time.Minute); err != nil {
		log.WithError(err).Fatal("failed to start token backfill worker")
	}
	defer backfill.Stop()

	var media *storage.R2Client
	if cfg.R2AccessKeyID != "" {
		media, err = storage.NewR2Client(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Bucket:          cfg.R2Bucket,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize R2 client")
		}
	} else {
		log.Warn("R2 credentials not set, media uploads disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit:   32 * 1024 * 1024, // 32MB, enough for media uploads
		ReadTimeout: 30 * time.Second,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"chains": models.ChainNames(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	if cfg.GatewayToken != "" {
		api.Use(middleware.GatewayAuth(cfg.GatewayToken, log))
	} else {
		log.Warn("GATEWAY_SHARED_TOKEN not set, /api/v1 is unauthenticated")
	}

	handlers.SetupMintRoutes(api, handlers.NewMintHandler(mintService, parser, cfg.DefaultBlockchain, log))
	handlers.SetupMediaRoutes(api, handlers.NewMediaHandler(media, log))

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.WithError(err).Error("server stopped")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":   cfg.ListenAddr,
		"chains": models.ChainNames(),
	}).Info("✅ gasless mint service running")
	log.Info("✅ token backfill worker running (every 5m)")

	<-ctx.Done()
	log.Info("shutting down...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
}
