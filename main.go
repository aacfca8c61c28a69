package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/block-integration-api/tutorial-webchat/config"
	"github.com/block-integration-api/tutorial-webchat/cron"
	"github.com/block-integration-api/tutorial-webchat/database/repository"
	"github.com/block-integration-api/tutorial-webchat/handlers"
	"github.com/block-integration-api/tutorial-webchat/routes"
	"github.com/block-integration-api/tutorial-webchat/services/actions"
	"github.com/block-integration-api/tutorial-webchat/services/booking"
	"github.com/block-integration-api/tutorial-webchat/services/intelligence"
	"github.com/block-integration-api/tutorial-webchat/services/notification"
	"github.com/block-integration-api/tutorial-webchat/services/notifier"
	"github.com/block-integration-api/tutorial-webchat/services/poller"
	"github.com/block-integration-api/tutorial-webchat/services/tasks"
	"github.com/block-integration-api/tutorial-webchat/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Receipts.
	var (
		receipts     repository.ReceiptRepository
		redisClients []*redis.Client
	)
	if cfg.UsesRedisReceipts() {
		if err := utils.InitReceiptCache(rootCtx); err != nil {
			logger.Fatal("main: failed to connect receipt store", zap.Error(err))
		}
		receipts = repository.NewRedisReceiptRepo(utils.ReceiptCacheClient, cfg.ReceiptTTL)
		redisClients = append(redisClients, utils.ReceiptCacheClient)
	} else {
		receipts = repository.NewMemoryReceiptRepo(cfg.ReceiptTTL)
	}

	// Confirmation text.
	var composer intelligence.Composer = intelligence.TemplateComposer{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := intelligence.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("main: gemini unavailable, using template replies", zap.Error(err))
		} else {
			defer gemini.Close()
			composer = intelligence.NewGeminiComposer(gemini, logger.Named("composer"))
		}
	}

	// Appointment reminders.
	var (
		reminders   booking.ReminderScheduler
		reminderSrv *cron.ReminderWorker
		asynqClient *asynq.Client
	)
	if cfg.RemindersEnabled {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisReminderQueueDB,
		}
		asynqClient = asynq.NewClient(redisOpts)
		reminders = tasks.NewReminderScheduler(asynqClient, cfg.ReminderLeadTime, logger.Named("reminders"))

		reminderSrv = cron.NewReminderWorker(redisOpts, notification.NewLogReminderSender(logger.Named("reminders")), logger.Named("reminder-worker"))
		if err := reminderSrv.Start(rootCtx); err != nil {
			logger.Fatal("main: reminder worker failed to start", zap.Error(err))
		}

		if queueClient, err := utils.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisReminderQueueDB); err == nil {
			defer queueClient.Close()
			redisClients = append(redisClients, queueClient)
		} else {
			logger.Warn("main: reminder queue health client unavailable", zap.Error(err))
		}
	}

	// Core pipeline.
	registry := notifier.NewRegistry(
		notifier.WithTTL(cfg.ChannelTTL),
		notifier.WithSweepInterval(cfg.ChannelSweepInterval),
		notifier.WithLogger(logger.Named("notifier")),
	)
	registry.Start(rootCtx)

	actionsClient := actions.NewHTTPClient(cfg.ActionsAPIURL, cfg.ActionsAPIKey, cfg.ActionsHTTPTimeout, logger.Named("actions"))
	jobPoller := poller.New(actionsClient,
		poller.WithInterval(cfg.PollInterval),
		poller.WithMaxAttempts(cfg.PollMaxAttempts),
		poller.WithLogger(logger.Named("poller")),
	)

	bookingService := booking.NewDefaultBookingService(booking.Deps{
		Poller:    jobPoller,
		Notifier:  registry,
		Composer:  composer,
		Receipts:  receipts,
		Reminders: reminders,
		Logger:    logger.Named("booking"),
	}, booking.Settings{
		DefaultProvider: cfg.DefaultProvider,
		CloseGraceDelay: cfg.CloseGraceDelay,
	})

	utils.StartHealthMonitor(rootCtx, time.Minute, redisClients, func() map[string]int {
		return registry.Stats().AsMap()
	})

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		Booking:           handlers.NewBookingHandler(bookingService, registry, cfg.SSEKeepAlive, cfg.SSEBuffer),
		Health:            handlers.NewHealthHandler(registry.Stats),
		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
		RateLimitBurst:    cfg.RateLimitBurst,
	}
	routes.RegisterRoutes(router, handlerBundle, cfg.AllowedOrigins(), cfg.StaticDir)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// In-flight bookings close their streams first so open SSE responses can end.
	if err := bookingService.Shutdown(ctx); err != nil {
		logger.Warn("main: in-flight bookings cancelled", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	registry.Stop()
	if reminderSrv != nil {
		reminderSrv.Shutdown()
	}
	if asynqClient != nil {
		_ = asynqClient.Close()
	}
	if utils.ReceiptCacheClient != nil {
		_ = utils.ReceiptCacheClient.Close()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
