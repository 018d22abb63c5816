package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"postcare/common/database"
	logpkg "postcare/common/logger"
	mqttcommon "postcare/common/mqtt"
	rediscommon "postcare/common/redis"
	"postcare/internal/config"
	"postcare/internal/consumer"
	httpapi "postcare/internal/http"
	"postcare/internal/publisher"
	"postcare/internal/repository"
	"postcare/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logpkg.New(cfg.Log, "postcare")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting postcare service", zap.String("timezone", cfg.Timezone))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		if err := repository.ApplySchema(ctx, db); err != nil {
			log.Fatal("Failed to apply schema", zap.Error(err))
		}
		log.Info("Database schema applied")
	}

	// Redis
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr))
	}
	defer rediscommon.Close(redisClient)

	// MQTT（可选）
	var mqttPublisher consumer.MQTTPublisher
	if cfg.MQTT.Enabled() {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Fatal("Failed to connect to mqtt broker", zap.Error(err), zap.String("broker", cfg.MQTT.Broker))
		}
		defer mqttClient.Disconnect()
		mqttPublisher = mqttClient
	}

	var webhook consumer.WebhookSender
	if cfg.Alert.WebhookURL != "" {
		webhook = publisher.NewWebhookNotifier(cfg.Alert.WebhookURL, cfg.Alert.WebhookTimeout, log)
	}

	// 仓库
	usersRepo := repository.NewPostgresUsersRepository(db)
	plansRepo := repository.NewPostgresTreatmentPlansRepository(db)
	checkInsRepo := repository.NewPostgresCheckInsRepository(db)
	alertsRepo := repository.NewPostgresAlertsRepository(db)
	convRepo := repository.NewPostgresConversationsRepository(db)

	// 服务
	alertPublisher := publisher.NewAlertPublisher(redisClient, cfg.Alert.Stream, log)
	chatService := service.NewChatService(convRepo, log)
	alertService := service.NewAlertService(alertsRepo, usersRepo, chatService, alertPublisher, log)
	checkInService := service.NewCheckInService(checkInsRepo, plansRepo, usersRepo, alertService, chatService, cfg.Location, log)
	treatmentService := service.NewTreatmentService(plansRepo, usersRepo, chatService, log)

	notificationCache := consumer.NewNotificationCache(cfg, redisClient, log)

	// 路由
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, redisClient, log))
	if cfg.MetricsEnabled {
		router.RegisterMetricsRoutes()
	}
	router.RegisterCheckInRoutes(httpapi.NewCheckInHandler(checkInService, log))
	router.RegisterTreatmentRoutes(httpapi.NewTreatmentHandler(treatmentService, chatService, log))
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(alertService, log))
	router.RegisterNotificationRoutes(httpapi.NewNotificationHandler(notificationCache, log))
	router.RegisterRiskRoutes(httpapi.NewRiskHandler(checkInService, log))

	srv := service.NewServer(cfg.HTTP.Addr, router.Handler(cfg.MetricsEnabled), log)

	errChan := make(chan error, 3)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	dispatcher := consumer.NewAlertDispatcher(cfg, redisClient, notificationCache, mqttPublisher, webhook, log)
	go func() {
		if err := dispatcher.Start(ctx); err != nil {
			errChan <- fmt.Errorf("alert dispatcher: %w", err)
		}
	}()

	if cfg.Sweep.Enabled {
		sweeper := consumer.NewMissedCheckInSweeper(cfg, plansRepo, checkInsRepo, alertService, log)
		go func() {
			if err := sweeper.Start(ctx); err != nil {
				errChan <- fmt.Errorf("missed check-in sweeper: %w", err)
			}
		}()
	}

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("Service error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping http server", zap.Error(err))
	}

	log.Info("Service stopped")
}
