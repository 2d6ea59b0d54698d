package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/config"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/db"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/goroutine"
	httpHandlers "github.com/Stanzin7/USVisaBridge-sub000/internal/http/handlers"
	httpRouter "github.com/Stanzin7/USVisaBridge-sub000/internal/http/router"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/logger"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/notify"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/repository"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/scheduler"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/storage"
	"github.com/Stanzin7/USVisaBridge-sub000/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	screenshotStorage, err := storage.NewScreenshotStorage(cfg.ScreenshotStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	reportRepo := repository.NewReportRepository(dbConn)
	preferenceRepo := repository.NewPreferenceRepository(dbConn)
	alertRepo := repository.NewAlertRepository(dbConn)
	verificationRepo := repository.NewVerificationRepository(dbConn)
	profileRepo := repository.NewProfileRepository(dbConn)

	// Вебсокеты — транспорт push-канала.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)

	// Каналы доставки. SMS шлюза нет: канал не регистрируется, попытки
	// доставки по нему детерминированно фиксируются как failed.
	senders := notify.NewRegistry()
	senders.Register(models.ChannelEmail, notify.NewEmailSender(cfg.EmailFrom))
	senders.Register(models.ChannelPush, notify.NewPushSender(hub))

	// Сервисы.
	reportService := service.NewReportService(reportRepo, verificationRepo, cfg.AutoVerifyThreshold, cfg.RetentionPeriod)
	moderationService := service.NewModerationService(reportRepo, verificationRepo)
	preferenceService := service.NewPreferenceService(preferenceRepo)
	alertService := service.NewAlertService(reportRepo, preferenceRepo, profileRepo, alertRepo, senders, cfg.DispatchLookback)
	purgeService := service.NewPurgeService(reportRepo, screenshotStorage)

	// Планировщик sweep'ов.
	sched := scheduler.New(alertService, purgeService)
	if err := sched.Start(cfg.DispatchCron, cfg.PurgeCron); err != nil {
		log.Fatalf("main: не удалось запустить планировщик: %v", err)
	}
	defer sched.Stop()

	// HTTP хэндлеры.
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	reportHandler := httpHandlers.NewReportHandler(reportService, screenshotStorage)
	preferenceHandler := httpHandlers.NewPreferenceHandler(preferenceService)
	profileHandler := httpHandlers.NewProfileHandler(profileRepo)
	adminHandler := httpHandlers.NewAdminHandler(moderationService, reportService, alertRepo, purgeService)
	sweepHandler := httpHandlers.NewSweepHandler(alertService, purgeService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, healthHandler, reportHandler, preferenceHandler,
		profileHandler, adminHandler, sweepHandler, wsHandler, tokenManager, profileRepo)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
