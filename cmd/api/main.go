package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/api"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-cinema-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer log.Sync() //nolint:errcheck

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis
	redisClient, err := redisinfra.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Redis接続に失敗しました", zap.Error(err))
	}
	defer redisClient.Close()

	lockCoordinator := redisinfra.NewLockCoordinator(redisClient)
	reservationCache := redisinfra.NewReservationCache(redisClient)
	delayQueue := redisinfra.NewDelayQueue(redisClient, cfg.Reservation.ExpirationWorker.MaxAttempts)

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	saleRepo := postgres.NewSaleRepository(db)

	// サービス
	deps := application.ReservationServiceDeps{
		TxManager:       txManager,
		ReservationRepo: reservationRepo,
		SeatRepo:        seatRepo,
		SessionRepo:     sessionRepo,
		SaleRepo:        saleRepo,
		Locks:           lockCoordinator,
		Scheduler:       delayQueue,
		Cache:           reservationCache,
		Metrics:         m,
	}

	// RabbitMQは任意依存（URL未設定ならイベント発行なしで動く）
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			log.Fatal("RabbitMQ接続に失敗しました", zap.Error(err))
		}
		defer publisher.Close()
		deps.Publisher = publisher
	} else {
		log.Info("RABBITMQ_URLが未設定のためイベント発行を無効化します")
	}

	reservationService := application.NewReservationService(deps, cfg.Reservation)
	sessionService := application.NewSessionService(sessionRepo, seatRepo)
	saleService := application.NewSaleService(saleRepo)

	// バックグラウンドワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Startは停止までブロックするポーリングループなのでgoroutineで起動する
	expirationWorker := worker.NewExpirationWorker(delayQueue, reservationService, cfg.Reservation.ExpirationWorker, m)
	go expirationWorker.Start(workerCtx)

	sweeper := worker.NewSweeper(reservationService, cfg.Reservation.SweepInterval)
	go sweeper.Start(workerCtx)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	registerRoutes(e, cfg, reservationService, sessionService, saleService)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	// 実行中のジョブを待ってからワーカーを止める
	expirationWorker.Stop()
	sweeper.Stop()
	workerCancel()

	log.Info("サーバーが正常にシャットダウンしました")
}

func registerRoutes(
	e *echo.Echo,
	cfg *config.Config,
	reservationService *application.ReservationService,
	sessionService *application.SessionService,
	saleService *application.SaleService,
) {
	healthHandler := handler.NewHealthHandler()
	reservationHandler := handler.NewReservationHandler(reservationService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	saleHandler := handler.NewSaleHandler(saleService)

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()),
		custommiddleware.MetricsBasicAuth(cfg.Server.MetricsUser, cfg.Server.MetricsPassword))

	v1 := e.Group("/api/v1")

	v1.POST("/sessions", sessionHandler.Create)
	v1.GET("/sessions", sessionHandler.List)
	v1.GET("/sessions/:id", sessionHandler.GetByID)
	v1.GET("/sessions/:id/seats", sessionHandler.Seats)
	v1.GET("/sessions/:id/availability", sessionHandler.Availability)

	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.POST("/reservations/:id/confirm", reservationHandler.Confirm)
	v1.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	v1.POST("/reservations/sweep", reservationHandler.Sweep)

	v1.GET("/sales", saleHandler.ListMine)
	v1.GET("/sales/:id", saleHandler.GetByID)
}
