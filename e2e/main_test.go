package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/api"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/api/handler"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/redis"
)

var (
	testServer  *TestServer
	testDB      *sqlx.DB
	redisClient *redis.Client
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// TestMain はE2Eテストのエントリポイント
// パッケージ全体で1回だけサーバーを組み立てることで高速化
func TestMain(m *testing.M) {
	cfg := config.Load()

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0) // DB未起動時はスキップ
	}
	testDB = db

	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		os.Exit(0)
	}

	// Redis接続
	rc, err := redisinfra.NewClient(&cfg.Redis)
	if err != nil {
		db.Close()
		os.Exit(0) // Redis未起動時はスキップ
	}
	redisClient = rc

	// サービス初期化（イベント発行はE2Eでは無効）
	lockCoordinator := redisinfra.NewLockCoordinator(redisClient)
	reservationCache := redisinfra.NewReservationCache(redisClient)
	delayQueue := redisinfra.NewDelayQueue(redisClient, cfg.Reservation.ExpirationWorker.MaxAttempts)

	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	saleRepo := postgres.NewSaleRepository(db)

	reservationService := application.NewReservationService(application.ReservationServiceDeps{
		TxManager:       txManager,
		ReservationRepo: reservationRepo,
		SeatRepo:        seatRepo,
		SessionRepo:     sessionRepo,
		SaleRepo:        saleRepo,
		Locks:           lockCoordinator,
		Scheduler:       delayQueue,
		Cache:           reservationCache,
	}, cfg.Reservation)
	sessionService := application.NewSessionService(sessionRepo, seatRepo)
	saleService := application.NewSaleService(saleRepo)

	reservationHandler := handler.NewReservationHandler(reservationService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	saleHandler := handler.NewSaleHandler(saleService)
	healthHandler := handler.NewHealthHandler()

	// Echo セットアップ
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	middleware.SetupMiddleware(e)

	e.GET("/health", healthHandler.Check)

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

	testServer = &TestServer{Echo: e}

	// テスト実行
	code := m.Run()

	// 最終クリーンアップ
	cleanupState()
	redisClient.Close()
	db.Close()

	os.Exit(code)
}

// cleanupState はテーブルとRedisのテスト残骸を掃除する
func cleanupState() {
	testDB.Exec("TRUNCATE TABLE sales, seats, reservations, sessions RESTART IDENTITY CASCADE")

	ctx := context.Background()
	for _, pattern := range []string{"reservation:*", "lock:session:*"} {
		keys, err := redisClient.Keys(ctx, pattern).Result()
		if err == nil && len(keys) > 0 {
			redisClient.Del(ctx, keys...)
		}
	}
}

// getTestServer は共有サーバーを取得（テスト前に状態をクリーンアップ）
func getTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testServer == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupState()
	return testServer
}
