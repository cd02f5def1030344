package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション設定を表す
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	Reservation ReservationConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MetricsUser     string
	MetricsPassword string
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RabbitMQConfig はRabbitMQ設定（URLが空の場合はイベント発行を無効化）
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// ReservationConfig は予約ライフサイクル設定
type ReservationConfig struct {
	TTL              time.Duration // 予約の有効期限（仮押さえの保持時間）
	LockTTL          time.Duration // 分散ロックの有効期限（クラッシュ時の安全上限）
	SweepInterval    time.Duration // 期限切れ予約スイープの実行間隔
	ExpirationWorker ExpirationWorkerConfig
}

// ExpirationWorkerConfig は期限切れジョブワーカー設定
type ExpirationWorkerConfig struct {
	Concurrency  int           // 同時実行数の上限
	PollInterval time.Duration // キューのポーリング間隔
	MaxAttempts  int           // リトライ試行回数の上限
}

// Load は.envと環境変数から設定を読み込む
func Load() *Config {
	// .envが無い場合は環境変数のみ使用
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),

			MetricsUser:     getEnv("METRICS_USER", ""),
			MetricsPassword: getEnv("METRICS_PASSWORD", ""),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "cinema_reservation"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "reservation.events"),
		},
		Reservation: ReservationConfig{
			TTL:           getDurationEnv("RESERVATION_TTL", 30*time.Second),
			LockTTL:       getDurationEnv("LOCK_TTL", 10*time.Second),
			SweepInterval: getDurationEnv("SWEEP_INTERVAL", 15*time.Second),
			ExpirationWorker: ExpirationWorkerConfig{
				Concurrency:  getIntEnv("EXPIRATION_WORKERS", 5),
				PollInterval: getDurationEnv("EXPIRATION_POLL_INTERVAL", time.Second),
				MaxAttempts:  getIntEnv("EXPIRATION_MAX_ATTEMPTS", 5),
			},
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
