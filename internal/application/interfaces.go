package application

import (
	"context"
	"time"

	rabbitmqinfra "github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/redis"
)

// LockCoordinator は複数キー分散ロックの調停インターフェース
type LockCoordinator interface {
	// AcquireAll は全キーのロックを全取得または全不取得で試みる
	AcquireAll(ctx context.Context, keys []string, token string, ttl time.Duration) error
	// ReleaseAll はトークンが保持するキーのみを解放し、解放数を返す
	ReleaseAll(ctx context.Context, keys []string, token string) (int, error)
}

// ExpirationScheduler は期限切れジョブのスケジューリングインターフェース
type ExpirationScheduler interface {
	// Schedule は予約IDのジョブを指定時刻に登録する（再登録は上書き）
	Schedule(ctx context.Context, reservationID string, dueAt time.Time) error
	// Cancel は登録済みジョブを削除する（ベストエフォート）
	Cancel(ctx context.Context, reservationID string) (bool, error)
}

// SnapshotCache は予約スナップショットのキャッシュインターフェース
type SnapshotCache interface {
	Set(ctx context.Context, snapshot *redisinfra.ReservationSnapshot) error
	Get(ctx context.Context, reservationID string) (*redisinfra.ReservationSnapshot, error)
	Delete(ctx context.Context, reservationID string) error
}

// EventPublisher は予約ライフサイクルイベントの発行インターフェース
// 発行失敗は呼び出し元でログに留め、処理は中断しない
type EventPublisher interface {
	Publish(ctx context.Context, event *rabbitmqinfra.ReservationEvent) error
}
