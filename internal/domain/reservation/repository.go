package reservation

import (
	"context"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// UpdateStatusFromPending は pending の予約のみを指定状態へ遷移させる
	// 条件付きUPDATEにより check-then-write の競合を排除する
	// 遷移できた場合は true、既に pending でなかった場合は false を返す
	UpdateStatusFromPending(ctx context.Context, tx transaction.Tx, id string, next Status) (bool, error)

	// GetExpiredPending は有効期限を過ぎた保留中予約の一覧を取得する
	GetExpiredPending(ctx context.Context) ([]*Reservation, error)
}
