package seat

import (
	"context"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByIDs はID集合から座席一覧を取得する
	GetByIDs(ctx context.Context, ids []string) ([]*Seat, error)

	// GetBySessionID はセッションIDから座席一覧を取得する
	GetBySessionID(ctx context.Context, sessionID string) ([]*Seat, error)

	// GetByReservationID は予約に紐づく座席一覧を取得する
	GetByReservationID(ctx context.Context, reservationID string) ([]*Seat, error)

	// ReserveSeats は座席を仮押さえ状態に更新する（トランザクション必須）
	// available以外の座席が混ざっていた場合は全件失敗する
	ReserveSeats(ctx context.Context, tx transaction.Tx, seatIDs []string, reservationID string) error

	// MarkSold は座席を販売済み状態に更新する（トランザクション必須）
	MarkSold(ctx context.Context, tx transaction.Tx, seatIDs []string) error

	// ReleaseSeats は座席を解放する（トランザクション必須）
	ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error

	// CountAvailableBySessionID はセッションの空席数を取得する
	CountAvailableBySessionID(ctx context.Context, sessionID string) (int, error)
}
