package sale

import (
	"context"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/transaction"
)

// Repository は販売リポジトリのインターフェース
type Repository interface {
	// Create は新しい販売記録を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, sale *Sale) error

	// GetByID はIDから販売記録を取得する
	GetByID(ctx context.Context, id string) (*Sale, error)

	// GetByUserID はユーザーIDから販売記録一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Sale, error)
}
