package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/sale"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/transaction"
)

type saleRow struct {
	ID            string    `db:"id"`
	ReservationID string    `db:"reservation_id"`
	SessionID     string    `db:"session_id"`
	UserID        string    `db:"user_id"`
	UserEmail     string    `db:"user_email"`
	Amount        int       `db:"amount"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *saleRow) toEntity() *sale.Sale {
	return &sale.Sale{
		ID: r.ID, ReservationID: r.ReservationID, SessionID: r.SessionID,
		UserID: r.UserID, UserEmail: r.UserEmail,
		Amount: r.Amount, CreatedAt: r.CreatedAt,
	}
}

type SaleRepository struct{ db *sqlx.DB }

func NewSaleRepository(db *sqlx.DB) *SaleRepository { return &SaleRepository{db: db} }

func (r *SaleRepository) Create(ctx context.Context, tx transaction.Tx, s *sale.Sale) error {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO sales (reservation_id, session_id, user_id, user_email, amount, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		s.ReservationID, s.SessionID, s.UserID, s.UserEmail, s.Amount, s.CreatedAt,
	).Scan(&s.ID); err != nil {
		return fmt.Errorf("販売記録作成に失敗: %w", err)
	}
	return nil
}

func (r *SaleRepository) GetByID(ctx context.Context, id string) (*sale.Sale, error) {
	var row saleRow
	query := `SELECT id, reservation_id, session_id, user_id, user_email, amount, created_at FROM sales WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &fault.NotFound{Entity: "sale", ID: id}
		}
		return nil, fmt.Errorf("販売記録取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SaleRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*sale.Sale, error) {
	var rows []saleRow
	query := `SELECT id, reservation_id, session_id, user_id, user_email, amount, created_at FROM sales WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("販売記録一覧取得に失敗: %w", err)
	}
	result := make([]*sale.Sale, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ sale.Repository = (*SaleRepository)(nil)
