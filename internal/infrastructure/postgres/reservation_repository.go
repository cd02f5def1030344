package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/transaction"
)

type reservationRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	UserEmail string    `db:"user_email"`
	Status    string    `db:"status"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, SessionID: r.SessionID,
		UserID: r.UserID, UserEmail: r.UserEmail,
		Status:    reservation.Status(r.Status),
		ExpiresAt: r.ExpiresAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const reservationColumns = `id, session_id, user_id, user_email, status, expires_at, created_at, updated_at`

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO reservations (session_id, user_id, user_email, status, expires_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		res.SessionID, res.UserID, res.UserEmail, string(res.Status), res.ExpiresAt, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &fault.NotFound{Entity: "reservation", ID: id}
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// UpdateStatusFromPending は pending の予約のみを条件付きUPDATEで遷移させる
// 影響行数が0なら既に別の状態であり、遷移は行われない
func (r *ReservationRepository) UpdateStatusFromPending(ctx context.Context, tx transaction.Tx, id string, next reservation.Status) (bool, error) {
	sqlxTx, err := unwrapTx(tx)
	if err != nil {
		return false, err
	}
	query := `UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'pending'`
	result, err := sqlxTx.ExecContext(ctx, query, string(next), id)
	if err != nil {
		return false, fmt.Errorf("予約状態更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	return rows > 0, nil
}

func (r *ReservationRepository) GetExpiredPending(ctx context.Context) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = 'pending' AND expires_at < NOW() ORDER BY expires_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("期限切れ予約取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
