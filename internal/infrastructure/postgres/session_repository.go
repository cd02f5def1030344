package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
)

// sessionRow はDBの行を表す構造体
type sessionRow struct {
	ID          string    `db:"id"`
	MovieName   string    `db:"movie_name"`
	RoomNumber  string    `db:"room_number"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	TicketPrice int       `db:"ticket_price"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// toEntity はsessionRowをSessionエンティティに変換する
func (r *sessionRow) toEntity() *session.Session {
	return &session.Session{
		ID:          r.ID,
		MovieName:   r.MovieName,
		RoomNumber:  r.RoomNumber,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		TicketPrice: r.TicketPrice,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SessionRepository は上映セッションリポジトリのPostgreSQL実装
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository はSessionRepositoryを作成する
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create は新しい上映セッションを作成する
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions (movie_name, room_number, start_time, end_time, ticket_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		s.MovieName, s.RoomNumber, s.StartTime, s.EndTime, s.TicketPrice, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("セッション作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから上映セッションを取得する
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	query := `SELECT id, movie_name, room_number, start_time, end_time, ticket_price, created_at, updated_at FROM sessions WHERE id = $1`

	var row sessionRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &fault.NotFound{Entity: "session", ID: id}
		}
		return nil, fmt.Errorf("セッション取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は上映セッション一覧を取得する
func (r *SessionRepository) List(ctx context.Context, limit, offset int) ([]*session.Session, error) {
	query := `
		SELECT id, movie_name, room_number, start_time, end_time, ticket_price, created_at, updated_at
		FROM sessions
		ORDER BY start_time DESC
		LIMIT $1 OFFSET $2
	`

	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧取得に失敗しました: %w", err)
	}

	sessions := make([]*session.Session, len(rows))
	for i, row := range rows {
		sessions[i] = row.toEntity()
	}
	return sessions, nil
}

// インターフェースを満たしているか確認
var _ session.Repository = (*SessionRepository)(nil)
