package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
)

// SessionService は上映セッションと座席マップを管理する
type SessionService struct {
	sessionRepo session.Repository
	seatRepo    seat.Repository
}

func NewSessionService(sessionRepo session.Repository, seatRepo seat.Repository) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, seatRepo: seatRepo}
}

type CreateSessionInput struct {
	MovieName   string
	RoomNumber  string
	StartTime   time.Time
	EndTime     time.Time
	TicketPrice int
	SeatNumbers []string
}

// CreateSession はセッションと座席マップを作成する
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*session.Session, error) {
	sess := session.NewSession(input.MovieName, input.RoomNumber, input.StartTime, input.EndTime, input.TicketPrice)
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}

	if len(input.SeatNumbers) > 0 {
		seats := make([]*seat.Seat, 0, len(input.SeatNumbers))
		for _, number := range dedupeAndSort(input.SeatNumbers) {
			seats = append(seats, seat.NewSeat(sess.ID, number))
		}
		if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *SessionService) ListSessions(ctx context.Context, limit, offset int) ([]*session.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessionRepo.List(ctx, limit, offset)
}

// GetSeats はセッションの座席一覧を返す
// 存在しないセッションはfault.NotFoundになる
func (s *SessionService) GetSeats(ctx context.Context, sessionID string) ([]*seat.Seat, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.seatRepo.GetBySessionID(ctx, sessionID)
}

// CountAvailableSeats はセッションの空席数を返す
func (s *SessionService) CountAvailableSeats(ctx context.Context, sessionID string) (int, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return 0, err
	}
	return s.seatRepo.CountAvailableBySessionID(ctx, sessionID)
}
