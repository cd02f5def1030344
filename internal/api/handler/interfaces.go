package handler

import (
	"context"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/sale"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Create(ctx context.Context, input application.CreateReservationInput) (*application.ReservationView, error)
	FindOne(ctx context.Context, id string) (*application.ReservationView, error)
	Confirm(ctx context.Context, id string) (*application.ReservationView, error)
	Cancel(ctx context.Context, id string) (*application.ReservationView, error)
	SweepExpired(ctx context.Context) (int, error)
}

// SessionServiceInterface は上映セッションサービスのインターフェース
type SessionServiceInterface interface {
	CreateSession(ctx context.Context, input application.CreateSessionInput) (*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*session.Session, error)
	GetSeats(ctx context.Context, sessionID string) ([]*seat.Seat, error)
	CountAvailableSeats(ctx context.Context, sessionID string) (int, error)
}

// SaleServiceInterface は販売記録サービスのインターフェース
type SaleServiceInterface interface {
	GetSale(ctx context.Context, id string) (*sale.Sale, error)
	ListUserSales(ctx context.Context, userID string, limit, offset int) ([]*sale.Sale, error)
}
