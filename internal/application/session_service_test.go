package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
)

func TestSessionService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("セッションと座席マップを作成する", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		seatRepo := new(MockSeatRepository)
		service := NewSessionService(sessionRepo, seatRepo)

		sessionRepo.On("Create", ctx, mock.AnythingOfType("*session.Session")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*session.Session).ID = "session-1"
			}).Return(nil)

		var created []*seat.Seat
		seatRepo.On("CreateBulk", ctx, mock.AnythingOfType("[]*seat.Seat")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).([]*seat.Seat)
			}).Return(nil)

		sess, err := service.CreateSession(ctx, CreateSessionInput{
			MovieName:   "千と千尋の神隠し",
			RoomNumber:  "1",
			StartTime:   time.Now().Add(24 * time.Hour),
			EndTime:     time.Now().Add(26 * time.Hour),
			TicketPrice: 1800,
			SeatNumbers: []string{"A-2", "A-1", "A-2"},
		})

		require.NoError(t, err)
		assert.Equal(t, "session-1", sess.ID)

		// 座席番号は重複除去・整列されてセッションに紐づく
		require.Len(t, created, 2)
		assert.Equal(t, "A-1", created[0].SeatNumber)
		assert.Equal(t, "A-2", created[1].SeatNumber)
		assert.Equal(t, "session-1", created[0].SessionID)
		assert.Equal(t, seat.StatusAvailable, created[0].Status)
	})

	t.Run("バリデーションエラーは作成前に弾かれる", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		seatRepo := new(MockSeatRepository)
		service := NewSessionService(sessionRepo, seatRepo)

		_, err := service.CreateSession(ctx, CreateSessionInput{
			MovieName:   "",
			RoomNumber:  "1",
			StartTime:   time.Now(),
			EndTime:     time.Now().Add(2 * time.Hour),
			TicketPrice: 1800,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, session.ErrMovieNameRequired)
		sessionRepo.AssertNotCalled(t, "Create")
	})

	t.Run("座席番号なしでも作成できる", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		seatRepo := new(MockSeatRepository)
		service := NewSessionService(sessionRepo, seatRepo)

		sessionRepo.On("Create", ctx, mock.AnythingOfType("*session.Session")).Return(nil)

		_, err := service.CreateSession(ctx, CreateSessionInput{
			MovieName:   "映画",
			RoomNumber:  "2",
			StartTime:   time.Now().Add(time.Hour),
			EndTime:     time.Now().Add(3 * time.Hour),
			TicketPrice: 1500,
		})

		require.NoError(t, err)
		seatRepo.AssertNotCalled(t, "CreateBulk")
	})
}

func TestSessionService_GetSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("存在しないセッションはNotFound", func(t *testing.T) {
		sessionRepo := new(MockSessionRepository)
		seatRepo := new(MockSeatRepository)
		service := NewSessionService(sessionRepo, seatRepo)

		sessionRepo.On("GetByID", ctx, "missing").
			Return(nil, &fault.NotFound{Entity: "session", ID: "missing"})

		_, err := service.GetSeats(ctx, "missing")

		require.Error(t, err)
		assert.True(t, fault.IsNotFound(err))
		seatRepo.AssertNotCalled(t, "GetBySessionID")
	})
}

func TestSessionService_ListSessions(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(MockSessionRepository)
	seatRepo := new(MockSeatRepository)
	service := NewSessionService(sessionRepo, seatRepo)

	// limit/offsetは正規化される
	sessionRepo.On("List", ctx, 20, 0).Return([]*session.Session{}, nil)

	_, err := service.ListSessions(ctx, -5, -10)
	require.NoError(t, err)
	sessionRepo.AssertExpectations(t)
}
