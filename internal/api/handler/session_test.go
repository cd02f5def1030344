package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
)

// MockSessionService はSessionServiceInterfaceのモック
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) CreateSession(ctx context.Context, input application.CreateSessionInput) (*session.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionService) ListSessions(ctx context.Context, limit, offset int) ([]*session.Session, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockSessionService) GetSeats(ctx context.Context, sessionID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSessionService) CountAvailableSeats(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func sampleSession() *session.Session {
	now := time.Now()
	return &session.Session{
		ID:          "session-123",
		MovieName:   "インターステラー",
		RoomNumber:  "7",
		StartTime:   now.Add(24 * time.Hour),
		EndTime:     now.Add(27 * time.Hour),
		TicketPrice: 1500,
		CreatedAt:   now,
	}
}

func TestSessionHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にセッションを作成できる", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("CreateSession", mock.Anything, mock.AnythingOfType("application.CreateSessionInput")).
			Return(sampleSession(), nil)

		handler := NewSessionHandler(mockService)

		reqBody := `{
			"movie_name": "インターステラー",
			"room_number": "7",
			"start_time": "2026-09-01T18:00:00Z",
			"end_time": "2026-09-01T21:00:00Z",
			"ticket_price": 1500,
			"seat_numbers": ["A-1", "A-2"]
		}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp SessionResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "session-123", resp.ID)
		assert.Equal(t, 1500, resp.TicketPrice)
		mockService.AssertExpectations(t)
	})

	t.Run("作品名がない場合はバリデーションエラー", func(t *testing.T) {
		mockService := new(MockSessionService)
		handler := NewSessionHandler(mockService)

		reqBody := `{"room_number": "7", "start_time": "2026-09-01T18:00:00Z", "end_time": "2026-09-01T21:00:00Z", "ticket_price": 1500}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		serveError(t, handler.Create(c), c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateSession")
	})
}

func TestSessionHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("存在しないセッションの場合は404を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("GetSession", mock.Anything, "missing").
			Return(nil, &fault.NotFound{Entity: "セッション", ID: "missing"})

		handler := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		serveError(t, handler.GetByID(c), c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSessionHandler_List(t *testing.T) {
	e := NewTestEcho()

	t.Run("クエリパラメータがサービスへ渡される", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("ListSessions", mock.Anything, 5, 10).
			Return([]*session.Session{sampleSession()}, nil)

		handler := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions?limit=5&offset=10", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.List(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []SessionResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Len(t, resp, 1)
		mockService.AssertExpectations(t)
	})
}

func TestSessionHandler_Seats(t *testing.T) {
	e := NewTestEcho()

	t.Run("座席一覧を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("GetSeats", mock.Anything, "session-123").
			Return([]*seat.Seat{
				{ID: "seat-1", SessionID: "session-123", SeatNumber: "A-1", Status: seat.StatusAvailable},
				{ID: "seat-2", SessionID: "session-123", SeatNumber: "A-2", Status: seat.StatusReserved},
			}, nil)

		handler := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/session-123/seats", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("session-123")

		err := handler.Seats(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []SeatResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		require.Len(t, resp, 2)
		assert.Equal(t, "reserved", resp[1].Status)
	})
}

func TestSessionHandler_Availability(t *testing.T) {
	e := NewTestEcho()

	t.Run("空席数を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("CountAvailableSeats", mock.Anything, "session-123").Return(42, nil)

		handler := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/session-123/availability", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("session-123")

		err := handler.Availability(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]int
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, 42, resp["available"])
	})
}
