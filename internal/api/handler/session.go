package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
)

type SessionHandler struct {
	service SessionServiceInterface
}

func NewSessionHandler(s SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: s}
}

type CreateSessionRequest struct {
	MovieName   string    `json:"movie_name" validate:"required"`
	RoomNumber  string    `json:"room_number" validate:"required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	TicketPrice int       `json:"ticket_price" validate:"gte=0"`
	SeatNumbers []string  `json:"seat_numbers"`
}

type SessionResponse struct {
	ID          string    `json:"id"`
	MovieName   string    `json:"movie_name"`
	RoomNumber  string    `json:"room_number"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	TicketPrice int       `json:"ticket_price"`
	CreatedAt   time.Time `json:"created_at"`
}

type SeatResponse struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"session_id"`
	SeatNumber    string  `json:"seat_number"`
	Status        string  `json:"status"`
	ReservationID *string `json:"reservation_id,omitempty"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID: s.ID, MovieName: s.MovieName, RoomNumber: s.RoomNumber,
		StartTime: s.StartTime, EndTime: s.EndTime,
		TicketPrice: s.TicketPrice, CreatedAt: s.CreatedAt,
	}
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		ID: s.ID, SessionID: s.SessionID, SeatNumber: s.SeatNumber,
		Status: string(s.Status), ReservationID: s.ReservationID,
	}
}

// Create godoc
// @Summary 上映セッションを作成
// @Description セッションと座席マップを作成します
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "セッション情報"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) Create(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sess, err := h.service.CreateSession(c.Request().Context(), application.CreateSessionInput{
		MovieName:   req.MovieName,
		RoomNumber:  req.RoomNumber,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TicketPrice: req.TicketPrice,
		SeatNumbers: req.SeatNumbers,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(sess))
}

// GetByID godoc
// @Summary セッションを取得
// @Tags sessions
// @Produce json
// @Param id path string true "セッションID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetByID(c echo.Context) error {
	sess, err := h.service.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// List godoc
// @Summary セッション一覧を取得
// @Tags sessions
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} SessionResponse
// @Router /sessions [get]
func (h *SessionHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	sessions, err := h.service.ListSessions(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = toSessionResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// Seats godoc
// @Summary セッションの座席一覧を取得
// @Tags sessions
// @Produce json
// @Param id path string true "セッションID"
// @Success 200 {array} SeatResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /sessions/{id}/seats [get]
func (h *SessionHandler) Seats(c echo.Context) error {
	seats, err := h.service.GetSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// Availability godoc
// @Summary セッションの空席数を取得
// @Tags sessions
// @Produce json
// @Param id path string true "セッションID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} api.ErrorResponse
// @Router /sessions/{id}/availability [get]
func (h *SessionHandler) Availability(c echo.Context) error {
	count, err := h.service.CountAvailableSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"available": count})
}
