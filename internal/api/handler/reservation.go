package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/application"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	SessionID string   `json:"session_id" validate:"required"`
	UserEmail string   `json:"user_email" validate:"required,email"`
	SeatIDs   []string `json:"seat_ids" validate:"required,min=1"`
}

type ReservationResponse struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	UserEmail        string    `json:"user_email"`
	Status           string    `json:"status"`
	SeatNumbers      []string  `json:"seat_numbers"`
	RemainingSeconds int       `json:"remaining_seconds"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func toReservationResponse(v *application.ReservationView) ReservationResponse {
	return ReservationResponse{
		ID: v.ID, SessionID: v.SessionID,
		UserID: v.UserID, UserEmail: v.UserEmail,
		Status: v.Status, SeatNumbers: v.SeatNumbers,
		RemainingSeconds: v.RemainingSeconds,
		ExpiresAt:        v.ExpiresAt, CreatedAt: v.CreatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 座席を仮押さえします（30秒間有効）
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "座席が他の予約処理中"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	view, err := h.service.Create(c.Request().Context(), application.CreateReservationInput{
		SessionID: req.SessionID,
		UserID:    userID,
		UserEmail: req.UserEmail,
		SeatIDs:   req.SeatIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReservationResponse(view))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します（残り秒数は読み取り時点で再計算）
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	view, err := h.service.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(view))
}

// Confirm godoc
// @Summary 予約を確定
// @Description 仮押さえ中の予約を確定し、販売記録を作成します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse "保留中以外の予約"
// @Failure 404 {object} api.ErrorResponse
// @Failure 410 {object} api.ErrorResponse "期限切れ"
// @Router /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c echo.Context) error {
	view, err := h.service.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(view))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、座席を解放します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	view, err := h.service.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(view))
}

// Sweep godoc
// @Summary 期限切れ予約を即時回収
// @Description 期限切れの保留中予約を走査して失効させます（定期スイープの手動実行）
// @Tags reservations
// @Produce json
// @Success 200 {object} map[string]int
// @Router /reservations/sweep [post]
func (h *ReservationHandler) Sweep(c echo.Context) error {
	count, err := h.service.SweepExpired(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"expired": count})
}
