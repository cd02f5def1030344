package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/sale"
)

type SaleHandler struct {
	service SaleServiceInterface
}

func NewSaleHandler(s SaleServiceInterface) *SaleHandler {
	return &SaleHandler{service: s}
}

type SaleResponse struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	Amount        int       `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSaleResponse(s *sale.Sale) SaleResponse {
	return SaleResponse{
		ID: s.ID, ReservationID: s.ReservationID, SessionID: s.SessionID,
		UserID: s.UserID, UserEmail: s.UserEmail,
		Amount: s.Amount, CreatedAt: s.CreatedAt,
	}
}

// GetByID godoc
// @Summary 販売記録を取得
// @Tags sales
// @Produce json
// @Param id path string true "販売ID"
// @Success 200 {object} SaleResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /sales/{id} [get]
func (h *SaleHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSale(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSaleResponse(s))
}

// ListMine godoc
// @Summary 自分の販売記録一覧を取得
// @Tags sales
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} SaleResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /sales [get]
func (h *SaleHandler) ListMine(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "X-User-IDヘッダーが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	sales, err := h.service.ListUserSales(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]SaleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toSaleResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}
