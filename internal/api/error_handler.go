package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      int      `json:"code,omitempty"`
	Offending []string `json:"offending_ids,omitempty"`
}

// CustomHTTPErrorHandler はドメインエラーをHTTPステータスへ写像する
// ハンドラーはサービスのエラーをそのまま返せばよい
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, body := classify(err)

	// 5xxはサーバー側の問題としてログに残す
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, body); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func classify(err error) (int, ErrorResponse) {
	var (
		notFound     *fault.NotFound
		invalidState *fault.InvalidState
		conflict     *fault.Conflict
		expired      *fault.Expired
		infra        *fault.Infrastructure
		httpErr      *echo.HTTPError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorResponse{Error: notFound.Error(), Code: http.StatusNotFound}
	case errors.As(err, &invalidState):
		return http.StatusBadRequest, ErrorResponse{Error: invalidState.Error(), Code: http.StatusBadRequest}
	case errors.As(err, &conflict):
		return http.StatusConflict, ErrorResponse{
			Error: conflict.Reason, Code: http.StatusConflict, Offending: conflict.OffendingIDs,
		}
	case errors.As(err, &expired):
		return http.StatusGone, ErrorResponse{Error: expired.Error(), Code: http.StatusGone}
	case errors.As(err, &infra):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: "依存サービスに到達できません", Code: http.StatusServiceUnavailable,
		}
	case errors.As(err, &httpErr):
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
		return httpErr.Code, ErrorResponse{Error: message, Code: httpErr.Code}
	case isValidationError(err):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: http.StatusBadRequest}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "内部サーバーエラー", Code: http.StatusInternalServerError}
	}
}

// ドメインのバリデーションセンチネルは入力不備として400になる
var validationErrors = []error{
	seat.ErrSeatIDsRequired,
	seat.ErrSessionIDRequired,
	seat.ErrSeatNumberRequired,
	reservation.ErrSessionIDRequired,
	reservation.ErrUserIDRequired,
	reservation.ErrUserEmailRequired,
	session.ErrMovieNameRequired,
	session.ErrRoomNumberRequired,
	session.ErrInvalidSessionTime,
	session.ErrInvalidTicketPrice,
}

func isValidationError(err error) bool {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
