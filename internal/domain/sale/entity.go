package sale

import "time"

// Sale は確定済み予約から生成される販売記録を表す
// 作成後は不変
type Sale struct {
	ID            string
	ReservationID string
	SessionID     string
	UserID        string
	UserEmail     string
	Amount        int // チケット単価 × 座席数
	CreatedAt     time.Time
}

// NewSale は新しい販売記録を作成する
func NewSale(reservationID, sessionID, userID, userEmail string, ticketPrice, seatCount int) *Sale {
	return &Sale{
		ReservationID: reservationID,
		SessionID:     sessionID,
		UserID:        userID,
		UserEmail:     userEmail,
		Amount:        ticketPrice * seatCount,
		CreatedAt:     time.Now(),
	}
}

// Validate は販売記録の検証を行う
func (s *Sale) Validate() error {
	if s.ReservationID == "" {
		return ErrReservationIDRequired
	}
	if s.SessionID == "" {
		return ErrSessionIDRequired
	}
	if s.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
