package seat

import "time"

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// Seat は座席エンティティを表す
// status が reserved/sold のとき ReservationID は必ず非nil（ストア側の不変条件）
type Seat struct {
	ID            string
	SessionID     string
	SeatNumber    string
	Status        Status
	ReservationID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSeat は新しい座席を作成する
func NewSeat(sessionID, seatNumber string) *Seat {
	now := time.Now()
	return &Seat{
		SessionID:  sessionID,
		SeatNumber: seatNumber,
		Status:     StatusAvailable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsAvailable は座席が予約可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.SessionID == "" {
		return ErrSessionIDRequired
	}
	if s.SeatNumber == "" {
		return ErrSeatNumberRequired
	}
	return nil
}
