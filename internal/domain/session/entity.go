package session

import "time"

// Session は上映セッションエンティティを表す
type Session struct {
	ID          string
	MovieName   string
	RoomNumber  string
	StartTime   time.Time
	EndTime     time.Time
	TicketPrice int // 最小通貨単位
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSession は新しい上映セッションを作成する
func NewSession(movieName, roomNumber string, startTime, endTime time.Time, ticketPrice int) *Session {
	now := time.Now()
	return &Session{
		MovieName:   movieName,
		RoomNumber:  roomNumber,
		StartTime:   startTime,
		EndTime:     endTime,
		TicketPrice: ticketPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate はセッションの検証を行う
func (s *Session) Validate() error {
	if s.MovieName == "" {
		return ErrMovieNameRequired
	}
	if s.RoomNumber == "" {
		return ErrRoomNumberRequired
	}
	if s.EndTime.Before(s.StartTime) {
		return ErrInvalidSessionTime
	}
	if s.TicketPrice < 0 {
		return ErrInvalidTicketPrice
	}
	return nil
}
