package reservation

import (
	"time"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
)

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// IsTerminal は遷移不可能な終端状態かを返す
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusExpired
}

// Reservation は予約エンティティを表す
// pending からのみ confirmed / cancelled / expired へ遷移できる
type Reservation struct {
	ID        string
	SessionID string
	UserID    string
	UserEmail string
	Status    Status
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation は新しい保留中予約を作成する（有効期限 = 現在時刻 + ttl）
func NewReservation(sessionID, userID, userEmail string, ttl time.Duration) *Reservation {
	now := time.Now()
	return &Reservation{
		SessionID: sessionID,
		UserID:    userID,
		UserEmail: userEmail,
		Status:    StatusPending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPending は予約が保留中かを返す
func (r *Reservation) IsPending() bool {
	return r.Status == StatusPending
}

// IsExpired は有効期限を過ぎているかを返す
func (r *Reservation) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// RemainingSeconds は残り有効秒数を返す（壁時計から毎回再計算、負にはならない）
func (r *Reservation) RemainingSeconds() int {
	remaining := time.Until(r.ExpiresAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Confirm は予約を確定する
// 期限切れの場合は fault.Expired を返す（呼び出し側で expired への永続化が必要）
func (r *Reservation) Confirm() error {
	if r.Status != StatusPending {
		return &fault.InvalidState{
			Entity: "reservation", ID: r.ID,
			CurrentStatus: string(r.Status), AttemptedAction: "confirm",
		}
	}
	if r.IsExpired() {
		return &fault.Expired{ID: r.ID}
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
func (r *Reservation) Cancel() error {
	if r.Status != StatusPending {
		return &fault.InvalidState{
			Entity: "reservation", ID: r.ID,
			CurrentStatus: string(r.Status), AttemptedAction: "cancel",
		}
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// Expire は予約を期限切れにする（スケジューラ／スイープ専用の遷移）
func (r *Reservation) Expire() error {
	if r.Status != StatusPending {
		return &fault.InvalidState{
			Entity: "reservation", ID: r.ID,
			CurrentStatus: string(r.Status), AttemptedAction: "expire",
		}
	}
	if !r.IsExpired() {
		return ErrNotYetExpired
	}
	r.Status = StatusExpired
	r.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.SessionID == "" {
		return ErrSessionIDRequired
	}
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.UserEmail == "" {
		return ErrUserEmailRequired
	}
	return nil
}
