package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrNotYetExpired     = errors.New("予約はまだ有効期限内です")
	ErrSessionIDRequired = errors.New("セッションIDは必須です")
	ErrUserIDRequired    = errors.New("ユーザーIDは必須です")
	ErrUserEmailRequired = errors.New("メールアドレスは必須です")
)
