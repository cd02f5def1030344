package sale

import "errors"

// Sale ドメインのエラー定義
var (
	ErrReservationIDRequired = errors.New("予約IDは必須です")
	ErrSessionIDRequired     = errors.New("セッションIDは必須です")
	ErrInvalidAmount         = errors.New("金額は0以上である必要があります")
)
