package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotAvailable   = errors.New("座席は予約できません")
	ErrSeatIDsRequired    = errors.New("座席IDは1つ以上指定してください")
	ErrSeatNotReserved    = errors.New("座席は仮押さえされていません")
	ErrSessionIDRequired  = errors.New("セッションIDは必須です")
	ErrSeatNumberRequired = errors.New("座席番号は必須です")
)
