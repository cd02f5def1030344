package session

import "errors"

// Session ドメインのエラー定義
var (
	ErrMovieNameRequired  = errors.New("作品名は必須です")
	ErrRoomNumberRequired = errors.New("スクリーン番号は必須です")
	ErrInvalidSessionTime = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrInvalidTicketPrice = errors.New("チケット価格は0以上である必要があります")
)
