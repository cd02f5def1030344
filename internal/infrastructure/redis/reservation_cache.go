package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// ReservationSnapshot はアクティブな予約のキャッシュ投影
// 残り秒数は保存せず、読み取り時に ExpiresAt から毎回再計算する
type ReservationSnapshot struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SeatIDs   []string  `json:"seat_ids"`
	UserEmail string    `json:"user_email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReservationCache は予約スナップショットのライトスルーキャッシュを管理する
// TTL = 予約の残り有効時間。自然消滅がスケジューラとは独立した安全網になる
type ReservationCache struct {
	client *redis.Client
}

// NewReservationCache は新しいReservationCacheインスタンスを作成する
func NewReservationCache(client *redis.Client) *ReservationCache {
	return &ReservationCache{client: client}
}

// Set は予約スナップショットを残り有効時間のTTL付きで保存する
// 残り時間が無い場合は保存しない
func (c *ReservationCache) Set(ctx context.Context, snapshot *ReservationSnapshot) error {
	ttl := time.Until(snapshot.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("スナップショットのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.key(snapshot.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Get は予約スナップショットをキャッシュから取得する
func (c *ReservationCache) Get(ctx context.Context, reservationID string) (*ReservationSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(reservationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var snapshot ReservationSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("スナップショットのデシリアライズに失敗: %w", err)
	}
	return &snapshot, nil
}

// Delete は予約のキャッシュエントリを削除する（確定・キャンセル・期限切れ時）
func (c *ReservationCache) Delete(ctx context.Context, reservationID string) error {
	if err := c.client.Del(ctx, c.key(reservationID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ削除に失敗: %w", err)
	}
	return nil
}

func (c *ReservationCache) key(reservationID string) string {
	return fmt.Sprintf("reservation:%s", reservationID)
}
