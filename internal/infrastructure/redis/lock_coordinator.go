package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContentionError は他の呼び出し元がロックを保持していたことを表す
// 競合は正常な結果でありインフラ障害とは区別される
type ContentionError struct {
	BlockedKey string
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("ロックが取得できませんでした（保持中のキー: %s）", e.BlockedKey)
}

// acquireAllScript は全キーを1回のアトミックな実行で取得する
// 途中で失敗した場合はそれまでに取得したキーを巻き戻し、失敗キーを返す
// スクリプト全体がRedis上でアトミックに実行されるため、他の操作が
// SETの合間に割り込むことはない
var acquireAllScript = redis.NewScript(`
local token = ARGV[1]
local ttl = tonumber(ARGV[2])
for i, key in ipairs(KEYS) do
	local ok = redis.call('SET', key, token, 'PX', ttl, 'NX')
	if not ok then
		for j = 1, i - 1 do
			if redis.call('GET', KEYS[j]) == token then
				redis.call('DEL', KEYS[j])
			end
		end
		return {0, key}
	end
end
return {1, ''}
`)

// releaseAllScript はトークンが一致するキーのみを削除し、削除数を返す
// TTL失効後に他の呼び出し元が再取得したキーには触れない
var releaseAllScript = redis.NewScript(`
local token = ARGV[1]
local released = 0
for i, key in ipairs(KEYS) do
	if redis.call('GET', key) == token then
		released = released + redis.call('DEL', key)
	end
end
return released
`)

// LockCoordinator はRedis上の複数キー分散ロックを調停する
// 呼び出し元はキーを決定的な全順序（辞書順）でソートして渡すこと。
// 全員が同じ順序で取得を試みるため循環待ちが発生しない
type LockCoordinator struct {
	client *redis.Client
}

// NewLockCoordinator は新しいLockCoordinatorを作成する
func NewLockCoordinator(client *redis.Client) *LockCoordinator {
	return &LockCoordinator{client: client}
}

// AcquireAll は全キーのロックを全取得または全不取得で試みる
// 競合時は *ContentionError、Redis到達不能時はラップ済みエラーを返す
func (c *LockCoordinator) AcquireAll(ctx context.Context, keys []string, token string, ttl time.Duration) error {
	if len(keys) == 0 {
		return nil
	}

	result, err := acquireAllScript.Run(ctx, c.client, keys, token, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("ロック一括取得に失敗: %w", err)
	}

	reply, ok := result.([]interface{})
	if !ok || len(reply) != 2 {
		return fmt.Errorf("ロックスクリプトの応答が不正です: %v", result)
	}
	if acquired, _ := reply[0].(int64); acquired == 1 {
		return nil
	}
	blocked, _ := reply[1].(string)
	return &ContentionError{BlockedKey: blocked}
}

// ReleaseAll はこのトークンが保持するキーのみを解放し、解放数を返す
func (c *LockCoordinator) ReleaseAll(ctx context.Context, keys []string, token string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	released, err := releaseAllScript.Run(ctx, c.client, keys, token).Int()
	if err != nil {
		return 0, fmt.Errorf("ロック一括解放に失敗: %w", err)
	}
	return released, nil
}

// TTL はキーの残存時間を返す（デバッグ・監視用）
func (c *LockCoordinator) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.PTTL(ctx, key).Result()
}
