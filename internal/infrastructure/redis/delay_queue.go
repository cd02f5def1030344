package redis

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scheduledKey = "reservation:expiration:scheduled"
	attemptsKey  = "reservation:expiration:attempts"
	deadKey      = "reservation:expiration:dead"
)

// claimDueScript は期日を過ぎたジョブをアトミックに取り出す
// 取り出しと削除が分かれていると複数プロセスが同じジョブを取るため、
// 1スクリプトで ZRANGEBYSCORE と ZREM を行う
var claimDueScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #due > 0 then
	redis.call('ZREM', KEYS[1], unpack(due))
end
return due
`)

// DelayQueue は予約IDをキーとする遅延実行キュー
// ZSETのスコアを実行期日として使い、Redisに永続化されるため
// プロセス再起動を跨いで生存する。配送はat-least-once
type DelayQueue struct {
	client      *redis.Client
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
}

// NewDelayQueue は新しいDelayQueueを作成する
func NewDelayQueue(client *redis.Client, maxAttempts int) *DelayQueue {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &DelayQueue{
		client:      client,
		maxAttempts: maxAttempts,
		backoffBase: time.Second,
		backoffCap:  30 * time.Second,
	}
}

// Schedule は予約IDの期限切れジョブを登録する
// 同じIDを再登録した場合は期日が上書きされる（一意キー保証）
func (q *DelayQueue) Schedule(ctx context.Context, reservationID string, dueAt time.Time) error {
	err := q.client.ZAdd(ctx, scheduledKey, redis.Z{
		Score:  float64(dueAt.UnixMilli()),
		Member: reservationID,
	}).Err()
	if err != nil {
		return fmt.Errorf("期限切れジョブの登録に失敗: %w", err)
	}
	return nil
}

// Cancel は未実行のジョブを削除する（ベストエフォート）
func (q *DelayQueue) Cancel(ctx context.Context, reservationID string) (bool, error) {
	removed, err := q.client.ZRem(ctx, scheduledKey, reservationID).Result()
	if err != nil {
		return false, fmt.Errorf("期限切れジョブの削除に失敗: %w", err)
	}
	q.client.HDel(ctx, attemptsKey, reservationID)
	return removed > 0, nil
}

// ClaimDue は期日を過ぎたジョブをアトミックに最大limit件取り出す
func (q *DelayQueue) ClaimDue(ctx context.Context, limit int) ([]string, error) {
	now := time.Now().UnixMilli()
	ids, err := claimDueScript.Run(ctx, q.client, []string{scheduledKey}, now, limit).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("期限切れジョブの取得に失敗: %w", err)
	}
	return ids, nil
}

// RetryOrDead は失敗したジョブを指数バックオフ＋ジッタで再登録する
// 試行上限に達した場合はデッドセットへ移し true を返す
func (q *DelayQueue) RetryOrDead(ctx context.Context, reservationID string) (bool, error) {
	attempts, err := q.client.HIncrBy(ctx, attemptsKey, reservationID, 1).Result()
	if err != nil {
		return false, fmt.Errorf("試行回数の更新に失敗: %w", err)
	}

	if int(attempts) >= q.maxAttempts {
		pipe := q.client.TxPipeline()
		pipe.SAdd(ctx, deadKey, reservationID)
		pipe.HDel(ctx, attemptsKey, reservationID)
		if _, err := pipe.Exec(ctx); err != nil {
			return false, fmt.Errorf("デッドセットへの移動に失敗: %w", err)
		}
		return true, nil
	}

	return false, q.Schedule(ctx, reservationID, time.Now().Add(q.backoff(int(attempts))))
}

// Ack は成功したジョブの試行カウンタを破棄する
func (q *DelayQueue) Ack(ctx context.Context, reservationID string) {
	q.client.HDel(ctx, attemptsKey, reservationID)
}

// DeadLetters はデッドセットの内容を返す（調査用）
func (q *DelayQueue) DeadLetters(ctx context.Context) ([]string, error) {
	return q.client.SMembers(ctx, deadKey).Result()
}

// backoff は attempts 回目の失敗に対する待ち時間を返す
func (q *DelayQueue) backoff(attempts int) time.Duration {
	d := q.backoffBase << (attempts - 1)
	if d > q.backoffCap {
		d = q.backoffCap
	}
	// ジッタで再試行の同期を崩す
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}
