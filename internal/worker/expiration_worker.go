package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/metrics"
)

// ExpirationHandler は期限切れジョブの本体を実行するインターフェース
type ExpirationHandler interface {
	ProcessExpiration(ctx context.Context, reservationID string) error
}

// JobQueue は期限切れジョブの取り出しと再試行を担うインターフェース
type JobQueue interface {
	// ClaimDue は期日を過ぎたジョブをアトミックに取り出す
	ClaimDue(ctx context.Context, limit int) ([]string, error)
	// RetryOrDead は失敗したジョブを再登録するか、上限到達ならデッドセットへ移す
	// デッドセットへ移した場合はtrueを返す
	RetryOrDead(ctx context.Context, reservationID string) (bool, error)
	// Ack は成功したジョブの試行状態を破棄する
	Ack(ctx context.Context, reservationID string)
}

// ExpirationWorker は期限切れジョブを取り出して処理するワーカー
// 同時実行数はセマフォで制限され、配送はat-least-once。
// 重複はハンドラ側の状態再確認で無害化される
type ExpirationWorker struct {
	queue       JobQueue
	handler     ExpirationHandler
	concurrency int
	interval    time.Duration
	metrics     *metrics.Metrics
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewExpirationWorker は新しいワーカーを作成
func NewExpirationWorker(queue JobQueue, handler ExpirationHandler, cfg config.ExpirationWorkerConfig, m *metrics.Metrics) *ExpirationWorker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &ExpirationWorker{
		queue:       queue,
		handler:     handler,
		concurrency: concurrency,
		interval:    interval,
		metrics:     m,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *ExpirationWorker) Start(ctx context.Context) {
	logger.Info("期限切れジョブワーカー開始",
		zap.Int("concurrency", w.concurrency),
		zap.Duration("poll_interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れジョブワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("期限切れジョブワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// Stop はワーカーを停止し、処理中のジョブの完了を待つ
func (w *ExpirationWorker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// drain は期日到来ジョブを取り出し、上限付き並行で処理する
func (w *ExpirationWorker) drain(ctx context.Context) {
	ids, err := w.queue.ClaimDue(ctx, w.concurrency*2)
	if err != nil {
		logger.Error("ジョブ取り出しに失敗しました", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	logger.Debug("期限切れジョブを取り出しました", zap.Int("count", len(ids)))

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(reservationID string) {
			defer wg.Done()
			defer func() { <-sem }()
			w.process(ctx, reservationID)
		}(id)
	}
	wg.Wait()
}

func (w *ExpirationWorker) process(ctx context.Context, reservationID string) {
	if err := w.handler.ProcessExpiration(ctx, reservationID); err != nil {
		logger.Error("期限切れ処理に失敗しました",
			zap.Error(err), zap.String("reservation_id", reservationID))

		dead, retryErr := w.queue.RetryOrDead(ctx, reservationID)
		if retryErr != nil {
			// 再登録も失敗。スイープが最終的に回収する
			logger.Error("ジョブ再登録に失敗しました",
				zap.Error(retryErr), zap.String("reservation_id", reservationID))
			return
		}
		if dead {
			logger.Warn("ジョブをデッドセットへ移しました",
				zap.String("reservation_id", reservationID))
			if w.metrics != nil {
				w.metrics.DeadLetteredJobsTotal.Inc()
			}
		}
		return
	}
	w.queue.Ack(ctx, reservationID)
}
