package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/logger"
)

// ExpirationSweeper は期限切れ予約を一括回収するインターフェース
type ExpirationSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper はスケジューラの取りこぼしを回収する安全網ワーカー
// ジョブ経路が全滅しても、最終的に全ての期限切れがここで処理される
type Sweeper struct {
	service  ExpirationSweeper
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper は新しいスイーパーを作成
func NewSweeper(service ExpirationSweeper, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *Sweeper) Start(ctx context.Context) {
	logger.Info("期限切れスイーパー開始", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れスイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("期限切れスイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.service.SweepExpired(ctx)
	if err != nil {
		logger.Error("期限切れスイープに失敗しました", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("期限切れ予約を回収しました", zap.Int("count", count))
	} else {
		logger.Debug("期限切れ予約なし")
	}
}
