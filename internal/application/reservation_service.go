package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-seat-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/fault"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/sale"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/session"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/domain/transaction"
	rabbitmqinfra "github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-cinema-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-seat-reservation/internal/pkg/metrics"
)

// ReservationServiceDeps はReservationServiceの依存一式
// Publisher は任意（nilの場合はイベント発行をスキップ）
type ReservationServiceDeps struct {
	TxManager       transaction.Manager
	ReservationRepo reservation.Repository
	SeatRepo        seat.Repository
	SessionRepo     session.Repository
	SaleRepo        sale.Repository
	Locks           LockCoordinator
	Scheduler       ExpirationScheduler
	Cache           SnapshotCache
	Publisher       EventPublisher
	Metrics         *metrics.Metrics
}

// ReservationService は予約ライフサイクル全体を管理する
// 正しさは分散ロックが保証し、トランザクションはストア書き込みの
// 原子性のみを担う
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	seatRepo        seat.Repository
	sessionRepo     session.Repository
	saleRepo        sale.Repository
	locks           LockCoordinator
	scheduler       ExpirationScheduler
	cache           SnapshotCache
	publisher       EventPublisher
	metrics         *metrics.Metrics
	ttl             time.Duration
	lockTTL         time.Duration
}

// NewReservationService は新しいReservationServiceを作成する
func NewReservationService(deps ReservationServiceDeps, cfg config.ReservationConfig) *ReservationService {
	return &ReservationService{
		txManager:       deps.TxManager,
		reservationRepo: deps.ReservationRepo,
		seatRepo:        deps.SeatRepo,
		sessionRepo:     deps.SessionRepo,
		saleRepo:        deps.SaleRepo,
		locks:           deps.Locks,
		scheduler:       deps.Scheduler,
		cache:           deps.Cache,
		publisher:       deps.Publisher,
		metrics:         deps.Metrics,
		ttl:             cfg.TTL,
		lockTTL:         cfg.LockTTL,
	}
}

// CreateReservationInput は予約作成の入力
type CreateReservationInput struct {
	SessionID string
	UserID    string
	UserEmail string
	SeatIDs   []string
}

// ReservationView は予約のAPI向け投影
// RemainingSecondsは呼び出し時点の壁時計から再計算される
type ReservationView struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	UserEmail        string    `json:"user_email"`
	Status           string    `json:"status"`
	SeatNumbers      []string  `json:"seat_numbers"`
	RemainingSeconds int       `json:"remaining_seconds"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// Create は座席を仮押さえして保留中予約を作成する
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*ReservationView, error) {
	seatIDs := dedupeAndSort(input.SeatIDs)
	if len(seatIDs) == 0 {
		return nil, seat.ErrSeatIDsRequired
	}

	// セッションの存在確認はロック取得前の安価な前提条件
	if _, err := s.sessionRepo.GetByID(ctx, input.SessionID); err != nil {
		return nil, err
	}

	// 全呼び出し元が同一順序で取得するため循環待ちは起きない
	lockKeys := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		lockKeys[i] = buildSeatLockKey(input.SessionID, id)
	}
	token := uuid.NewString()

	lockStart := time.Now()
	if err := s.locks.AcquireAll(ctx, lockKeys, token, s.lockTTL); err != nil {
		var contention *redisinfra.ContentionError
		if errors.As(err, &contention) {
			s.observeLock("acquire_all", "contended", lockStart)
			s.countReservation("conflict")
			return nil, &fault.Conflict{
				Reason:       "座席は他の予約処理中です",
				OffendingIDs: []string{seatIDFromLockKey(contention.BlockedKey)},
			}
		}
		s.observeLock("acquire_all", "failed", lockStart)
		return nil, &fault.Infrastructure{Op: "lock.acquire", Cause: err}
	}
	s.observeLock("acquire_all", "success", lockStart)
	defer func() {
		releaseStart := time.Now()
		if _, err := s.locks.ReleaseAll(ctx, lockKeys, token); err != nil {
			// TTLが残りを失効させるため、解放失敗は致命的ではない
			s.observeLock("release_all", "failed", releaseStart)
			logger.Warn("ロック解放に失敗しました", zap.Error(err), zap.Strings("keys", lockKeys))
			return
		}
		s.observeLock("release_all", "success", releaseStart)
	}()

	seats, err := s.seatRepo.GetByIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	seatMap := make(map[string]*seat.Seat, len(seats))
	for _, se := range seats {
		seatMap[se.ID] = se
	}

	var unavailable []string
	for _, id := range seatIDs {
		se, ok := seatMap[id]
		if !ok {
			s.countReservation("not_found")
			return nil, &fault.NotFound{Entity: "seat", ID: id}
		}
		if se.SessionID != input.SessionID {
			return nil, &fault.InvalidState{
				Entity: "seat", ID: id,
				CurrentStatus: "different_session", AttemptedAction: "reserve",
			}
		}
		if !se.IsAvailable() {
			unavailable = append(unavailable, se.SeatNumber)
		}
	}
	if len(unavailable) > 0 {
		s.countReservation("conflict")
		return nil, &fault.Conflict{Reason: "座席が空いていません", OffendingIDs: unavailable}
	}

	res := reservation.NewReservation(input.SessionID, input.UserID, input.UserEmail, s.ttl)
	if err := res.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, &fault.Infrastructure{Op: "tx.begin", Cause: err}
	}
	defer tx.Rollback()

	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := s.seatRepo.ReserveSeats(ctx, tx, seatIDs, res.ID); err != nil {
		if errors.Is(err, seat.ErrSeatNotAvailable) {
			// ロック外の書き込み（直接DB操作など）との競合
			s.countReservation("conflict")
			return nil, &fault.Conflict{Reason: "座席が空いていません", OffendingIDs: seatIDs}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &fault.Infrastructure{Op: "tx.commit", Cause: err}
	}

	// コミット後の付随処理はベストエフォート
	// スケジュール登録に失敗してもスイープが期限切れを回収する
	if err := s.scheduler.Schedule(ctx, res.ID, res.ExpiresAt); err != nil {
		logger.Warn("期限切れジョブの登録に失敗しました", zap.Error(err), zap.String("reservation_id", res.ID))
	}
	s.writeSnapshot(ctx, res, seatIDs)
	s.publishEvent(ctx, res, seatNumbers(seats, seatIDs))
	s.countReservation("created")

	logger.Info("予約を作成しました",
		zap.String("reservation_id", res.ID),
		zap.String("session_id", res.SessionID),
		zap.Int("seat_count", len(seatIDs)))

	return s.toView(res, seatNumbers(seats, seatIDs)), nil
}

// Confirm は保留中予約を確定し、販売記録を作成する
// pending以外は確定できず、期限切れはストアへ反映したうえでエラーを返す
func (s *ReservationService) Confirm(ctx context.Context, id string) (*ReservationView, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// エンティティ側で遷移を適用し、ストアへは条件付きUPDATEで反映する
	if err := res.Confirm(); err != nil {
		if fault.IsExpired(err) {
			// 確定要求が先に観測した期限切れを永続化してから拒否する
			if expireErr := s.expireNow(ctx, res, "confirm"); expireErr != nil {
				return nil, expireErr
			}
		}
		return nil, err
	}

	sess, err := s.sessionRepo.GetByID(ctx, res.SessionID)
	if err != nil {
		return nil, err
	}
	seats, err := s.seatRepo.GetByReservationID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	seatIDs := make([]string, len(seats))
	for i, se := range seats {
		seatIDs[i] = se.ID
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, &fault.Infrastructure{Op: "tx.begin", Cause: err}
	}
	defer tx.Rollback()

	flipped, err := s.reservationRepo.UpdateStatusFromPending(ctx, tx, res.ID, reservation.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// 条件付きUPDATEに負けた。現在の状態を読み直して返す
		current, err := s.reservationRepo.GetByID(ctx, res.ID)
		if err != nil {
			return nil, err
		}
		return nil, &fault.InvalidState{
			Entity: "reservation", ID: id,
			CurrentStatus: string(current.Status), AttemptedAction: "confirm",
		}
	}
	if err := s.seatRepo.MarkSold(ctx, tx, seatIDs); err != nil {
		return nil, err
	}
	newSale := sale.NewSale(res.ID, res.SessionID, res.UserID, res.UserEmail, sess.TicketPrice, len(seatIDs))
	if err := s.saleRepo.Create(ctx, tx, newSale); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &fault.Infrastructure{Op: "tx.commit", Cause: err}
	}

	s.dropSnapshot(ctx, res.ID)
	if _, err := s.scheduler.Cancel(ctx, res.ID); err != nil {
		// ジョブが残ってもpending再確認で何もしない
		logger.Debug("期限切れジョブの取消に失敗しました", zap.Error(err), zap.String("reservation_id", res.ID))
	}
	s.publishEvent(ctx, res, seatNumbers(seats, seatIDs))
	s.countReservation("confirmed")

	logger.Info("予約を確定しました",
		zap.String("reservation_id", res.ID),
		zap.String("sale_id", newSale.ID),
		zap.Int("amount", newSale.Amount))

	return s.toView(res, seatNumbers(seats, seatIDs)), nil
}

// Cancel は保留中予約を取り消し、座席を解放する
func (s *ReservationService) Cancel(ctx context.Context, id string) (*ReservationView, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.Cancel(); err != nil {
		return nil, err
	}

	seats, err := s.seatRepo.GetByReservationID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	seatIDs := make([]string, len(seats))
	for i, se := range seats {
		seatIDs[i] = se.ID
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, &fault.Infrastructure{Op: "tx.begin", Cause: err}
	}
	defer tx.Rollback()

	flipped, err := s.reservationRepo.UpdateStatusFromPending(ctx, tx, res.ID, reservation.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !flipped {
		current, err := s.reservationRepo.GetByID(ctx, res.ID)
		if err != nil {
			return nil, err
		}
		return nil, &fault.InvalidState{
			Entity: "reservation", ID: id,
			CurrentStatus: string(current.Status), AttemptedAction: "cancel",
		}
	}
	if err := s.seatRepo.ReleaseSeats(ctx, tx, seatIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &fault.Infrastructure{Op: "tx.commit", Cause: err}
	}

	s.dropSnapshot(ctx, res.ID)
	s.publishEvent(ctx, res, seatNumbers(seats, seatIDs))
	s.countReservation("cancelled")

	logger.Info("予約を取り消しました", zap.String("reservation_id", res.ID))

	return s.toView(res, seatNumbers(seats, seatIDs)), nil
}

// FindOne は予約を取得する（キャッシュ優先、ミス時はストア）
func (s *ReservationService) FindOne(ctx context.Context, id string) (*ReservationView, error) {
	snapshot, err := s.cache.Get(ctx, id)
	if err == nil {
		seats, err := s.seatRepo.GetByIDs(ctx, snapshot.SeatIDs)
		if err != nil {
			return nil, fmt.Errorf("座席取得に失敗: %w", err)
		}
		return snapshotToView(snapshot, seatNumbers(seats, snapshot.SeatIDs)), nil
	}
	if !errors.Is(err, redisinfra.ErrCacheMiss) {
		logger.Warn("キャッシュ読み取りに失敗しました", zap.Error(err), zap.String("reservation_id", id))
	}

	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	seats, err := s.seatRepo.GetByReservationID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	seatIDs := make([]string, len(seats))
	for i, se := range seats {
		seatIDs[i] = se.ID
	}
	return s.toView(res, seatNumbers(seats, seatIDs)), nil
}

// ProcessExpiration は期限切れジョブの本体
// 消えた予約・別状態・期限前はいずれも何もしない（重複配送を無害化する）
func (s *ReservationService) ProcessExpiration(ctx context.Context, id string) error {
	return s.processExpiration(ctx, id, "job")
}

func (s *ReservationService) processExpiration(ctx context.Context, id string, source string) error {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if fault.IsNotFound(err) {
			s.countExpiration(source, "skipped")
			return nil
		}
		s.countExpiration(source, "failed")
		return err
	}
	if !res.IsPending() || !res.IsExpired() {
		s.countExpiration(source, "skipped")
		return nil
	}

	if err := s.expireNow(ctx, res, source); err != nil {
		s.countExpiration(source, "failed")
		return err
	}
	s.countExpiration(source, "expired")
	return nil
}

// expireNow は期限切れをストアへ反映する（条件付き遷移＋座席解放＋キャッシュ削除）
func (s *ReservationService) expireNow(ctx context.Context, res *reservation.Reservation, source string) error {
	if err := res.Expire(); err != nil {
		return err
	}

	seats, err := s.seatRepo.GetByReservationID(ctx, res.ID)
	if err != nil {
		return fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	seatIDs := make([]string, len(seats))
	for i, se := range seats {
		seatIDs[i] = se.ID
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return &fault.Infrastructure{Op: "tx.begin", Cause: err}
	}
	defer tx.Rollback()

	flipped, err := s.reservationRepo.UpdateStatusFromPending(ctx, tx, res.ID, reservation.StatusExpired)
	if err != nil {
		return err
	}
	if !flipped {
		// 別経路が先に終端へ遷移させた
		return nil
	}
	if err := s.seatRepo.ReleaseSeats(ctx, tx, seatIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &fault.Infrastructure{Op: "tx.commit", Cause: err}
	}

	s.dropSnapshot(ctx, res.ID)
	s.publishEvent(ctx, res, seatNumbers(seats, seatIDs))

	logger.Info("予約を期限切れにしました",
		zap.String("reservation_id", res.ID),
		zap.String("source", source))
	return nil
}

// SweepExpired は期限切れの保留中予約を一括回収する
// 個別の失敗は隔離してログに残し、処理を試みた件数を返す
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.reservationRepo.GetExpiredPending(ctx)
	if err != nil {
		return 0, err
	}
	for _, res := range expired {
		if err := s.processExpiration(ctx, res.ID, "sweep"); err != nil {
			logger.Error("期限切れ回収に失敗しました",
				zap.Error(err), zap.String("reservation_id", res.ID))
		}
	}
	return len(expired), nil
}

func (s *ReservationService) toView(res *reservation.Reservation, numbers []string) *ReservationView {
	remaining := 0
	if res.IsPending() {
		remaining = res.RemainingSeconds()
	}
	return &ReservationView{
		ID:               res.ID,
		SessionID:        res.SessionID,
		UserID:           res.UserID,
		UserEmail:        res.UserEmail,
		Status:           string(res.Status),
		SeatNumbers:      numbers,
		RemainingSeconds: remaining,
		ExpiresAt:        res.ExpiresAt,
		CreatedAt:        res.CreatedAt,
	}
}

func snapshotToView(snapshot *redisinfra.ReservationSnapshot, numbers []string) *ReservationView {
	remaining := 0
	if snapshot.Status == string(reservation.StatusPending) {
		if until := time.Until(snapshot.ExpiresAt); until > 0 {
			remaining = int(until / time.Second)
		}
	}
	return &ReservationView{
		ID:               snapshot.ID,
		SessionID:        snapshot.SessionID,
		UserEmail:        snapshot.UserEmail,
		Status:           snapshot.Status,
		SeatNumbers:      numbers,
		RemainingSeconds: remaining,
		ExpiresAt:        snapshot.ExpiresAt,
		CreatedAt:        snapshot.CreatedAt,
	}
}

func (s *ReservationService) writeSnapshot(ctx context.Context, res *reservation.Reservation, seatIDs []string) {
	snapshot := &redisinfra.ReservationSnapshot{
		ID:        res.ID,
		SessionID: res.SessionID,
		SeatIDs:   seatIDs,
		UserEmail: res.UserEmail,
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt,
		ExpiresAt: res.ExpiresAt,
	}
	if err := s.cache.Set(ctx, snapshot); err != nil {
		logger.Warn("キャッシュ書き込みに失敗しました", zap.Error(err), zap.String("reservation_id", res.ID))
	}
}

func (s *ReservationService) dropSnapshot(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		logger.Warn("キャッシュ削除に失敗しました", zap.Error(err), zap.String("reservation_id", id))
	}
}

func (s *ReservationService) publishEvent(ctx context.Context, res *reservation.Reservation, numbers []string) {
	if s.publisher == nil {
		return
	}
	event := &rabbitmqinfra.ReservationEvent{
		ReservationID: res.ID,
		SessionID:     res.SessionID,
		UserID:        res.UserID,
		UserEmail:     res.UserEmail,
		Status:        string(res.Status),
		SeatNumbers:   numbers,
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("予約イベントの発行に失敗しました", zap.Error(err), zap.String("reservation_id", res.ID))
	}
}

func (s *ReservationService) countReservation(status string) {
	if s.metrics != nil {
		s.metrics.ReservationsTotal.WithLabelValues(status).Inc()
	}
}

func (s *ReservationService) countExpiration(source, result string) {
	if s.metrics != nil {
		s.metrics.ExpirationsTotal.WithLabelValues(source, result).Inc()
	}
}

func (s *ReservationService) observeLock(operation, status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}
}

// buildSeatLockKey は座席単位のロックキーを生成する
func buildSeatLockKey(sessionID, seatID string) string {
	return fmt.Sprintf("lock:session:%s:seat:%s", sessionID, seatID)
}

// seatIDFromLockKey はロックキーから座席IDを取り出す
func seatIDFromLockKey(key string) string {
	if i := strings.LastIndex(key, ":seat:"); i >= 0 {
		return key[i+len(":seat:"):]
	}
	return key
}

// dedupeAndSort は座席IDの重複を除去し辞書順に整列する
func dedupeAndSort(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// seatNumbers は座席IDの順序で座席番号を並べる
func seatNumbers(seats []*seat.Seat, seatIDs []string) []string {
	byID := make(map[string]string, len(seats))
	for _, se := range seats {
		byID[se.ID] = se.SeatNumber
	}
	numbers := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		if n, ok := byID[id]; ok {
			numbers = append(numbers, n)
		}
	}
	return numbers
}
