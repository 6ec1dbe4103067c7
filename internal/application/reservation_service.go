package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/lock"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/metrics"
)

// ErrSlotBusy は予約枠ロックをリトライ上限まで取得できなかったことを表す
// 業務上の競合（ErrConflict）ではなく一時的な障害として扱う
var ErrSlotBusy = errors.New("予約枠が処理中です。時間をおいて再度お試しください")

// ScheduleCache は (会議室, 日付) ごとの予約一覧キャッシュ
type ScheduleCache interface {
	Get(ctx context.Context, key reservation.SlotKey) ([]*reservation.Reservation, bool, error)
	Set(ctx context.Context, key reservation.SlotKey, reservations []*reservation.Reservation) error
	Invalidate(ctx context.Context, key reservation.SlotKey) error
}

// EventPublisher は予約イベントの配信先
type EventPublisher interface {
	Publish(ctx context.Context, event reservation.Event) error
}

// LockOptions は予約枠ロックの取得設定
// MaxRetries が0以下の場合はリクエストの ctx が終わるまで待つ
type LockOptions struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultLockOptions は予約枠ロックの既定値
var DefaultLockOptions = LockOptions{
	TTL:        10 * time.Second,
	MaxRetries: 0,
	RetryDelay: 20 * time.Millisecond,
}

// Option は ReservationService の任意の依存を設定する
type Option func(*ReservationService)

// WithSlotLock は (会議室, 日付) 単位のロックを有効にする
func WithSlotLock(m lock.Manager, opts LockOptions) Option {
	return func(s *ReservationService) {
		s.lockManager = m
		s.lockOpts = opts
	}
}

// WithScheduleCache は予約一覧のキャッシュを有効にする
func WithScheduleCache(c ScheduleCache) Option {
	return func(s *ReservationService) { s.cache = c }
}

// WithEventPublisher は予約イベントの配信を有効にする
func WithEventPublisher(p EventPublisher) Option {
	return func(s *ReservationService) { s.publisher = p }
}

// WithMetrics はメトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ReservationService) { s.metrics = m }
}

// ReservationService は会議室予約の作成・取消・参照を行う
// 同一 (会議室, 日付) に重なる予約が同時に存在しないことを保証する
type ReservationService struct {
	repo      reservation.Repository
	txManager transaction.Manager
	validator *reservation.Validator
	clock     clock.Clock

	lockManager lock.Manager
	lockOpts    LockOptions
	cache       ScheduleCache
	publisher   EventPublisher
	metrics     *metrics.Metrics
	group       singleflight.Group
}

func NewReservationService(repo reservation.Repository, tm transaction.Manager, c clock.Clock, opts ...Option) *ReservationService {
	s := &ReservationService{
		repo:      repo,
		txManager: tm,
		validator: reservation.NewValidator(c),
		clock:     c,
		lockOpts:  DefaultLockOptions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReservationInput は予約作成の入力（未入力は空文字）
type CreateReservationInput struct {
	Room      string
	Requester string
	Date      string
	TimeFrom  string
	TimeTo    string
}

// draft は入力を解析する。形式エラーはフィールドごとに返す
func (in CreateReservationInput) draft() (reservation.Draft, reservation.ValidationErrors) {
	d := reservation.Draft{Room: in.Room, Requester: in.Requester}
	errs := reservation.ValidationErrors{}

	if s := strings.TrimSpace(in.Date); s != "" {
		if date, err := reservation.ParseDate(s); err != nil {
			errs[reservation.FieldDate] = reservation.ErrInvalidDateFormat.Error()
		} else {
			d.Date = &date
		}
	}
	if s := strings.TrimSpace(in.TimeFrom); s != "" {
		if t, err := reservation.ParseTimeOfDay(s); err != nil {
			errs[reservation.FieldTimeFrom] = reservation.ErrInvalidTimeFormat.Error()
		} else {
			d.TimeFrom = &t
		}
	}
	if s := strings.TrimSpace(in.TimeTo); s != "" {
		if t, err := reservation.ParseTimeOfDay(s); err != nil {
			errs[reservation.FieldTimeTo] = reservation.ErrInvalidTimeFormat.Error()
		} else {
			d.TimeTo = &t
		}
	}
	return d, errs
}

// CreateReservation は予約を作成する
// 入力エラーは ErrInvalidArgument、重複は ErrConflict
func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	log := logger.FromContext(ctx)

	d, errs := input.draft()
	for field, msg := range s.validator.ValidateFields(d) {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		s.metrics.ObserveReservation(metrics.StatusInvalid)
		return nil, errs
	}
	if err := s.validator.ValidateTimeRange(*d.TimeFrom, *d.TimeTo); err != nil {
		s.metrics.ObserveReservation(metrics.StatusInvalid)
		return nil, err
	}

	res := reservation.NewReservation(d.Room, d.Requester, *d.Date, *d.TimeFrom, *d.TimeTo, s.clock.Now())
	key := res.Key()

	release, err := s.acquireSlot(ctx, key)
	if err != nil {
		s.metrics.ObserveReservation(metrics.StatusLockFailed)
		log.Warn("予約枠ロックを取得できませんでした", zap.String("slot", key.String()), zap.Error(err))
		return nil, err
	}
	defer release()

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.repo.LockSlot(ctx, tx, key); err != nil {
			return err
		}
		exists, err := s.repo.ExistsOverlap(ctx, tx, res.Room, res.Date, res.TimeFrom, res.TimeTo)
		if err != nil {
			return err
		}
		if exists {
			return reservation.ErrConflict
		}
		return s.repo.Create(ctx, tx, res)
	})
	if err != nil {
		if errors.Is(err, reservation.ErrConflict) {
			s.metrics.ObserveReservation(metrics.StatusConflict)
			log.Info("予約が重複しています",
				zap.String("room", res.Room),
				zap.Stringer("date", res.Date),
				zap.Stringer("time_from", res.TimeFrom),
				zap.Stringer("time_to", res.TimeTo))
			return nil, err
		}
		s.metrics.ObserveReservation(metrics.StatusError)
		return nil, err
	}

	s.metrics.ObserveReservation(metrics.StatusSuccess)
	log.Info("予約を作成しました",
		zap.String("reservation_id", res.ID),
		zap.String("room", res.Room),
		zap.Stringer("date", res.Date),
		zap.Stringer("time_from", res.TimeFrom),
		zap.Stringer("time_to", res.TimeTo))

	s.afterCommit(ctx, reservation.EventCreated, res)
	return res, nil
}

// CancelReservation は予約を取り消す（物理削除）
// 存在しなければ ErrReservationNotFound、予約日を過ぎていれば ErrPastBooking
func (s *ReservationService) CancelReservation(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(id) == "" {
		s.metrics.ObserveCancellation(metrics.StatusNotFound)
		return reservation.ErrReservationNotFound
	}

	var cancelled *reservation.Reservation
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		res, err := s.repo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.validator.ValidateNotPast(res); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, res.ID); err != nil {
			return err
		}
		cancelled = res
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, reservation.ErrReservationNotFound):
		s.metrics.ObserveCancellation(metrics.StatusNotFound)
		return err
	case errors.Is(err, reservation.ErrPastBooking):
		s.metrics.ObserveCancellation(metrics.StatusPast)
		log.Info("過去の予約のキャンセルを拒否しました", zap.String("reservation_id", id))
		return err
	default:
		s.metrics.ObserveCancellation(metrics.StatusError)
		return err
	}

	s.metrics.ObserveCancellation(metrics.StatusSuccess)
	log.Info("予約をキャンセルしました",
		zap.String("reservation_id", cancelled.ID),
		zap.String("room", cancelled.Room),
		zap.Stringer("date", cancelled.Date))

	s.afterCommit(ctx, reservation.EventCancelled, cancelled)
	return nil
}

// ListReservations は会議室・日付の予約一覧を開始時刻順で返す
// キャッシュが有効な場合は古い結果を返すことがある
func (s *ReservationService) ListReservations(ctx context.Context, room string, date reservation.Date) ([]*reservation.Reservation, error) {
	if err := s.validator.ValidateQueryParams(room, date); err != nil {
		return nil, err
	}
	key := reservation.SlotKey{Room: strings.TrimSpace(room), Date: date}

	if s.cache == nil {
		return s.repo.FindByRoomAndDate(ctx, key.Room, key.Date)
	}

	cached, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.ObserveCache("error")
		logger.FromContext(ctx).Warn("予約一覧キャッシュの取得に失敗しました", zap.String("slot", key.String()), zap.Error(err))
	case ok:
		s.metrics.ObserveCache("hit")
		return cached, nil
	default:
		s.metrics.ObserveCache("miss")
	}

	// 相乗りした呼び出しは先頭の呼び出し元のキャンセルに影響されない
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key.String(), func() (interface{}, error) {
		list, err := s.repo.FindByRoomAndDate(shared, key.Room, key.Date)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, list); err != nil {
			logger.FromContext(shared).Warn("予約一覧キャッシュの保存に失敗しました", zap.String("slot", key.String()), zap.Error(err))
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*reservation.Reservation), nil
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, reservation.ErrReservationNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// PurgeElapsedReservations は予約日が (今日 - retentionDays) より前の予約を削除し、件数を返す
// 削除対象はキャンセルできない予約に限られる
func (s *ReservationService) PurgeElapsedReservations(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("保持日数は0以上である必要があります: %d", retentionDays)
	}
	cutoff := s.validator.Today().AddDays(-retentionDays)

	var purged int
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		n, err := s.repo.DeleteElapsedBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		purged = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.AddPurged(purged)
	if purged > 0 {
		logger.FromContext(ctx).Info("期限切れ予約を削除しました",
			zap.Int("count", purged),
			zap.Stringer("before", cutoff))
	}
	return purged, nil
}

// acquireSlot は予約枠ロックを取得し、解放関数を返す
func (s *ReservationService) acquireSlot(ctx context.Context, key reservation.SlotKey) (func(), error) {
	if s.lockManager == nil {
		return func() {}, nil
	}

	start := time.Now()
	l, err := s.lockManager.AcquireLockWithRetry(ctx, "slot:"+key.String(),
		s.lockOpts.TTL, s.lockOpts.MaxRetries, s.lockOpts.RetryDelay)
	s.metrics.ObserveLock("acquire", start, err)
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, fmt.Errorf("予約枠ロックの取得に失敗: %w", err)
	}

	return func() {
		start := time.Now()
		err := l.Release(context.WithoutCancel(ctx))
		s.metrics.ObserveLock("release", start, err)
		if err != nil {
			logger.FromContext(ctx).Warn("予約枠ロックの解放に失敗しました", zap.String("slot", key.String()), zap.Error(err))
		}
	}, nil
}

// afterCommit はコミット後のキャッシュ無効化とイベント配信を行う
// 失敗しても予約自体は確定しているためログのみ残す
// 呼び出し元の ctx がキャンセル済みでも実行する
func (s *ReservationService) afterCommit(ctx context.Context, eventType reservation.EventType, res *reservation.Reservation) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, res.Key()); err != nil {
			log.Warn("予約一覧キャッシュの無効化に失敗しました", zap.String("slot", res.Key().String()), zap.Error(err))
		}
	}
	if s.publisher != nil {
		event := reservation.NewEvent(eventType, res, s.clock.Now())
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn("予約イベントの配信に失敗しました",
				zap.String("type", string(eventType)),
				zap.String("reservation_id", res.ID),
				zap.Error(err))
		}
	}
}
