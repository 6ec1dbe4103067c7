package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/logger"
)

// ReservationPurger は保持期間を過ぎた予約を削除するインターフェース
type ReservationPurger interface {
	PurgeElapsedReservations(ctx context.Context, retentionDays int) (int, error)
}

// ElapsedReservationPurger は予約日を過ぎた予約を定期的に削除するワーカー
type ElapsedReservationPurger struct {
	reservationService ReservationPurger
	interval           time.Duration
	retentionDays      int
	stopCh             chan struct{}
	doneCh             chan struct{}
	stopOnce           sync.Once
}

// NewElapsedReservationPurger は新しいワーカーを作成
func NewElapsedReservationPurger(
	rs ReservationPurger,
	interval time.Duration,
	retentionDays int,
) *ElapsedReservationPurger {
	return &ElapsedReservationPurger{
		reservationService: rs,
		interval:           interval,
		retentionDays:      retentionDays,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はワーカーを開始（Stop かコンテキストのキャンセルまでブロックする）
func (p *ElapsedReservationPurger) Start(ctx context.Context) {
	logger.Info("期限切れ予約の削除ワーカー開始",
		zap.Duration("interval", p.interval),
		zap.Int("retention_days", p.retentionDays),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer close(p.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ予約の削除ワーカー停止（コンテキストキャンセル）")
			return
		case <-p.stopCh:
			logger.Info("期限切れ予約の削除ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			p.purge(ctx)
		}
	}
}

// Stop はワーカーを停止し、終了を待つ
func (p *ElapsedReservationPurger) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

func (p *ElapsedReservationPurger) purge(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れ予約の削除開始")

	count, err := p.reservationService.PurgeElapsedReservations(ctx, p.retentionDays)
	if err != nil {
		log.Error("期限切れ予約の削除失敗", zap.Error(err))
		return
	}

	if count == 0 {
		log.Debug("削除対象の予約なし")
	}
}
