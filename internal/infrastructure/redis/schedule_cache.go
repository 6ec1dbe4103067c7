package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

// ScheduleCache は (会議室, 日付) ごとの予約一覧をキャッシュする
type ScheduleCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewScheduleCache は新しいScheduleCacheインスタンスを作成する
func NewScheduleCache(client redis.Cmdable, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{client: client, ttl: ttl}
}

type cachedReservation struct {
	ID        string                `json:"id"`
	Room      string                `json:"room"`
	Requester string                `json:"requester"`
	Date      reservation.Date      `json:"date"`
	TimeFrom  reservation.TimeOfDay `json:"time_from"`
	TimeTo    reservation.TimeOfDay `json:"time_to"`
	CreatedAt time.Time             `json:"created_at"`
}

// Get はキャッシュ済みの予約一覧を返す。未キャッシュなら ok=false
func (c *ScheduleCache) Get(ctx context.Context, key reservation.SlotKey) ([]*reservation.Reservation, bool, error) {
	data, err := c.client.Get(ctx, c.scheduleKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var cached []cachedReservation
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(cached))
	for i, cr := range cached {
		result[i] = &reservation.Reservation{
			ID:        cr.ID,
			Room:      cr.Room,
			Requester: cr.Requester,
			Date:      cr.Date,
			TimeFrom:  cr.TimeFrom,
			TimeTo:    cr.TimeTo,
			CreatedAt: cr.CreatedAt,
		}
	}
	return result, true, nil
}

// Set は予約一覧を保存する
func (c *ScheduleCache) Set(ctx context.Context, key reservation.SlotKey, reservations []*reservation.Reservation) error {
	cached := make([]cachedReservation, len(reservations))
	for i, r := range reservations {
		cached[i] = cachedReservation{
			ID:        r.ID,
			Room:      r.Room,
			Requester: r.Requester,
			Date:      r.Date,
			TimeFrom:  r.TimeFrom,
			TimeTo:    r.TimeTo,
			CreatedAt: r.CreatedAt,
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("キャッシュのシリアライズに失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.scheduleKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は予約一覧のキャッシュを無効化する
func (c *ScheduleCache) Invalidate(ctx context.Context, key reservation.SlotKey) error {
	if err := c.client.Del(ctx, c.scheduleKey(key)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *ScheduleCache) scheduleKey(key reservation.SlotKey) string {
	return "schedule:" + key.String()
}
