package reservation

import (
	"strings"
	"time"
)

// MinDuration は予約に必要な最短時間
const MinDuration = 60 * time.Minute

// Reservation は会議室の予約エンティティを表す
// コミット後は不変で、キャンセル時は物理削除される
type Reservation struct {
	ID        string
	Room      string
	Requester string
	Date      Date
	TimeFrom  TimeOfDay
	TimeTo    TimeOfDay
	CreatedAt time.Time
}

// NewReservation は未コミットの予約を作成する（IDは永続化時に採番される）
func NewReservation(room, requester string, date Date, from, to TimeOfDay, now time.Time) *Reservation {
	return &Reservation{
		Room:      strings.TrimSpace(room),
		Requester: strings.TrimSpace(requester),
		Date:      date,
		TimeFrom:  from,
		TimeTo:    to,
		CreatedAt: now,
	}
}

// Duration は予約時間の長さを返す
func (r *Reservation) Duration() time.Duration {
	return r.TimeTo.Sub(r.TimeFrom)
}

// Overlaps は [from, to] と重なるかを返す
// 境界が接するだけの場合（10:00-11:00 と 11:00-12:00）も重複とみなす
func (r *Reservation) Overlaps(from, to TimeOfDay) bool {
	return r.TimeFrom <= to && r.TimeTo >= from
}

// IsElapsed は予約日が today より前かを返す
func (r *Reservation) IsElapsed(today Date) bool {
	return r.Date.Before(today)
}

// Key は重複判定の単位となる (会議室, 日付) を返す
func (r *Reservation) Key() SlotKey {
	return SlotKey{Room: r.Room, Date: r.Date}
}

// SlotKey は会議室と日付の組
type SlotKey struct {
	Room string
	Date Date
}

func (k SlotKey) String() string {
	return k.Room + ":" + k.Date.String()
}
