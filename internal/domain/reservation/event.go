package reservation

import "time"

// EventType はドメインイベントの種別（ルーティングキーとしても使う）
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventCancelled EventType = "reservation.cancelled"
)

// Event は予約の確定・取消を外部へ通知するためのイベント
type Event struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	Room          string    `json:"room"`
	Requester     string    `json:"requester"`
	Date          Date      `json:"date"`
	TimeFrom      TimeOfDay `json:"time_from"`
	TimeTo        TimeOfDay `json:"time_to"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent は予約からイベントを作成する
func NewEvent(t EventType, r *Reservation, at time.Time) Event {
	return Event{
		Type:          t,
		ReservationID: r.ID,
		Room:          r.Room,
		Requester:     r.Requester,
		Date:          r.Date,
		TimeFrom:      r.TimeFrom,
		TimeTo:        r.TimeTo,
		OccurredAt:    at,
	}
}
