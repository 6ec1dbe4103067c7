package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewReservation(t *testing.T) {
	now := time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)
	date := NewDate(2030, time.January, 15)

	r := NewReservation(" room-a ", " taro@example.com ", date, NewTimeOfDay(10, 0), NewTimeOfDay(11, 0), now)

	assert.Empty(t, r.ID, "IDは永続化時に採番される")
	assert.Equal(t, "room-a", r.Room)
	assert.Equal(t, "taro@example.com", r.Requester)
	assert.Equal(t, date, r.Date)
	assert.Equal(t, time.Hour, r.Duration())
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, SlotKey{Room: "room-a", Date: date}, r.Key())
	assert.Equal(t, "room-a:2030-01-15", r.Key().String())
}

func TestReservation_Overlaps(t *testing.T) {
	r := &Reservation{TimeFrom: NewTimeOfDay(10, 0), TimeTo: NewTimeOfDay(11, 0)}

	tests := []struct {
		name     string
		from, to TimeOfDay
		want     bool
	}{
		{"完全に一致", NewTimeOfDay(10, 0), NewTimeOfDay(11, 0), true},
		{"内側", NewTimeOfDay(10, 15), NewTimeOfDay(10, 45), true},
		{"外側を包含", NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), true},
		{"前半が重なる", NewTimeOfDay(9, 0), NewTimeOfDay(10, 30), true},
		{"終了時刻に接する", NewTimeOfDay(11, 0), NewTimeOfDay(12, 0), true},
		{"開始時刻に接する", NewTimeOfDay(9, 0), NewTimeOfDay(10, 0), true},
		{"後ろに離れている", NewTimeOfDay(11, 1), NewTimeOfDay(12, 1), false},
		{"前に離れている", NewTimeOfDay(8, 0), NewTimeOfDay(9, 59), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Overlaps(tt.from, tt.to))
		})
	}
}

func TestReservation_IsElapsed(t *testing.T) {
	today := NewDate(2030, time.January, 15)
	r := &Reservation{Date: today}

	assert.False(t, r.IsElapsed(today), "当日は経過していない")
	assert.True(t, r.IsElapsed(today.AddDays(1)))
	assert.False(t, r.IsElapsed(today.AddDays(-1)))
}
