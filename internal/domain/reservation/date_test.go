package reservation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"正常な日付", "2030-01-15", NewDate(2030, time.January, 15), false},
		{"前後の空白を無視", " 2030-12-31 ", NewDate(2030, time.December, 31), false},
		{"形式不正", "2030/01/15", Date{}, true},
		{"存在しない日付", "2030-02-30", Date{}, true},
		{"空文字", "", Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDateFormat)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_Compare(t *testing.T) {
	d1 := NewDate(2030, time.January, 15)
	d2 := d1.AddDays(1)

	assert.True(t, d1.Before(d2))
	assert.False(t, d2.Before(d1))
	assert.True(t, d2.After(d1))
	assert.True(t, d1.Equal(NewDate(2030, time.January, 15)))
	assert.Equal(t, NewDate(2030, time.February, 1), NewDate(2030, time.January, 31).AddDays(1))
}

func TestDateOf_UsesLocationCalendarDay(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	// UTCでは前日の15:30だが、JSTでは翌日の0:30
	ts := time.Date(2030, 1, 14, 15, 30, 0, 0, time.UTC).In(jst)

	assert.Equal(t, NewDate(2030, time.January, 15), DateOf(ts))
}

func TestDate_ScanAndValue(t *testing.T) {
	want := NewDate(2030, time.March, 3)

	tests := []struct {
		name string
		src  interface{}
	}{
		{"time.Time", time.Date(2030, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"文字列", "2030-03-03"},
		{"バイト列", []byte("2030-03-03")},
		{"時刻付き文字列", "2030-03-03T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, want, d)
		})
	}

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, "2030-03-03", v)

	var d Date
	assert.Error(t, d.Scan(42))
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2030, time.April, 1)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2030-04-01"`, string(b))

	var got Date
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, d, got)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"HH:MM", "10:30", NewTimeOfDay(10, 30), false},
		{"HH:MM:SS", "10:30:45", NewTimeOfDay(10, 30), false},
		{"1桁の時", "9:00", NewTimeOfDay(9, 0), false},
		{"範囲外", "24:00", 0, true},
		{"形式不正", "10時", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay(t *testing.T) {
	from := NewTimeOfDay(10, 0)
	to := NewTimeOfDay(11, 30)

	assert.Equal(t, 90*time.Minute, to.Sub(from))
	assert.Equal(t, "10:00", from.String())
	assert.Equal(t, 11, to.Hour())
	assert.Equal(t, 30, to.Minute())
	assert.True(t, to.Valid())
	assert.False(t, TimeOfDay(24*60).Valid())
	assert.Equal(t,
		time.Date(2030, 1, 15, 11, 30, 0, 0, time.UTC),
		to.On(NewDate(2030, time.January, 15)))
}

func TestTimeOfDay_ScanAndValue(t *testing.T) {
	want := NewTimeOfDay(13, 45)

	for _, src := range []interface{}{
		time.Date(0, 1, 1, 13, 45, 0, 0, time.UTC),
		"13:45:00",
		[]byte("13:45"),
	} {
		var got TimeOfDay
		require.NoError(t, got.Scan(src))
		assert.Equal(t, want, got)
	}

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, "13:45:00", v)

	var got TimeOfDay
	assert.Error(t, got.Scan(nil))
}

func TestTimeOfDay_JSON(t *testing.T) {
	b, err := json.Marshal(NewTimeOfDay(8, 5))
	require.NoError(t, err)
	assert.JSONEq(t, `"08:05"`, string(b))

	var got TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"17:00"`), &got))
	assert.Equal(t, NewTimeOfDay(17, 0), got)
}
