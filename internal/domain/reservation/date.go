package reservation

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04"
	minutesPerDay   = 24 * 60
)

// Date はタイムゾーンを持たない暦日を表す
// 比較は年月日の一致のみで行う
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate は年月日からDateを作成する（範囲外の値は正規化される）
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf は時刻のロケーションにおける暦日を返す
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate は YYYY-MM-DD 形式の文字列をDateに変換する
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return DateOf(t), nil
}

// IsZero は未設定のDateかを返す
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// Time はUTCの0時0分として時刻を返す
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Before は d が o より前の日付かを返す
func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

// After は d が o より後の日付かを返す
func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

// Equal は同じ暦日かを返す
func (d Date) Equal(o Date) bool {
	return d == o
}

// AddDays は n 日後の日付を返す
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

// Value は driver.Valuer の実装
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan は sql.Scanner の実装
// PostgreSQLの DATE は time.Time、SQLiteの TEXT は文字列で返る
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("Dateに変換できない型です: %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay はその日の0時からの経過分で表す時刻
type TimeOfDay int

// NewTimeOfDay は時と分からTimeOfDayを作成する
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay は HH:MM または HH:MM:SS 形式の文字列をTimeOfDayに変換する（秒は切り捨て）
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{timeOfDayLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Valid は 00:00〜23:59 の範囲内かを返す
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// Sub は t - o の経過時間を返す
func (t TimeOfDay) Sub(o TimeOfDay) time.Duration {
	return time.Duration(t-o) * time.Minute
}

// On は指定日の時刻としてtime.Timeを返す
func (t TimeOfDay) On(d Date) time.Time {
	return d.Time().Add(time.Duration(t) * time.Minute)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Value は driver.Valuer の実装（HH:MM:SS）
func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute()), nil
}

// Scan は sql.Scanner の実装
// PostgreSQLの TIME は time.Time、SQLiteの TEXT は文字列で返る
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
		return nil
	case string:
		return t.scanString(v)
	case []byte:
		return t.scanString(string(v))
	default:
		return fmt.Errorf("TimeOfDayに変換できない型です: %T", src)
	}
}

func (t *TimeOfDay) scanString(s string) error {
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
