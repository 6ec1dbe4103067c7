package reservation

import (
	"strings"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/clock"
)

// Draft は検証前の予約入力
// 日付・時刻はnilを未入力として扱う
type Draft struct {
	Room      string
	Requester string
	Date      *Date
	TimeFrom  *TimeOfDay
	TimeTo    *TimeOfDay
}

// Validator は既存データに依存しない予約の検証を行う
type Validator struct {
	clock clock.Clock
}

// NewValidator は Validator を作成する
func NewValidator(c clock.Clock) *Validator {
	return &Validator{clock: c}
}

// Today は現在の暦日を返す
func (v *Validator) Today() Date {
	return DateOf(v.clock.Now())
}

// ValidateTimeRange は予約時間の範囲を検証する
// 逆転 → 1時間未満 の順に判定し、最初のエラーのみ返す
func (v *Validator) ValidateTimeRange(from, to TimeOfDay) error {
	if to < from {
		return ErrInvertedTimeRange
	}
	if to.Sub(from) < MinDuration {
		return ErrTooShort
	}
	return nil
}

// ValidateFields は全フィールドを検証し、エラーをまとめて返す
func (v *Validator) ValidateFields(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Room) == "" {
		errs[FieldRoom] = "会議室が入力されていません"
	}
	if strings.TrimSpace(d.Requester) == "" {
		errs[FieldRequester] = "予約者が入力されていません"
	}
	if d.Date == nil || d.Date.IsZero() {
		errs[FieldDate] = "日付が入力されていません"
	} else if d.Date.Before(v.Today()) {
		errs[FieldDate] = "過去の日付は予約できません"
	}
	if d.TimeFrom == nil {
		errs[FieldTimeFrom] = "開始時刻が入力されていません"
	} else if !d.TimeFrom.Valid() {
		errs[FieldTimeFrom] = "開始時刻が不正です"
	}
	if d.TimeTo == nil {
		errs[FieldTimeTo] = "終了時刻が入力されていません"
	} else if !d.TimeTo.Valid() {
		errs[FieldTimeTo] = "終了時刻が不正です"
	}
	return errs
}

// ValidateNotPast は予約日が過ぎていないかを検証する（キャンセル時に使用）
func (v *Validator) ValidateNotPast(r *Reservation) error {
	if r.IsElapsed(v.Today()) {
		return ErrPastBooking
	}
	return nil
}

// ValidateQueryParams は一覧取得の条件を検証する
// 会議室の検証で失敗した場合は日付を検証しない
func (v *Validator) ValidateQueryParams(room string, date Date) error {
	if strings.TrimSpace(room) == "" {
		return ErrRoomRequired
	}
	if date.Before(v.Today()) {
		return ErrPastDate
	}
	return nil
}
