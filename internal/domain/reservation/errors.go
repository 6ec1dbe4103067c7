package reservation

import (
	"errors"
	"sort"
	"strings"
)

// Reservation ドメインのエラー種別
// 呼び出し側は errors.Is でこれらの種別を判定する
var (
	ErrInvalidArgument     = errors.New("入力値が不正です")
	ErrConflict            = errors.New("この時間帯の会議室は既に予約されています")
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrPastBooking         = errors.New("過去の予約はキャンセルできません")
)

// 入力値エラーの詳細（いずれも ErrInvalidArgument を Unwrap する）
var (
	ErrInvertedTimeRange = invalidArgument("予約時間が不正です。開始時刻が終了時刻より後になっています")
	ErrTooShort          = invalidArgument("予約時間が不正です。1時間以上である必要があります")
	ErrRoomRequired      = invalidArgument("会議室が指定されていません")
	ErrPastDate          = invalidArgument("過去の日付は指定できません")
	ErrInvalidDateFormat = invalidArgument("日付の形式が不正です（YYYY-MM-DD）")
	ErrInvalidTimeFormat = invalidArgument("時刻の形式が不正です（HH:MM）")
)

type argumentError struct {
	msg string
}

func (e *argumentError) Error() string { return e.msg }

func (e *argumentError) Unwrap() error { return ErrInvalidArgument }

func invalidArgument(msg string) error {
	return &argumentError{msg: msg}
}

// 検証エラーのフィールド名
const (
	FieldRoom      = "room"
	FieldRequester = "requester"
	FieldDate      = "date"
	FieldTimeFrom  = "time_from"
	FieldTimeTo    = "time_to"
)

// ValidationErrors はフィールドごとの検証エラー
// フォームで全ての問題を一度に表示できるよう、全フィールドの結果をまとめて保持する
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error { return ErrInvalidArgument }
