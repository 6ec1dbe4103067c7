package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/application"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

func handleError(t *testing.T, method string, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/v1/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	CustomHTTPErrorHandler(err, c)

	var resp ErrorResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestCustomHTTPErrorHandler_ステータス変換(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "入力値エラーは400",
			err:      reservation.ErrTooShort,
			wantCode: http.StatusBadRequest,
			wantMsg:  reservation.ErrTooShort.Error(),
		},
		{
			name:     "ラップされた入力値エラーも400",
			err:      fmt.Errorf("%w: %q", reservation.ErrInvalidDateFormat, "2024/01/01"),
			wantCode: http.StatusBadRequest,
			wantMsg:  `日付の形式が不正です（YYYY-MM-DD）: "2024/01/01"`,
		},
		{
			name:     "過去の予約のキャンセルは400",
			err:      reservation.ErrPastBooking,
			wantCode: http.StatusBadRequest,
			wantMsg:  reservation.ErrPastBooking.Error(),
		},
		{
			name:     "重複は409",
			err:      reservation.ErrConflict,
			wantCode: http.StatusConflict,
			wantMsg:  reservation.ErrConflict.Error(),
		},
		{
			name:     "予約なしは404",
			err:      fmt.Errorf("予約の取得に失敗しました: %w", reservation.ErrReservationNotFound),
			wantCode: http.StatusNotFound,
			wantMsg:  reservation.ErrReservationNotFound.Error(),
		},
		{
			name:     "ロック取得失敗は503",
			err:      fmt.Errorf("slot:A:2030-01-01: %w", application.ErrSlotBusy),
			wantCode: http.StatusServiceUnavailable,
			wantMsg:  application.ErrSlotBusy.Error(),
		},
		{
			name:     "HTTPErrorはそのまま",
			err:      echo.NewHTTPError(http.StatusMethodNotAllowed, "許可されていません"),
			wantCode: http.StatusMethodNotAllowed,
			wantMsg:  "許可されていません",
		},
		{
			name:     "文字列以外のメッセージはステータステキスト",
			err:      echo.NewHTTPError(http.StatusNotFound, map[string]string{"a": "b"}),
			wantCode: http.StatusNotFound,
			wantMsg:  "Not Found",
		},
		{
			name:     "その他は500で詳細を隠す",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "内部サーバーエラー",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := handleError(t, http.MethodPost, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Error)
			assert.Empty(t, resp.Fields)
		})
	}
}

func TestCustomHTTPErrorHandler_フィールドエラー(t *testing.T) {
	err := reservation.ValidationErrors{
		reservation.FieldRoom: "会議室が入力されていません",
		reservation.FieldDate: "過去の日付は予約できません",
	}

	rec, resp := handleError(t, http.MethodPost, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, reservation.ErrInvalidArgument.Error(), resp.Error)
	assert.Equal(t, map[string]string{
		"room": "会議室が入力されていません",
		"date": "過去の日付は予約できません",
	}, resp.Fields)
}

func TestCustomHTTPErrorHandler_HEADはボディなし(t *testing.T) {
	rec, _ := handleError(t, http.MethodHead, reservation.ErrReservationNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestCustomHTTPErrorHandler_送信済みなら何もしない(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	CustomHTTPErrorHandler(reservation.ErrConflict, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
