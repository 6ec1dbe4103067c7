package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/application"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   int               `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

const internalErrorMessage = "内部サーバーエラー"

// CustomHTTPErrorHandler はドメインのエラー種別をHTTPステータスに変換する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, resp := toErrorResponse(err)

	if code >= 500 {
		logger.FromContext(c.Request().Context()).Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, resp)
	}
	if err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func toErrorResponse(err error) (int, ErrorResponse) {
	var (
		he   *echo.HTTPError
		verr reservation.ValidationErrors
	)

	switch {
	case errors.As(err, &he):
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, ErrorResponse{Error: msg, Code: he.Code}
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{
			Error:  reservation.ErrInvalidArgument.Error(),
			Code:   http.StatusBadRequest,
			Fields: verr,
		}
	case errors.Is(err, reservation.ErrInvalidArgument):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: http.StatusBadRequest}
	case errors.Is(err, reservation.ErrPastBooking):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: http.StatusBadRequest}
	case errors.Is(err, reservation.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: http.StatusConflict}
	case errors.Is(err, reservation.ErrReservationNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: http.StatusNotFound}
	case errors.Is(err, application.ErrSlotBusy):
		return http.StatusServiceUnavailable, ErrorResponse{Error: application.ErrSlotBusy.Error(), Code: http.StatusServiceUnavailable}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage, Code: http.StatusInternalServerError}
	}
}
