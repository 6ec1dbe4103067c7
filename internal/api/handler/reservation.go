package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/application"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

// CreateReservationRequest は予約作成リクエスト
// 日付・時刻の形式と必須チェックはサービス側でフィールドごとに行う
type CreateReservationRequest struct {
	Room      string `json:"room" validate:"max=100" example:"会議室A"`
	Requester string `json:"requester" validate:"max=100" example:"山田太郎"`
	Date      string `json:"date" example:"2030-04-01"`
	TimeFrom  string `json:"time_from" example:"10:00"`
	TimeTo    string `json:"time_to" example:"11:00"`
}

type ReservationResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Room      string    `json:"room" example:"会議室A"`
	Requester string    `json:"requester" example:"山田太郎"`
	Date      string    `json:"date" example:"2030-04-01"`
	TimeFrom  string    `json:"time_from" example:"10:00"`
	TimeTo    string    `json:"time_to" example:"11:00"`
	CreatedAt time.Time `json:"created_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, Room: r.Room, Requester: r.Requester,
		Date: r.Date.String(), TimeFrom: r.TimeFrom.String(), TimeTo: r.TimeTo.String(),
		CreatedAt: r.CreatedAt,
	}
}

// List godoc
// @Summary 会議室・日付の予約一覧を取得
// @Description 指定した会議室と日付の予約を開始時刻順で返します
// @Tags reservations
// @Produce json
// @Param room query string true "会議室"
// @Param date query string true "日付（YYYY-MM-DD）"
// @Success 200 {array} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	room := c.QueryParam("room")
	date, err := reservation.ParseDate(c.QueryParam("date"))
	if err != nil {
		// 会議室の指定漏れを日付の形式より先に報告する
		if strings.TrimSpace(room) == "" {
			return reservation.ErrRoomRequired
		}
		return err
	}

	reservations, err := h.service.ListReservations(c.Request().Context(), room, date)
	if err != nil {
		return err
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary 予約を作成
// @Description 会議室を1時間以上の枠で予約します。境界が接する予約とも重複とみなします
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "時間帯が既存の予約と重複"
// @Failure 503 {object} api.ErrorResponse "予約枠のロックを取得できない"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		Room: req.Room, Requester: req.Requester, Date: req.Date, TimeFrom: req.TimeFrom, TimeTo: req.TimeTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約を削除し、時間帯を解放します。予約日を過ぎた予約はキャンセルできません
// @Tags reservations
// @Param id path string true "予約ID"
// @Success 204
// @Failure 400 {object} api.ErrorResponse "予約日を過ぎている"
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	if err := h.service.CancelReservation(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
