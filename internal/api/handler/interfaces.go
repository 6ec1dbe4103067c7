package handler

import (
	"context"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/application"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	CancelReservation(ctx context.Context, id string) error
	ListReservations(ctx context.Context, room string, date reservation.Date) ([]*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
}
