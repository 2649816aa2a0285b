package adaptor

import (
	"showtime-reservation/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Slot    *SlotHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Reservation, log),
		Slot:    NewSlotHandler(service.Inventory, service.Reservation, log),
	}
}
