package wire

import (
	"showtime-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSlot(r chi.Router, slotHandler *adaptor.SlotHandler) {
	r.Route("/api/slots/{id}", func(r chi.Router) {
		r.Get("/seats", slotHandler.GetSeatMap)
		r.Get("/bookings", slotHandler.GetSlotBookings)
	})
}
