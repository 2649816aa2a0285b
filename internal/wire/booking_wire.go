package wire

import (
	"showtime-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler) {
	// POST /api/holds - claim seats for a limited time
	r.Post("/api/holds", bookingHandler.CreateHold)

	r.Route("/api/bookings", func(r chi.Router) {
		// GET /api/bookings?user_id= - booking history of one user
		r.Get("/", bookingHandler.GetUserBookings)
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// POST /api/bookings/{id}/confirm - payment succeeded upstream
		r.Post("/{id}/confirm", bookingHandler.ConfirmBooking)
		r.Post("/{id}/cancel", bookingHandler.CancelBooking)
	})
}
