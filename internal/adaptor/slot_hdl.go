package adaptor

import (
	"net/http"

	"showtime-reservation/internal/dto/response"
	"showtime-reservation/internal/usecase"
	"showtime-reservation/pkg/utils"

	"go.uber.org/zap"
)

type SlotHandler struct {
	inventory    usecase.InventoryService
	reservations usecase.ReservationService
	log          *zap.Logger
}

func NewSlotHandler(inventory usecase.InventoryService, reservations usecase.ReservationService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{
		inventory:    inventory,
		reservations: reservations,
		log:          log.With(zap.String("handler", "slot")),
	}
}

// GetSeatMap handles GET /api/slots/{id}/seats
func (h *SlotHandler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	slotID, ok := parseIDParam(w, r, "id", "Slot ID")
	if !ok {
		return
	}

	seats, err := h.inventory.QuerySeats(r.Context(), slotID)
	if err != nil {
		handleServiceError(h.log, w, err, "get seat map")
		return
	}

	slot, err := h.inventory.GetSlot(r.Context(), slotID)
	if err != nil {
		handleServiceError(h.log, w, err, "get seat map")
		return
	}

	utils.ResponseSuccess(w, "success", response.SeatMapToResponse(slot, seats))
}

// GetSlotBookings handles GET /api/slots/{id}/bookings
func (h *SlotHandler) GetSlotBookings(w http.ResponseWriter, r *http.Request) {
	slotID, ok := parseIDParam(w, r, "id", "Slot ID")
	if !ok {
		return
	}

	bookings, err := h.reservations.ListBySlot(r.Context(), slotID)
	if err != nil {
		handleServiceError(h.log, w, err, "get slot bookings")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingsToResponse(bookings))
}
