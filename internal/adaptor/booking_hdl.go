package adaptor

import (
	"encoding/json"
	"net/http"
	"time"

	"showtime-reservation/internal/dto/request"
	"showtime-reservation/internal/dto/response"
	"showtime-reservation/internal/usecase"
	"showtime-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.ReservationService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateHold handles POST /api/holds
func (h *BookingHandler) CreateHold(w http.ResponseWriter, r *http.Request) {
	var req request.CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	userID := uuid.MustParse(req.UserID)
	slotID := uuid.MustParse(req.SlotID)
	ttl := time.Duration(req.TTLSeconds) * time.Second

	booking, err := h.service.CreateHold(r.Context(), userID, slotID, req.SeatLabels, ttl)
	if err != nil {
		handleServiceError(h.log, w, err, "create hold")
		return
	}

	utils.ResponseCreated(w, "success", response.HoldToResponse(booking))
}

// ConfirmBooking handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := parseIDParam(w, r, "id", "Booking ID")
	if !ok {
		return
	}

	var req request.ConfirmBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.Confirm(r.Context(), bookingID, req.PaymentRef)
	if err != nil {
		handleServiceError(h.log, w, err, "confirm booking")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToStatusResponse(booking))
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := parseIDParam(w, r, "id", "Booking ID")
	if !ok {
		return
	}

	booking, err := h.service.Cancel(r.Context(), bookingID)
	if err != nil {
		handleServiceError(h.log, w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToStatusResponse(booking))
}

// GetBookingByID handles GET /api/bookings/{id}
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := parseIDParam(w, r, "id", "Booking ID")
	if !ok {
		return
	}

	booking, err := h.service.Get(r.Context(), bookingID)
	if err != nil {
		handleServiceError(h.log, w, err, "get booking by ID")
		return
	}

	utils.ResponseSuccess(w, "success", response.BookingToResponse(booking))
}

// GetUserBookings handles GET /api/bookings?user_id=&page=&per_page=
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.ListBookingsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.QueryInt(query, "page", 1),
			PerPage: utils.QueryInt(query, "per_page", request.DefaultPerPage),
		},
		UserID: query.Get("user_id"),
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	bookings, total, err := h.service.ListByUser(r.Context(), uuid.MustParse(req.UserID), req.Limit(), req.Offset())
	if err != nil {
		handleServiceError(h.log, w, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success",
		response.NewPage(response.BookingsToResponse(bookings), req.Page, req.PerPage, total))
}

func parseIDParam(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		utils.ResponseBadRequest(w, label+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.ResponseBadRequest(w, label+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
