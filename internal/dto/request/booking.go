package request

type CreateHoldRequest struct {
	UserID     string   `json:"user_id" validate:"required,uuid"`
	SlotID     string   `json:"slot_id" validate:"required,uuid"`
	SeatLabels []string `json:"seat_labels" validate:"required,min=1,dive,required,alphanum,max=10"`
	// TTLSeconds overrides the default hold lifetime when positive.
	TTLSeconds int `json:"ttl_seconds,omitempty" validate:"min=0,max=3600"`
}

type ConfirmBookingRequest struct {
	PaymentRef string `json:"payment_ref" validate:"required,max=255"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	UserID string `json:"user_id" validate:"required,uuid"`
}
