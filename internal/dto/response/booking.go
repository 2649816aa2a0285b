package response

import (
	"time"

	"showtime-reservation/internal/data/entity"
)

type HoldResponse struct {
	BookingID  string    `json:"booking_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	Seats      []string  `json:"seats"`
	TotalPrice float64   `json:"total_price"`
}

type BookingStatusResponse struct {
	BookingID     string               `json:"booking_id"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
}

type BookingResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	SlotID        string               `json:"slot_id"`
	ShowID        string               `json:"show_id"`
	NumSeats      int                  `json:"num_seats"`
	TotalPrice    float64              `json:"total_price"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	PaymentRef    *string              `json:"payment_ref,omitempty"`
	SeatsBooked   []string             `json:"seats_booked"`
	CreatedAt     time.Time            `json:"created_at"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
	ConfirmedAt   *time.Time           `json:"confirmed_at,omitempty"`
}

func HoldToResponse(b *entity.Booking) HoldResponse {
	resp := HoldResponse{
		BookingID:  b.ID.String(),
		Seats:      b.SeatsBooked,
		TotalPrice: b.TotalPrice,
	}
	if b.ExpiresAt != nil {
		resp.ExpiresAt = *b.ExpiresAt
	}
	return resp
}

func BookingToStatusResponse(b *entity.Booking) BookingStatusResponse {
	return BookingStatusResponse{
		BookingID:     b.ID.String(),
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID.String(),
		UserID:        b.UserID.String(),
		SlotID:        b.SlotID.String(),
		ShowID:        b.ShowID.String(),
		NumSeats:      b.NumSeats,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		PaymentRef:    b.PaymentRef,
		SeatsBooked:   b.SeatsBooked,
		CreatedAt:     b.CreatedAt,
		ExpiresAt:     b.ExpiresAt,
		ConfirmedAt:   b.ConfirmedAt,
	}
}

func BookingsToResponse(bookings []*entity.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = BookingToResponse(b)
	}
	return out
}
