package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// Active reports whether the status still counts against the
// one-booking-per-user-per-slot rule.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusCompleted     PaymentStatus = "COMPLETED"
	PaymentStatusRefundPending PaymentStatus = "REFUND_PENDING"
)

type Booking struct {
	Record
	UpdatedAt     time.Time     `db:"updated_at"`
	UserID        uuid.UUID     `db:"user_id"`
	SlotID        uuid.UUID     `db:"slot_id"`
	ShowID        uuid.UUID     `db:"show_id"`
	NumSeats      int           `db:"num_seats"`
	TotalPrice    float64       `db:"total_price"`
	Status        BookingStatus `db:"status"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	PaymentRef    *string       `db:"payment_ref"`
	SeatsBooked   []string      `db:"seats_booked"`
	ExpiresAt     *time.Time    `db:"expires_at"` // only while PENDING
	ConfirmedAt   *time.Time    `db:"confirmed_at"`
}

// ExpiredAt reports whether a PENDING booking's hold has lapsed at now.
func (b *Booking) ExpiredAt(now time.Time) bool {
	return b.Status == BookingStatusPending && b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}
