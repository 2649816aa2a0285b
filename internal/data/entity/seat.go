package entity

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusBooked    SeatStatus = "BOOKED"
)

type Seat struct {
	Record
	SlotID     uuid.UUID  `db:"slot_id"`
	SeatNumber string     `db:"seat_number"` // A1, A2, B1, etc.
	Status     SeatStatus `db:"status"`
	BookedBy   *uuid.UUID `db:"booked_by"`
	BookedAt   *time.Time `db:"booked_at"`
}

// HeldBy reports whether the seat is held or booked by holder.
func (s *Seat) HeldBy(holder uuid.UUID) bool {
	return s.Status != SeatStatusAvailable && s.BookedBy != nil && *s.BookedBy == holder
}

// SeatCounts is the per-status occupancy of a slot.
type SeatCounts struct {
	Available int
	Held      int
	Booked    int
}

func (c SeatCounts) Total() int {
	return c.Available + c.Held + c.Booked
}
