package entity

import (
	"time"

	"github.com/google/uuid"
)

// ShowSlot is one scheduled showing. TotalSeats is fixed at creation and
// always equals the number of Seat rows of the slot.
type ShowSlot struct {
	Record
	ShowID         uuid.UUID `db:"show_id"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	TotalSeats     int       `db:"total_seats"`
	AvailableSeats int       `db:"available_seats"`
	Price          float64   `db:"price"`
	ScreenName     *string   `db:"screen_name"`
}
