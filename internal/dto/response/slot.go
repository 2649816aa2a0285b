package response

import (
	"time"

	"showtime-reservation/internal/data/entity"
)

type SeatResponse struct {
	SeatNumber string            `json:"seat_number"`
	Status     entity.SeatStatus `json:"status"`
}

type SeatMapResponse struct {
	SlotID         string         `json:"slot_id"`
	ShowID         string         `json:"show_id"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	ScreenName     *string        `json:"screen_name,omitempty"`
	Price          float64        `json:"price"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
	Seats          []SeatResponse `json:"seats"`
}

// SeatMapToResponse hides holders; clients only see seat status.
func SeatMapToResponse(slot *entity.ShowSlot, seats []*entity.Seat) SeatMapResponse {
	resp := SeatMapResponse{
		SlotID:         slot.ID.String(),
		ShowID:         slot.ShowID.String(),
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		ScreenName:     slot.ScreenName,
		Price:          slot.Price,
		TotalSeats:     slot.TotalSeats,
		Seats:          make([]SeatResponse, len(seats)),
	}
	for i, seat := range seats {
		resp.Seats[i] = SeatResponse{SeatNumber: seat.SeatNumber, Status: seat.Status}
		if seat.Status == entity.SeatStatusAvailable {
			resp.AvailableSeats++
		}
	}
	return resp
}
