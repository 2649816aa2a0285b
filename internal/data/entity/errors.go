package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSlotNotFound           = errors.New("show slot not found")
	ErrShowNotFound           = errors.New("show not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrSeatUnavailable        = errors.New("seats unavailable")
	ErrUnknownSeat            = errors.New("unknown seat")
	ErrInvalidSeatCount       = errors.New("invalid seat count")
	ErrDuplicateActiveBooking = errors.New("user already has an active booking for this slot")
	ErrHoldExpired            = errors.New("hold expired or no longer pending")
	ErrAlreadyTerminal        = errors.New("booking already terminal")
	ErrSeatStateMismatch      = errors.New("seat state does not match booking")
	ErrInvalidPage            = errors.New("invalid page window")
)

// SeatUnavailableError lists the requested seats that were not AVAILABLE.
type SeatUnavailableError struct {
	Seats []string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

func (e *SeatUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}

// UnknownSeatError lists labels that do not exist in the slot.
type UnknownSeatError struct {
	Seats []string
}

func (e *UnknownSeatError) Error() string {
	return fmt.Sprintf("unknown seat: %s", strings.Join(e.Seats, ", "))
}

func (e *UnknownSeatError) Is(target error) bool {
	return target == ErrUnknownSeat
}

// AlreadyTerminalError carries the status that blocked the transition.
type AlreadyTerminalError struct {
	Status BookingStatus
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("booking already %s", strings.ToLower(string(e.Status)))
}

func (e *AlreadyTerminalError) Is(target error) bool {
	return target == ErrAlreadyTerminal
}
