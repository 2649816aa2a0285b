package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"showtime-reservation/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type seatRepository struct {
	s *Store
}

// CreateBatch inserts the seats of one slot.
func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	slotID := seats[0].SlotID
	onUndo, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, seat := range seats {
		if seat.SlotID != slotID {
			return fmt.Errorf("create seat %s: batch mixes slots %s and %s", seat.SeatNumber, slotID, seat.SlotID)
		}
		if _, ok := r.s.slots[seat.SlotID]; !ok {
			return fmt.Errorf("create seat %s: %w", seat.SeatNumber, entity.ErrSlotNotFound)
		}
		if _, ok := r.s.seats[seat.SlotID][seat.SeatNumber]; ok {
			return fmt.Errorf("create seat %s: duplicate seat number in slot %s", seat.SeatNumber, seat.SlotID)
		}
	}

	for _, seat := range seats {
		bySlot, ok := r.s.seats[seat.SlotID]
		if !ok {
			bySlot = make(map[string]*entity.Seat)
			r.s.seats[seat.SlotID] = bySlot
		}
		bySlot[seat.SeatNumber] = cloneSeat(seat)

		label := seat.SeatNumber
		onUndo(func() { delete(r.s.seats[slotID], label) })
	}
	return nil
}

func (r *seatRepository) FindBySlotID(ctx context.Context, slotID uuid.UUID) ([]*entity.Seat, error) {
	_, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seats := make([]*entity.Seat, 0, len(r.s.seats[slotID]))
	for _, seat := range r.s.seats[slotID] {
		seats = append(seats, cloneSeat(seat))
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNumber < seats[j].SeatNumber })
	return seats, nil
}

func (r *seatRepository) CountByStatus(ctx context.Context, slotID uuid.UUID) (entity.SeatCounts, error) {
	_, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var counts entity.SeatCounts
	for _, seat := range r.s.seats[slotID] {
		switch seat.Status {
		case entity.SeatStatusAvailable:
			counts.Available++
		case entity.SeatStatusHeld:
			counts.Held++
		case entity.SeatStatusBooked:
			counts.Booked++
		}
	}
	return counts, nil
}

func (r *seatRepository) TryClaim(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID, now time.Time) error {
	onUndo, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	bySlot := r.s.seats[slotID]
	var unknown, unavailable []string
	for _, label := range labels {
		seat, ok := bySlot[label]
		switch {
		case !ok:
			unknown = append(unknown, label)
		case seat.Status != entity.SeatStatusAvailable:
			unavailable = append(unavailable, label)
		}
	}
	if len(unknown) > 0 {
		return &entity.UnknownSeatError{Seats: unknown}
	}
	if len(unavailable) > 0 {
		return &entity.SeatUnavailableError{Seats: unavailable}
	}

	for _, label := range labels {
		seat := bySlot[label]
		prev := cloneSeat(seat)
		by, at := holder, now
		seat.Status = entity.SeatStatusHeld
		seat.BookedBy = &by
		seat.BookedAt = &at
		onUndo(func() { *seat = *prev })
	}
	r.adjustAvailable(slotID, -len(labels), onUndo)
	return nil
}

func (r *seatRepository) Release(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID) (int, error) {
	onUndo, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	bySlot := r.s.seats[slotID]
	released := 0
	for _, label := range labels {
		seat, ok := bySlot[label]
		if !ok || !seat.HeldBy(holder) {
			continue
		}
		prev := cloneSeat(seat)
		seat.Status = entity.SeatStatusAvailable
		seat.BookedBy = nil
		seat.BookedAt = nil
		onUndo(func() { *seat = *prev })
		released++
	}
	if released > 0 {
		r.adjustAvailable(slotID, released, onUndo)
	}
	return released, nil
}

func (r *seatRepository) Finalize(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID, now time.Time) error {
	onUndo, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	bySlot := r.s.seats[slotID]
	for _, label := range labels {
		seat, ok := bySlot[label]
		if !ok || seat.Status != entity.SeatStatusHeld || !seat.HeldBy(holder) {
			r.s.log.Error("Seat state does not match booking",
				zap.String("slot_id", slotID.String()),
				zap.String("seat", label),
			)
			return entity.ErrSeatStateMismatch
		}
	}

	for _, label := range labels {
		seat := bySlot[label]
		prev := cloneSeat(seat)
		at := now
		seat.Status = entity.SeatStatusBooked
		seat.BookedAt = &at
		onUndo(func() { *seat = *prev })
	}
	return nil
}

func (r *seatRepository) adjustAvailable(slotID uuid.UUID, delta int, onUndo func(func())) {
	slot, ok := r.s.slots[slotID]
	if !ok {
		return
	}
	slot.AvailableSeats += delta
	onUndo(func() { slot.AvailableSeats -= delta })
}
