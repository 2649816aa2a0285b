package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"showtime-reservation/internal/data/entity"

	"github.com/google/uuid"
)

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	onUndo, unlock := r.s.lockSlot(ctx, booking.SlotID)
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; ok {
		return fmt.Errorf("create booking %s: duplicate id", booking.ID)
	}
	key := userSlot{userID: booking.UserID, slotID: booking.SlotID}
	if booking.Status.Active() {
		if _, taken := r.s.active[key]; taken {
			return entity.ErrDuplicateActiveBooking
		}
		r.s.active[key] = booking.ID
		onUndo(func() { delete(r.s.active, key) })
	}

	r.s.bookings[booking.ID] = cloneBooking(booking)
	onUndo(func() { delete(r.s.bookings, booking.ID) })
	return nil
}

// lockBooking takes the lock of the booking's slot. ok is false when the
// booking does not exist.
func (r *bookingRepository) lockBooking(ctx context.Context, id uuid.UUID) (onUndo func(func()), unlock func(), ok bool) {
	slotID, ok := r.s.bookingSlot(id)
	if !ok {
		return nil, nil, false
	}
	onUndo, unlock = r.s.lockSlot(ctx, slotID)
	return onUndo, unlock, true
}

// FindByID waits for writers of the booking's slot, so a booking inserted
// by a transaction that later rolls back is never returned.
func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	_, unlock, ok := r.lockBooking(ctx, id)
	if !ok {
		return nil, nil
	}
	defer unlock()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	booking, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return cloneBooking(booking), nil
}

// FindByIDForUpdate is FindByID; inside a transaction the slot lock it takes
// is kept until the transaction ends.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("find bookings by user ID %s: limit %d offset %d: %w", userID, limit, offset, entity.ErrInvalidPage)
	}

	bookings := r.filter(func(b *entity.Booking) bool { return b.UserID == userID })
	sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })

	if offset >= len(bookings) {
		return nil, nil
	}
	bookings = bookings[offset:]
	if limit < len(bookings) {
		bookings = bookings[:limit]
	}
	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	bookings := r.filter(func(b *entity.Booking) bool { return b.UserID == userID })
	return int64(len(bookings)), nil
}

func (r *bookingRepository) FindBySlotID(ctx context.Context, slotID uuid.UUID) ([]*entity.Booking, error) {
	_, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()

	bookings := r.filter(func(b *entity.Booking) bool { return b.SlotID == slotID })
	sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].CreatedAt.Before(bookings[j].CreatedAt) })
	return bookings, nil
}

func (r *bookingRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	bookings := r.filter(func(b *entity.Booking) bool { return b.ExpiredAt(now) })
	sortByExpiry(bookings)
	if limit >= 0 && limit < len(bookings) {
		bookings = bookings[:limit]
	}
	return bookings, nil
}

func (r *bookingRepository) FindExpiredPendingBySlot(ctx context.Context, slotID uuid.UUID, now time.Time) ([]*entity.Booking, error) {
	_, unlock := r.s.lockSlot(ctx, slotID)
	defer unlock()

	bookings := r.filter(func(b *entity.Booking) bool { return b.SlotID == slotID && b.ExpiredAt(now) })
	sortByExpiry(bookings)
	return bookings, nil
}

func (r *bookingRepository) Confirm(ctx context.Context, id uuid.UUID, paymentRef string, now time.Time) (bool, error) {
	onUndo, unlock, ok := r.lockBooking(ctx, id)
	if !ok {
		return false, nil
	}
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	booking, ok := r.s.bookings[id]
	if !ok || booking.Status != entity.BookingStatusPending || booking.ExpiresAt == nil || now.After(*booking.ExpiresAt) {
		return false, nil
	}

	prev := cloneBooking(booking)
	ref, at := paymentRef, now
	booking.Status = entity.BookingStatusConfirmed
	booking.PaymentStatus = entity.PaymentStatusCompleted
	booking.PaymentRef = &ref
	booking.ConfirmedAt = &at
	booking.UpdatedAt = now
	booking.ExpiresAt = nil
	onUndo(func() { *booking = *prev })
	return true, nil
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, paymentStatus entity.PaymentStatus, now time.Time) (bool, error) {
	onUndo, unlock, ok := r.lockBooking(ctx, id)
	if !ok {
		return false, nil
	}
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	booking, ok := r.s.bookings[id]
	if !ok || booking.Status != from {
		return false, nil
	}

	prev := cloneBooking(booking)
	key := userSlot{userID: booking.UserID, slotID: booking.SlotID}
	booking.Status = to
	if paymentStatus != "" {
		booking.PaymentStatus = paymentStatus
	}
	if to != entity.BookingStatusPending {
		booking.ExpiresAt = nil
	}
	booking.UpdatedAt = now
	if from.Active() && !to.Active() {
		delete(r.s.active, key)
	}
	onUndo(func() {
		*booking = *prev
		if prev.Status.Active() {
			r.s.active[key] = prev.ID
		}
	})
	return true, nil
}

// filter scans every slot without waiting on slot locks. Callers that act on
// a result go back through a conditional transition.
func (r *bookingRepository) filter(keep func(*entity.Booking) bool) []*entity.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func sortByExpiry(bookings []*entity.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].ExpiresAt.Before(*bookings[j].ExpiresAt)
	})
}
