package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func newSlot(t *testing.T, labels ...string) (*repository.Repository, *entity.ShowSlot) {
	t.Helper()
	repo := NewRepository(zap.NewNop())
	return repo, addSlot(t, repo, labels...)
}

func addSlot(t *testing.T, repo *repository.Repository, labels ...string) *entity.ShowSlot {
	t.Helper()
	ctx := context.Background()

	show := &entity.Show{Record: entity.Record{ID: uuid.New(), CreatedAt: testNow}, Name: "Hamlet"}
	if err := repo.Show.Create(ctx, show); err != nil {
		t.Fatalf("create show: %v", err)
	}

	slot := &entity.ShowSlot{
		Record:         entity.Record{ID: uuid.New(), CreatedAt: testNow},
		ShowID:         show.ID,
		StartTime:      testNow.Add(time.Hour),
		EndTime:        testNow.Add(3 * time.Hour),
		TotalSeats:     len(labels),
		AvailableSeats: len(labels),
		Price:          100,
	}
	if err := repo.Slot.Create(ctx, slot); err != nil {
		t.Fatalf("create slot: %v", err)
	}

	seats := make([]*entity.Seat, len(labels))
	for i, l := range labels {
		seats[i] = &entity.Seat{
			Record:     entity.Record{ID: uuid.New(), CreatedAt: testNow},
			SlotID:     slot.ID,
			SeatNumber: l,
			Status:     entity.SeatStatusAvailable,
		}
	}
	if err := repo.Seat.CreateBatch(ctx, seats); err != nil {
		t.Fatalf("create seats: %v", err)
	}
	return slot
}

func seatStatus(t *testing.T, repo *repository.Repository, slotID uuid.UUID) map[string]entity.SeatStatus {
	t.Helper()
	seats, err := repo.Seat.FindBySlotID(context.Background(), slotID)
	if err != nil {
		t.Fatalf("find seats: %v", err)
	}
	out := make(map[string]entity.SeatStatus, len(seats))
	for _, s := range seats {
		out[s.SeatNumber] = s.Status
	}
	return out
}

func pendingBooking(userID, slotID uuid.UUID, labels ...string) *entity.Booking {
	exp := testNow.Add(5 * time.Minute)
	return &entity.Booking{
		Record:        entity.Record{ID: uuid.New(), CreatedAt: testNow},
		UpdatedAt:     testNow,
		UserID:        userID,
		SlotID:        slotID,
		NumSeats:      len(labels),
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		SeatsBooked:   labels,
		ExpiresAt:     &exp,
	}
}

func TestTryClaimIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1", "A2", "A3")
	alice, bob := uuid.New(), uuid.New()

	if err := repo.Seat.TryClaim(ctx, slot.ID, []string{"A2"}, alice, testNow); err != nil {
		t.Fatalf("claim A2: %v", err)
	}

	err := repo.Seat.TryClaim(ctx, slot.ID, []string{"A1", "A2", "A3"}, bob, testNow)
	var unavailable *entity.SeatUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SeatUnavailableError, got %v", err)
	}
	if len(unavailable.Seats) != 1 || unavailable.Seats[0] != "A2" {
		t.Fatalf("expected conflict on A2 only, got %v", unavailable.Seats)
	}

	got := seatStatus(t, repo, slot.ID)
	if got["A1"] != entity.SeatStatusAvailable || got["A3"] != entity.SeatStatusAvailable {
		t.Fatalf("failed claim must not change other seats, got %v", got)
	}

	s, _ := repo.Slot.FindByID(ctx, slot.ID)
	if s.AvailableSeats != 2 {
		t.Fatalf("expected 2 available, got %d", s.AvailableSeats)
	}
}

func TestTryClaimUnknownSeat(t *testing.T) {
	repo, slot := newSlot(t, "A1")

	err := repo.Seat.TryClaim(context.Background(), slot.ID, []string{"A1", "Z9"}, uuid.New(), testNow)
	if !errors.Is(err, entity.ErrUnknownSeat) {
		t.Fatalf("expected ErrUnknownSeat, got %v", err)
	}
	if got := seatStatus(t, repo, slot.ID)["A1"]; got != entity.SeatStatusAvailable {
		t.Fatalf("expected A1 AVAILABLE, got %s", got)
	}
}

func TestReleaseIsIdempotentAndHolderScoped(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1", "A2")
	alice, bob := uuid.New(), uuid.New()

	if err := repo.Seat.TryClaim(ctx, slot.ID, []string{"A1"}, alice, testNow); err != nil {
		t.Fatalf("claim: %v", err)
	}

	n, err := repo.Seat.Release(ctx, slot.ID, []string{"A1"}, bob)
	if err != nil || n != 0 {
		t.Fatalf("release by another holder: n=%d err=%v", n, err)
	}

	for i, want := range []int{1, 0} {
		n, err := repo.Seat.Release(ctx, slot.ID, []string{"A1", "A2"}, alice)
		if err != nil {
			t.Fatalf("release #%d: %v", i, err)
		}
		if n != want {
			t.Fatalf("release #%d: expected %d released, got %d", i, want, n)
		}
	}

	s, _ := repo.Slot.FindByID(ctx, slot.ID)
	if s.AvailableSeats != 2 {
		t.Fatalf("expected 2 available, got %d", s.AvailableSeats)
	}
}

func TestFinalizeRequiresHeldSeats(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1", "A2")
	alice := uuid.New()

	if err := repo.Seat.TryClaim(ctx, slot.ID, []string{"A1"}, alice, testNow); err != nil {
		t.Fatalf("claim: %v", err)
	}

	err := repo.Seat.Finalize(ctx, slot.ID, []string{"A1", "A2"}, alice, testNow)
	if !errors.Is(err, entity.ErrSeatStateMismatch) {
		t.Fatalf("expected ErrSeatStateMismatch, got %v", err)
	}
	if got := seatStatus(t, repo, slot.ID)["A1"]; got != entity.SeatStatusHeld {
		t.Fatalf("failed finalize must not change A1, got %s", got)
	}

	if err := repo.Seat.Finalize(ctx, slot.ID, []string{"A1"}, alice, testNow); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := seatStatus(t, repo, slot.ID)["A1"]; got != entity.SeatStatusBooked {
		t.Fatalf("expected BOOKED, got %s", got)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1", "A2")
	alice := uuid.New()
	booking := pendingBooking(alice, slot.ID, "A1", "A2")
	boom := errors.New("boom")

	err := repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := repo.Booking.Create(ctx, booking); err != nil {
			return err
		}
		if err := repo.Seat.TryClaim(ctx, slot.ID, booking.SeatsBooked, alice, testNow); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if b, _ := repo.Booking.FindByID(ctx, booking.ID); b != nil {
		t.Fatalf("booking should have been rolled back")
	}
	for label, st := range seatStatus(t, repo, slot.ID) {
		if st != entity.SeatStatusAvailable {
			t.Fatalf("seat %s should be AVAILABLE after rollback, got %s", label, st)
		}
	}
	s, _ := repo.Slot.FindByID(ctx, slot.ID)
	if s.AvailableSeats != 2 {
		t.Fatalf("expected 2 available after rollback, got %d", s.AvailableSeats)
	}

	// The active (user, slot) slot is free again.
	if err := repo.Booking.Create(ctx, pendingBooking(alice, slot.ID, "A1")); err != nil {
		t.Fatalf("create after rollback: %v", err)
	}
}

func TestTransactionLocksOnlyItsSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(zap.NewNop())
	first := addSlot(t, repo, "A1", "A2")
	second := addSlot(t, repo, "A1", "A2")
	alice, bob := uuid.New(), uuid.New()
	hold := pendingBooking(alice, first.ID, "A1")

	claimed := make(chan struct{})
	finish := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- repo.Tx.WithTx(ctx, func(ctx context.Context) error {
			if err := repo.Booking.Create(ctx, hold); err != nil {
				return err
			}
			if err := repo.Seat.TryClaim(ctx, first.ID, []string{"A1"}, alice, testNow); err != nil {
				return err
			}
			close(claimed)
			<-finish
			return nil
		})
	}()

	select {
	case <-claimed:
	case err := <-txDone:
		t.Fatalf("transaction ended early: %v", err)
	}

	other := make(chan error, 1)
	go func() {
		other <- repo.Seat.TryClaim(ctx, second.ID, []string{"A1"}, bob, testNow)
	}()
	select {
	case err := <-other:
		if err != nil {
			close(finish)
			t.Fatalf("claim on second slot: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(finish)
		t.Fatalf("claim on second slot waited for a transaction on the first")
	}

	same := make(chan error, 1)
	go func() {
		same <- repo.Seat.TryClaim(ctx, first.ID, []string{"A1"}, bob, testNow)
	}()
	select {
	case err := <-same:
		close(finish)
		t.Fatalf("claim on the locked slot returned before commit: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(finish)
	if err := <-txDone; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := <-same; !errors.Is(err, entity.ErrSeatUnavailable) {
		t.Fatalf("expected ErrSeatUnavailable after commit, got %v", err)
	}
	if st := seatStatus(t, repo, second.ID)["A1"]; st != entity.SeatStatusHeld {
		t.Fatalf("expected second slot A1 HELD, got %s", st)
	}
}

func TestReadWaitsForRollback(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1")
	alice := uuid.New()
	hold := pendingBooking(alice, slot.ID, "A1")
	boom := errors.New("boom")

	inserted := make(chan struct{})
	finish := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- repo.Tx.WithTx(ctx, func(ctx context.Context) error {
			if err := repo.Booking.Create(ctx, hold); err != nil {
				return err
			}
			if err := repo.Seat.TryClaim(ctx, slot.ID, hold.SeatsBooked, alice, testNow); err != nil {
				return err
			}
			close(inserted)
			<-finish
			return boom
		})
	}()

	select {
	case <-inserted:
	case err := <-txDone:
		t.Fatalf("transaction ended early: %v", err)
	}

	type result struct {
		booking *entity.Booking
		slot    *entity.ShowSlot
	}
	read := make(chan result, 1)
	go func() {
		b, _ := repo.Booking.FindByID(ctx, hold.ID)
		s, _ := repo.Slot.FindByID(ctx, slot.ID)
		read <- result{booking: b, slot: s}
	}()

	time.Sleep(20 * time.Millisecond)
	close(finish)
	if err := <-txDone; !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got := <-read
	if got.booking != nil {
		t.Fatalf("expected rolled back booking to stay invisible, got %+v", got.booking)
	}
	if got.slot == nil || got.slot.AvailableSeats != 1 {
		t.Fatalf("expected committed tally of 1 available, got %+v", got.slot)
	}
}

func TestFindByUserIDRejectsNegativeWindow(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1")
	alice := uuid.New()
	if err := repo.Booking.Create(ctx, pendingBooking(alice, slot.ID, "A1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name          string
		limit, offset int
	}{
		{"negative offset", 10, -100},
		{"negative limit", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Booking.FindByUserID(ctx, alice, tt.limit, tt.offset)
			if !errors.Is(err, entity.ErrInvalidPage) {
				t.Fatalf("expected ErrInvalidPage, got %v", err)
			}
		})
	}

	got, err := repo.Booking.FindByUserID(ctx, alice, 10, 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %d bookings err=%v", len(got), err)
	}
}

func TestActiveBookingUniqueness(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1", "A2")
	alice := uuid.New()

	first := pendingBooking(alice, slot.ID, "A1")
	if err := repo.Booking.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := repo.Booking.Create(ctx, pendingBooking(alice, slot.ID, "A2")); !errors.Is(err, entity.ErrDuplicateActiveBooking) {
		t.Fatalf("expected ErrDuplicateActiveBooking, got %v", err)
	}

	ok, err := repo.Booking.TransitionStatus(ctx, first.ID, entity.BookingStatusPending, entity.BookingStatusCancelled, "", testNow)
	if err != nil || !ok {
		t.Fatalf("cancel first: ok=%v err=%v", ok, err)
	}
	if err := repo.Booking.Create(ctx, pendingBooking(alice, slot.ID, "A2")); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
}

func TestTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1")
	b := pendingBooking(uuid.New(), slot.ID, "A1")
	if err := repo.Booking.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, _ := repo.Booking.TransitionStatus(ctx, b.ID, entity.BookingStatusPending, entity.BookingStatusExpired, "", testNow)
	if !ok {
		t.Fatalf("first transition should win")
	}
	ok, _ = repo.Booking.TransitionStatus(ctx, b.ID, entity.BookingStatusPending, entity.BookingStatusExpired, "", testNow)
	if ok {
		t.Fatalf("second transition should lose")
	}

	got, _ := repo.Booking.FindByID(ctx, b.ID)
	if got.Status != entity.BookingStatusExpired || got.ExpiresAt != nil {
		t.Fatalf("expected EXPIRED with cleared expiry, got %s %v", got.Status, got.ExpiresAt)
	}
}

func TestConfirmRespectsExpiry(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1")
	b := pendingBooking(uuid.New(), slot.ID, "A1")
	if err := repo.Booking.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := repo.Booking.Confirm(ctx, b.ID, "pay_1", b.ExpiresAt.Add(time.Second))
	if err != nil || ok {
		t.Fatalf("confirm after expiry must not apply: ok=%v err=%v", ok, err)
	}

	ok, err = repo.Booking.Confirm(ctx, b.ID, "pay_1", *b.ExpiresAt)
	if err != nil || !ok {
		t.Fatalf("confirm at expiry instant: ok=%v err=%v", ok, err)
	}

	got, _ := repo.Booking.FindByID(ctx, b.ID)
	if got.Status != entity.BookingStatusConfirmed || got.PaymentStatus != entity.PaymentStatusCompleted {
		t.Fatalf("unexpected state %s/%s", got.Status, got.PaymentStatus)
	}
	if got.PaymentRef == nil || *got.PaymentRef != "pay_1" || got.ConfirmedAt == nil || got.ExpiresAt != nil {
		t.Fatalf("confirm fields not stamped: %+v", got)
	}
}

func TestFindExpiredPending(t *testing.T) {
	ctx := context.Background()
	repo, slot := newSlot(t, "A1", "A2")

	live := pendingBooking(uuid.New(), slot.ID, "A1")
	stale := pendingBooking(uuid.New(), slot.ID, "A2")
	past := testNow.Add(-time.Minute)
	stale.ExpiresAt = &past
	for _, b := range []*entity.Booking{live, stale} {
		if err := repo.Booking.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.Booking.FindExpiredPending(ctx, testNow, 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].ID != stale.ID {
		t.Fatalf("expected only the stale booking, got %d", len(got))
	}

	bySlot, _ := repo.Booking.FindExpiredPendingBySlot(ctx, slot.ID, testNow)
	if len(bySlot) != 1 {
		t.Fatalf("expected 1 expired booking for slot, got %d", len(bySlot))
	}
}
