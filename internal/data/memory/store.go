package memory

import (
	"context"
	"sync"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps shows, slots, seats and bookings in process memory.
//
// Every write that touches a slot's seats or bookings runs under that
// slot's lock, so writers of different slots never wait on each other.
// Reads scoped to one slot take the lock too and see only committed state.
// mu only guards map access and is never held while waiting for a slot
// lock. A transaction keeps the slot locks it took until it ends and rolls
// back by replaying an undo log.
type Store struct {
	mu  sync.RWMutex
	log *zap.Logger

	shows    map[uuid.UUID]*entity.Show
	slots    map[uuid.UUID]*entity.ShowSlot
	seats    map[uuid.UUID]map[string]*entity.Seat
	bookings map[uuid.UUID]*entity.Booking
	active   map[userSlot]uuid.UUID

	slotLocksMu sync.Mutex
	slotLocks   map[uuid.UUID]*sync.Mutex
}

type userSlot struct {
	userID uuid.UUID
	slotID uuid.UUID
}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		log:       log.With(zap.String("storage", "memory")),
		shows:     make(map[uuid.UUID]*entity.Show),
		slots:     make(map[uuid.UUID]*entity.ShowSlot),
		seats:     make(map[uuid.UUID]map[string]*entity.Seat),
		bookings:  make(map[uuid.UUID]*entity.Booking),
		active:    make(map[userSlot]uuid.UUID),
		slotLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// NewRepository returns repositories backed by a fresh Store.
func NewRepository(log *zap.Logger) *repository.Repository {
	return NewStore(log).Repository()
}

func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Tx:      s,
		Show:    &showRepository{s: s},
		Slot:    &slotRepository{s: s},
		Seat:    &seatRepository{s: s},
		Booking: &bookingRepository{s: s},
	}
}

type txKey struct{}

type memTx struct {
	store *Store
	held  map[uuid.UUID]*sync.Mutex
	order []uuid.UUID
	undo  []func()
}

func txFromContext(ctx context.Context, s *Store) *memTx {
	tx, _ := ctx.Value(txKey{}).(*memTx)
	if tx == nil || tx.store != s {
		return nil
	}
	return tx
}

// WithTx runs fn as one unit. Slot locks are taken lazily by the
// repository calls inside fn; a transaction touching several slots must
// touch them in a consistent order.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx, s) != nil {
		return fn(ctx)
	}

	tx := &memTx{store: s, held: make(map[uuid.UUID]*sync.Mutex)}
	defer func() {
		for i := len(tx.order) - 1; i >= 0; i-- {
			tx.held[tx.order[i]].Unlock()
		}
	}()

	err := fn(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
	}
	return err
}

// addSlotLock registers the lock of a slot about to be created.
func (s *Store) addSlotLock(slotID uuid.UUID) {
	s.slotLocksMu.Lock()
	defer s.slotLocksMu.Unlock()

	if _, ok := s.slotLocks[slotID]; !ok {
		s.slotLocks[slotID] = &sync.Mutex{}
	}
}

// slotLock returns nil for a slot that was never created, so lookups of
// unknown ids leave nothing behind.
func (s *Store) slotLock(slotID uuid.UUID) *sync.Mutex {
	s.slotLocksMu.Lock()
	defer s.slotLocksMu.Unlock()
	return s.slotLocks[slotID]
}

// lockSlot serializes writers of one slot. Inside a transaction the lock is
// taken once, kept until the transaction ends, and onUndo records rollback
// steps; outside one, unlock releases it and onUndo is a no-op. Undo steps
// run with mu held.
func (s *Store) lockSlot(ctx context.Context, slotID uuid.UUID) (onUndo func(func()), unlock func()) {
	tx := txFromContext(ctx, s)
	if tx != nil {
		onUndo = func(f func()) { tx.undo = append(tx.undo, f) }
		if _, ok := tx.held[slotID]; ok {
			return onUndo, func() {}
		}
	} else {
		onUndo = func(func()) {}
	}

	m := s.slotLock(slotID)
	if m == nil {
		return onUndo, func() {}
	}
	m.Lock()
	if tx == nil {
		return onUndo, m.Unlock
	}
	tx.held[slotID] = m
	tx.order = append(tx.order, slotID)
	return onUndo, func() {}
}

// undoLog returns the rollback recorder for writes that need no slot lock.
func (s *Store) undoLog(ctx context.Context) func(func()) {
	if tx := txFromContext(ctx, s); tx != nil {
		return func(f func()) { tx.undo = append(tx.undo, f) }
	}
	return func(func()) {}
}

// bookingSlot returns the slot a booking belongs to. It never changes.
func (s *Store) bookingSlot(id uuid.UUID) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return uuid.Nil, false
	}
	return b.SlotID, true
}

func cloneSeat(seat *entity.Seat) *entity.Seat {
	c := *seat
	if seat.BookedBy != nil {
		by := *seat.BookedBy
		c.BookedBy = &by
	}
	if seat.BookedAt != nil {
		at := *seat.BookedAt
		c.BookedAt = &at
	}
	return &c
}

func cloneBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.SeatsBooked = append([]string(nil), b.SeatsBooked...)
	if b.PaymentRef != nil {
		ref := *b.PaymentRef
		c.PaymentRef = &ref
	}
	if b.ExpiresAt != nil {
		at := *b.ExpiresAt
		c.ExpiresAt = &at
	}
	if b.ConfirmedAt != nil {
		at := *b.ConfirmedAt
		c.ConfirmedAt = &at
	}
	return &c
}
