package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/pkg/cache"
	"showtime-reservation/pkg/clock"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const sweepLeaseKey = "sweeper:lease"

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
	Workers   int
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  30 * time.Second,
		BatchSize: 100,
		Workers:   4,
	}
}

// ExpirySweeper returns the seats of lapsed PENDING holds to the pool.
// The PENDING->EXPIRED ledger transition is the gate: only the caller that
// wins it releases seats, so periodic sweeps, lazy sweeps and overlapping
// ticks may all race on the same booking.
type ExpirySweeper struct {
	repo     *repository.Repository
	clock    clock.Clock
	events   EventPublisher
	seatMaps *seatMapCache
	locker   cache.Locker
	config   SweeperConfig
	log      *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewExpirySweeper(
	repo *repository.Repository,
	clk clock.Clock,
	events EventPublisher,
	seatMaps *seatMapCache,
	locker cache.Locker,
	config SweeperConfig,
	log *zap.Logger,
) *ExpirySweeper {
	def := DefaultSweeperConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if locker == nil {
		locker = cache.Noop{}
	}

	return &ExpirySweeper{
		repo:     repo,
		clock:    clk,
		events:   events,
		seatMaps: seatMaps,
		locker:   locker,
		config:   config,
		log:      log.With(zap.String("service", "expiry_sweeper")),
		done:     make(chan struct{}),
	}
}

// Start runs SweepOnce every interval until Stop is called or ctx ends.
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	s.log.Info("Expiry sweeper started", zap.Duration("interval", s.config.Interval))
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	s.log.Info("Expiry sweeper stopped")
}

func (s *ExpirySweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *ExpirySweeper) tick(ctx context.Context) {
	release, ok, err := s.locker.TryLock(ctx, sweepLeaseKey, s.config.Interval)
	if err != nil {
		// The lease only avoids duplicate work across instances.
		s.log.Warn("Sweep lease unavailable, sweeping anyway", zap.Error(err))
	} else if !ok {
		s.log.Debug("Sweep lease held elsewhere, skipping tick")
		return
	} else {
		defer release()
	}

	reclaimed, err := s.SweepOnce(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("Sweep finished with errors", zap.Error(err), zap.Int("reclaimed", reclaimed))
		return
	}
	if reclaimed > 0 {
		s.log.Info("Expired holds reclaimed", zap.Int("reclaimed", reclaimed))
	}
}

// SweepOnce reclaims up to one batch of holds expired at now. Each booking
// is reclaimed independently; failures are aggregated and left for the
// next pass.
func (s *ExpirySweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.Booking.FindExpiredPending(ctx, now, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("find expired holds: %w", err)
	}
	return s.reclaimAll(ctx, expired, now)
}

// SweepSlot reclaims every expired hold of one slot. It is the lazy entry
// point used before reads and new holds.
func (s *ExpirySweeper) SweepSlot(ctx context.Context, slotID uuid.UUID, now time.Time) (int, error) {
	expired, err := s.repo.Booking.FindExpiredPendingBySlot(ctx, slotID, now)
	if err != nil {
		return 0, fmt.Errorf("find expired holds for slot %s: %w", slotID, err)
	}
	return s.reclaimAll(ctx, expired, now)
}

func (s *ExpirySweeper) reclaimAll(ctx context.Context, bookings []*entity.Booking, now time.Time) (int, error) {
	if len(bookings) == 0 {
		return 0, nil
	}

	var (
		mu        sync.Mutex
		reclaimed int
		errs      error
	)

	p := pool.New().WithMaxGoroutines(s.config.Workers)
	for _, b := range bookings {
		b := b
		p.Go(func() {
			won, err := s.Reclaim(ctx, b, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, err)
				return
			}
			if won {
				reclaimed++
			}
		})
	}
	p.Wait()

	return reclaimed, errs
}

// Reclaim expires one hold and releases its seats. It reports false when
// the booking was not expired at now or another writer changed it first.
func (s *ExpirySweeper) Reclaim(ctx context.Context, booking *entity.Booking, now time.Time) (bool, error) {
	if !booking.ExpiredAt(now) {
		return false, nil
	}

	var won bool
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Booking.TransitionStatus(ctx, booking.ID, entity.BookingStatusPending, entity.BookingStatusExpired, "", now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		won = true

		_, err = s.repo.Seat.Release(ctx, booking.SlotID, booking.SeatsBooked, booking.UserID)
		return err
	})
	if err != nil {
		s.log.Error("Failed to reclaim expired hold",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("slot_id", booking.SlotID.String()),
		)
		return false, fmt.Errorf("reclaim booking %s: %w", booking.ID, err)
	}
	if !won {
		return false, nil
	}

	s.seatMaps.invalidate(ctx, booking.SlotID)

	expired := *booking
	expired.Status = entity.BookingStatusExpired
	expired.ExpiresAt = nil
	expired.UpdatedAt = now
	s.events.Publish(ctx, newBookingEvent(EventBookingExpired, &expired, now))

	s.log.Info("Hold expired",
		zap.String("booking_id", booking.ID.String()),
		zap.String("slot_id", booking.SlotID.String()),
		zap.Strings("seats", booking.SeatsBooked),
	)
	return true, nil
}
