package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/pkg/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// CreateHold claims seats of a slot for userID until now+ttl. ttl <= 0
	// uses the configured default.
	CreateHold(ctx context.Context, userID, slotID uuid.UUID, seatLabels []string, ttl time.Duration) (*entity.Booking, error)
	Confirm(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*entity.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)

	Get(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*entity.Booking, error)
}

type reservationService struct {
	repo     *repository.Repository
	sweeper  *ExpirySweeper
	clock    clock.Clock
	events   EventPublisher
	seatMaps *seatMapCache
	holdTTL  time.Duration
	log      *zap.Logger
}

const defaultHoldTTL = 5 * time.Minute

func NewReservationService(
	repo *repository.Repository,
	sweeper *ExpirySweeper,
	clk clock.Clock,
	events EventPublisher,
	seatMaps *seatMapCache,
	holdTTL time.Duration,
	log *zap.Logger,
) ReservationService {
	if holdTTL <= 0 {
		holdTTL = defaultHoldTTL
	}
	return &reservationService{
		repo:     repo,
		sweeper:  sweeper,
		clock:    clk,
		events:   events,
		seatMaps: seatMaps,
		holdTTL:  holdTTL,
		log:      log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) CreateHold(ctx context.Context, userID, slotID uuid.UUID, seatLabels []string, ttl time.Duration) (*entity.Booking, error) {
	labels := normalizeLabels(seatLabels)
	if len(labels) == 0 {
		return nil, fmt.Errorf("hold needs at least one seat: %w", entity.ErrInvalidSeatCount)
	}

	slot, err := s.repo.Slot.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("find slot %s: %w", slotID, err)
	}
	if slot == nil {
		return nil, entity.ErrSlotNotFound
	}
	if len(labels) > slot.TotalSeats {
		return nil, fmt.Errorf("%d seats requested, slot has %d: %w", len(labels), slot.TotalSeats, entity.ErrInvalidSeatCount)
	}

	if ttl <= 0 {
		ttl = s.holdTTL
	}
	now := s.clock.Now()

	// Free seats (and the caller's own lapsed booking) before claiming.
	if _, err := s.sweeper.SweepSlot(ctx, slotID, now); err != nil {
		s.log.Warn("Lazy sweep before hold failed", zap.Error(err), zap.String("slot_id", slotID.String()))
	}

	expiresAt := now.Add(ttl)
	booking := &entity.Booking{
		Record:        entity.Record{ID: uuid.New(), CreatedAt: now},
		UpdatedAt:     now,
		UserID:        userID,
		SlotID:        slot.ID,
		ShowID:        slot.ShowID,
		NumSeats:      len(labels),
		TotalPrice:    slot.Price * float64(len(labels)),
		Status:        entity.BookingStatusPending,
		PaymentStatus: entity.PaymentStatusPending,
		SeatsBooked:   labels,
		ExpiresAt:     &expiresAt,
	}

	// The insert goes first so the active-booking constraint is checked
	// before any seat is touched; a failed claim rolls the insert back.
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Booking.Create(ctx, booking); err != nil {
			return err
		}
		return s.repo.Seat.TryClaim(ctx, slot.ID, labels, userID, now)
	})
	if err != nil {
		if isConflict(err) {
			s.log.Info("Hold rejected",
				zap.Error(err),
				zap.String("user_id", userID.String()),
				zap.String("slot_id", slotID.String()),
				zap.Strings("seats", labels),
			)
			return nil, err
		}
		s.log.Error("Failed to create hold",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("slot_id", slotID.String()),
		)
		return nil, fmt.Errorf("create hold: %w", err)
	}

	s.seatMaps.invalidate(ctx, slot.ID)
	s.events.Publish(ctx, newBookingEvent(EventBookingHeld, booking, now))

	s.log.Info("Hold created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("slot_id", slotID.String()),
		zap.Strings("seats", labels),
		zap.Time("expires_at", expiresAt),
	)
	return booking, nil
}

func (s *reservationService) Confirm(ctx context.Context, bookingID uuid.UUID, paymentRef string) (*entity.Booking, error) {
	now := s.clock.Now()

	var confirmed *entity.Booking
	err := s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return entity.ErrBookingNotFound
		}
		if booking.Status != entity.BookingStatusPending {
			return fmt.Errorf("booking %s is %s: %w", bookingID, booking.Status, entity.ErrHoldExpired)
		}
		if booking.ExpiresAt == nil || now.After(*booking.ExpiresAt) {
			return fmt.Errorf("booking %s expired at %s: %w", bookingID, booking.ExpiresAt, entity.ErrHoldExpired)
		}

		ok, err := s.repo.Booking.Confirm(ctx, bookingID, paymentRef, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("booking %s changed concurrently: %w", bookingID, entity.ErrHoldExpired)
		}

		if err := s.repo.Seat.Finalize(ctx, booking.SlotID, booking.SeatsBooked, booking.UserID, now); err != nil {
			return err
		}

		confirmed, err = s.repo.Booking.FindByID(ctx, bookingID)
		return err
	})
	if err != nil {
		if isConflict(err) || errors.Is(err, entity.ErrBookingNotFound) {
			s.log.Info("Confirm rejected", zap.Error(err), zap.String("booking_id", bookingID.String()))
			return nil, err
		}
		s.log.Error("Failed to confirm booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("confirm booking %s: %w", bookingID, err)
	}

	s.seatMaps.invalidate(ctx, confirmed.SlotID)
	s.events.Publish(ctx, newBookingEvent(EventBookingConfirmed, confirmed, now))

	s.log.Info("Booking confirmed",
		zap.String("booking_id", bookingID.String()),
		zap.String("slot_id", confirmed.SlotID.String()),
		zap.Strings("seats", confirmed.SeatsBooked),
	)
	return confirmed, nil
}

func (s *reservationService) Cancel(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	now := s.clock.Now()

	// A lapsed hold is expired, not cancelled.
	current, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if current == nil {
		return nil, entity.ErrBookingNotFound
	}
	if current.ExpiredAt(now) {
		if _, err := s.sweeper.Reclaim(ctx, current, now); err != nil {
			return nil, err
		}
		return nil, &entity.AlreadyTerminalError{Status: entity.BookingStatusExpired}
	}

	var cancelled *entity.Booking
	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return entity.ErrBookingNotFound
		}

		var paymentStatus entity.PaymentStatus
		switch booking.Status {
		case entity.BookingStatusPending:
		case entity.BookingStatusConfirmed:
			paymentStatus = entity.PaymentStatusRefundPending
		default:
			return &entity.AlreadyTerminalError{Status: booking.Status}
		}

		ok, err := s.repo.Booking.TransitionStatus(ctx, bookingID, booking.Status, entity.BookingStatusCancelled, paymentStatus, now)
		if err != nil {
			return err
		}
		if !ok {
			latest, err := s.repo.Booking.FindByID(ctx, bookingID)
			if err != nil {
				return err
			}
			return &entity.AlreadyTerminalError{Status: latest.Status}
		}

		if _, err := s.repo.Seat.Release(ctx, booking.SlotID, booking.SeatsBooked, booking.UserID); err != nil {
			return err
		}

		cancelled, err = s.repo.Booking.FindByID(ctx, bookingID)
		return err
	})
	if err != nil {
		if isConflict(err) || errors.Is(err, entity.ErrBookingNotFound) {
			s.log.Info("Cancel rejected", zap.Error(err), zap.String("booking_id", bookingID.String()))
			return nil, err
		}
		s.log.Error("Failed to cancel booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	s.seatMaps.invalidate(ctx, cancelled.SlotID)
	s.events.Publish(ctx, newBookingEvent(EventBookingCancelled, cancelled, now))

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("slot_id", cancelled.SlotID.String()),
		zap.String("payment_status", string(cancelled.PaymentStatus)),
	)
	return cancelled, nil
}

func (s *reservationService) Get(ctx context.Context, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}

	refreshed, err := s.expireStale(ctx, []*entity.Booking{booking})
	if err != nil {
		return nil, err
	}
	return refreshed[0], nil
}

func (s *reservationService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, int64, error) {
	if limit < 1 || offset < 0 {
		return nil, 0, fmt.Errorf("list bookings for user %s: limit %d offset %d: %w", userID, limit, offset, entity.ErrInvalidPage)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings for user %s: %w", userID, err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count bookings for user %s: %w", userID, err)
	}

	bookings, err = s.expireStale(ctx, bookings)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *reservationService) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]*entity.Booking, error) {
	slot, err := s.repo.Slot.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("find slot %s: %w", slotID, err)
	}
	if slot == nil {
		return nil, entity.ErrSlotNotFound
	}

	if _, err := s.sweeper.SweepSlot(ctx, slotID, s.clock.Now()); err != nil {
		s.log.Warn("Lazy sweep before listing failed", zap.Error(err), zap.String("slot_id", slotID.String()))
	}

	bookings, err := s.repo.Booking.FindBySlotID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("list bookings for slot %s: %w", slotID, err)
	}
	return bookings, nil
}

// expireStale reclaims PENDING bookings that are past their expiry and
// replaces them with their current stored state.
func (s *reservationService) expireStale(ctx context.Context, bookings []*entity.Booking) ([]*entity.Booking, error) {
	now := s.clock.Now()
	for i, b := range bookings {
		if !b.ExpiredAt(now) {
			continue
		}
		if _, err := s.sweeper.Reclaim(ctx, b, now); err != nil {
			s.log.Warn("Lazy expiry failed", zap.Error(err), zap.String("booking_id", b.ID.String()))
			continue
		}
		latest, err := s.repo.Booking.FindByID(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("reload booking %s: %w", b.ID, err)
		}
		if latest != nil {
			bookings[i] = latest
		}
	}
	return bookings, nil
}

// normalizeLabels drops blanks and duplicates and sorts the rest.
func normalizeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// isConflict reports errors that describe a rejected request rather than
// a failure of the system.
func isConflict(err error) bool {
	return errors.Is(err, entity.ErrSeatUnavailable) ||
		errors.Is(err, entity.ErrUnknownSeat) ||
		errors.Is(err, entity.ErrDuplicateActiveBooking) ||
		errors.Is(err, entity.ErrHoldExpired) ||
		errors.Is(err, entity.ErrAlreadyTerminal) ||
		errors.Is(err, entity.ErrInvalidSeatCount) ||
		errors.Is(err, entity.ErrSlotNotFound)
}
