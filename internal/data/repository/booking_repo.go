package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository is the booking ledger. Status changes go through
// Confirm and TransitionStatus, which only apply when the row is still in
// the expected state and report whether they did.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindBySlotID(ctx context.Context, slotID uuid.UUID) ([]*entity.Booking, error)

	// Expiry queries
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
	FindExpiredPendingBySlot(ctx context.Context, slotID uuid.UUID, now time.Time) ([]*entity.Booking, error)

	// Conditional transitions
	Confirm(ctx context.Context, id uuid.UUID, paymentRef string, now time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, paymentStatus entity.PaymentStatus, now time.Time) (bool, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, user_id, slot_id, show_id, num_seats, total_price::float8, status, payment_status,
	payment_ref, seats_booked, created_at, updated_at, expires_at, confirmed_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.SlotID,
		&booking.ShowID,
		&booking.NumSeats,
		&booking.TotalPrice,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentRef,
		&booking.SeatsBooked,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.ExpiresAt,
		&booking.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, slot_id, show_id, num_seats, total_price, status, payment_status,
		                      payment_ref, seats_booked, created_at, updated_at, expires_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.UserID,
		booking.SlotID,
		booking.ShowID,
		booking.NumSeats,
		booking.TotalPrice,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentRef,
		booking.SeatsBooked,
		booking.CreatedAt,
		booking.UpdatedAt,
		booking.ExpiresAt,
		booking.ConfirmedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) && database.ConstraintName(err) == "bookings_active_user_slot" {
			return entity.ErrDuplicateActiveBooking
		}
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("user_id", booking.UserID.String()),
			zap.String("slot_id", booking.SlotID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookingRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Booking, error) {
	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}
	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("find bookings by user ID %s: limit %d offset %d: %w", userID, limit, offset, entity.ErrInvalidPage)
	}

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	bookings, err := r.findMany(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID, err)
	}
	return bookings, nil
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID, err)
	}

	return count, nil
}

func (r *bookingRepository) FindBySlotID(ctx context.Context, slotID uuid.UUID) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE slot_id = $1 ORDER BY created_at`

	bookings, err := r.findMany(ctx, query, slotID)
	if err != nil {
		r.log.Error("Failed to find bookings by slot ID",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
		)
		return nil, fmt.Errorf("find bookings by slot ID %s: %w", slotID, err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'PENDING' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	bookings, err := r.findMany(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired bookings", zap.Error(err), zap.Time("now", now))
		return nil, fmt.Errorf("find expired bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindExpiredPendingBySlot(ctx context.Context, slotID uuid.UUID, now time.Time) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE slot_id = $1 AND status = 'PENDING' AND expires_at <= $2
		ORDER BY expires_at
	`

	bookings, err := r.findMany(ctx, query, slotID, now)
	if err != nil {
		r.log.Error("Failed to find expired bookings for slot",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
		)
		return nil, fmt.Errorf("find expired bookings for slot %s: %w", slotID, err)
	}
	return bookings, nil
}

func (r *bookingRepository) findMany(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) Confirm(ctx context.Context, id uuid.UUID, paymentRef string, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'CONFIRMED', payment_status = 'COMPLETED', payment_ref = $2,
		    confirmed_at = $3, updated_at = $3, expires_at = NULL
		WHERE id = $1 AND status = 'PENDING' AND expires_at >= $3
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, paymentRef, now)
	if err != nil {
		r.log.Error("Failed to confirm booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return false, fmt.Errorf("confirm booking %s: %w", id, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.BookingStatus, paymentStatus entity.PaymentStatus, now time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $3,
		    payment_status = COALESCE(NULLIF($4, ''), payment_status),
		    expires_at = CASE WHEN $3 = 'PENDING' THEN expires_at ELSE NULL END,
		    updated_at = $5
		WHERE id = $1 AND status = $2
	`

	tag, err := database.Conn(ctx, r.db).Exec(ctx, query, id, from, to, string(paymentStatus), now)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update booking %s status to %s: %w", id, to, err)
	}

	return tag.RowsAffected() == 1, nil
}
