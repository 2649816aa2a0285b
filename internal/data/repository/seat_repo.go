package repository

import (
	"context"
	"fmt"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatRepository owns per-slot seat state. TryClaim, Release and Finalize
// are each atomic and keep show_slots.available_seats in step with the
// number of AVAILABLE seats.
type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindBySlotID(ctx context.Context, slotID uuid.UUID) ([]*entity.Seat, error)
	CountByStatus(ctx context.Context, slotID uuid.UUID) (entity.SeatCounts, error)

	// TryClaim moves every label from AVAILABLE to HELD for holder, or
	// changes nothing and returns *entity.UnknownSeatError or
	// *entity.SeatUnavailableError.
	TryClaim(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID, now time.Time) error
	// Release returns seats held or booked by holder to AVAILABLE. Seats in
	// any other state are skipped. Returns the number released.
	Release(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID) (int, error)
	// Finalize moves seats HELD by holder to BOOKED, or returns
	// entity.ErrSeatStateMismatch without changing anything.
	Finalize(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID, now time.Time) error
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `INSERT INTO seats (id, slot_id, seat_number, status, created_at) VALUES `
	args := make([]any, 0, len(seats)*5)

	for i, seat := range seats {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", i*5+1, i*5+2, i*5+3, i*5+4, i*5+5)

		args = append(args,
			seat.ID,
			seat.SlotID,
			seat.SeatNumber,
			seat.Status,
			seat.CreatedAt,
		)
	}

	_, err := database.Conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch seats: %w", err)
	}

	return nil
}

func (r *seatRepository) FindBySlotID(ctx context.Context, slotID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT id, slot_id, seat_number, status, booked_by, booked_at, created_at
		FROM seats
		WHERE slot_id = $1
		ORDER BY seat_number
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, slotID)
	if err != nil {
		r.log.Error("Failed to find seats by slot ID",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
		)
		return nil, fmt.Errorf("find seats by slot ID %s: %w", slotID, err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.SlotID,
			&seat.SeatNumber,
			&seat.Status,
			&seat.BookedBy,
			&seat.BookedAt,
			&seat.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}

	return seats, rows.Err()
}

func (r *seatRepository) CountByStatus(ctx context.Context, slotID uuid.UUID) (entity.SeatCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'AVAILABLE'),
			COUNT(*) FILTER (WHERE status = 'HELD'),
			COUNT(*) FILTER (WHERE status = 'BOOKED')
		FROM seats
		WHERE slot_id = $1
	`

	var counts entity.SeatCounts
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, slotID).Scan(&counts.Available, &counts.Held, &counts.Booked)
	if err != nil {
		r.log.Error("Failed to count seats by status",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
		)
		return entity.SeatCounts{}, fmt.Errorf("count seats for slot %s: %w", slotID, err)
	}

	return counts, nil
}

func (r *seatRepository) TryClaim(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID, now time.Time) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context) error {
		conn := database.Conn(ctx, r.db)

		// Row locks are taken in seat_number order so overlapping claims cannot deadlock.
		rows, err := conn.Query(ctx, `
			SELECT seat_number, status
			FROM seats
			WHERE slot_id = $1 AND seat_number = ANY($2)
			ORDER BY seat_number
			FOR UPDATE
		`, slotID, labels)
		if err != nil {
			r.log.Error("Failed to lock seats for claim",
				zap.Error(err),
				zap.String("slot_id", slotID.String()),
			)
			return fmt.Errorf("lock seats for slot %s: %w", slotID, err)
		}

		status := make(map[string]entity.SeatStatus, len(labels))
		for rows.Next() {
			var label string
			var st entity.SeatStatus
			if err := rows.Scan(&label, &st); err != nil {
				rows.Close()
				return fmt.Errorf("scan seat status: %w", err)
			}
			status[label] = st
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("read seat status: %w", err)
		}

		var unknown, unavailable []string
		for _, label := range labels {
			st, ok := status[label]
			switch {
			case !ok:
				unknown = append(unknown, label)
			case st != entity.SeatStatusAvailable:
				unavailable = append(unavailable, label)
			}
		}
		if len(unknown) > 0 {
			return &entity.UnknownSeatError{Seats: unknown}
		}
		if len(unavailable) > 0 {
			return &entity.SeatUnavailableError{Seats: unavailable}
		}

		tag, err := conn.Exec(ctx, `
			UPDATE seats
			SET status = 'HELD', booked_by = $3, booked_at = $4
			WHERE slot_id = $1 AND seat_number = ANY($2) AND status = 'AVAILABLE'
		`, slotID, labels, holder, now)
		if err != nil {
			r.log.Error("Failed to hold seats",
				zap.Error(err),
				zap.String("slot_id", slotID.String()),
				zap.Strings("seats", labels),
			)
			return fmt.Errorf("hold seats for slot %s: %w", slotID, err)
		}
		if int(tag.RowsAffected()) != len(labels) {
			return &entity.SeatUnavailableError{Seats: labels}
		}

		return r.adjustAvailable(ctx, conn, slotID, -len(labels))
	})
}

func (r *seatRepository) Release(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID) (int, error) {
	var released int
	err := database.WithTx(ctx, r.db, func(ctx context.Context) error {
		conn := database.Conn(ctx, r.db)

		tag, err := conn.Exec(ctx, `
			UPDATE seats
			SET status = 'AVAILABLE', booked_by = NULL, booked_at = NULL
			WHERE slot_id = $1 AND seat_number = ANY($2) AND booked_by = $3 AND status <> 'AVAILABLE'
		`, slotID, labels, holder)
		if err != nil {
			r.log.Error("Failed to release seats",
				zap.Error(err),
				zap.String("slot_id", slotID.String()),
				zap.Strings("seats", labels),
			)
			return fmt.Errorf("release seats for slot %s: %w", slotID, err)
		}

		released = int(tag.RowsAffected())
		if released == 0 {
			return nil
		}
		return r.adjustAvailable(ctx, conn, slotID, released)
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

func (r *seatRepository) Finalize(ctx context.Context, slotID uuid.UUID, labels []string, holder uuid.UUID, now time.Time) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context) error {
		tag, err := database.Conn(ctx, r.db).Exec(ctx, `
			UPDATE seats
			SET status = 'BOOKED', booked_at = $4
			WHERE slot_id = $1 AND seat_number = ANY($2) AND booked_by = $3 AND status = 'HELD'
		`, slotID, labels, holder, now)
		if err != nil {
			r.log.Error("Failed to book seats",
				zap.Error(err),
				zap.String("slot_id", slotID.String()),
				zap.Strings("seats", labels),
			)
			return fmt.Errorf("book seats for slot %s: %w", slotID, err)
		}
		if int(tag.RowsAffected()) != len(labels) {
			r.log.Error("Seat state does not match booking",
				zap.String("slot_id", slotID.String()),
				zap.Strings("seats", labels),
				zap.Int64("updated", tag.RowsAffected()),
			)
			return entity.ErrSeatStateMismatch
		}
		return nil
	})
}

func (r *seatRepository) adjustAvailable(ctx context.Context, conn database.Querier, slotID uuid.UUID, delta int) error {
	_, err := conn.Exec(ctx, `UPDATE show_slots SET available_seats = available_seats + $2 WHERE id = $1`, slotID, delta)
	if err != nil {
		r.log.Error("Failed to adjust available seats",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
			zap.Int("delta", delta),
		)
		return fmt.Errorf("adjust available seats for slot %s: %w", slotID, err)
	}
	return nil
}
