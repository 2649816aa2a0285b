package repository

import (
	"context"
	"errors"
	"fmt"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *entity.ShowSlot) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ShowSlot, error)
	FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.ShowSlot, error)
}

type slotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSlotRepository(db database.PgxIface, log *zap.Logger) SlotRepository {
	return &slotRepository{
		db:  db,
		log: log.With(zap.String("repository", "slot")),
	}
}

const slotColumns = `id, show_id, start_time, end_time, total_seats, available_seats, price::float8, screen_name, created_at`

func scanSlot(row pgx.Row) (*entity.ShowSlot, error) {
	var slot entity.ShowSlot
	err := row.Scan(
		&slot.ID,
		&slot.ShowID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.TotalSeats,
		&slot.AvailableSeats,
		&slot.Price,
		&slot.ScreenName,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) Create(ctx context.Context, slot *entity.ShowSlot) error {
	query := `
		INSERT INTO show_slots (id, show_id, start_time, end_time, total_seats, available_seats, price, screen_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		slot.ID,
		slot.ShowID,
		slot.StartTime,
		slot.EndTime,
		slot.TotalSeats,
		slot.AvailableSeats,
		slot.Price,
		slot.ScreenName,
		slot.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create show slot",
			zap.Error(err),
			zap.String("show_id", slot.ShowID.String()),
			zap.Time("start_time", slot.StartTime),
		)
		return fmt.Errorf("create show slot for show %s: %w", slot.ShowID, err)
	}

	return nil
}

func (r *slotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ShowSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM show_slots WHERE id = $1`

	slot, err := scanSlot(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find show slot by ID",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return nil, fmt.Errorf("find show slot by ID %s: %w", id, err)
	}

	return slot, nil
}

func (r *slotRepository) FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.ShowSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM show_slots WHERE show_id = $1 ORDER BY start_time`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, showID)
	if err != nil {
		r.log.Error("Failed to find show slots by show ID",
			zap.Error(err),
			zap.String("show_id", showID.String()),
		)
		return nil, fmt.Errorf("find show slots by show ID %s: %w", showID, err)
	}
	defer rows.Close()

	var slots []*entity.ShowSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan show slot row", zap.Error(err))
			return nil, fmt.Errorf("scan show slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}
