package cmd

import (
	"context"
	"fmt"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/usecase"
	"showtime-reservation/pkg/utils"

	"go.uber.org/zap"
)

// SeedDemo provisions one show with a single slot of rows×perRow seats
// starting at start, and returns the slot.
func SeedDemo(ctx context.Context, inventory usecase.InventoryService, start time.Time, rows, perRow int, log *zap.Logger) (*entity.ShowSlot, error) {
	language, genre := "EN", "Drama"
	duration := 120

	show, err := inventory.CreateShow(ctx, usecase.NewShow{
		Name:            "Demo Show",
		Language:        &language,
		Genre:           &genre,
		DurationMinutes: &duration,
	})
	if err != nil {
		return nil, fmt.Errorf("seed show: %w", err)
	}

	screen := "Screen 1"
	slot, err := inventory.ProvisionSlot(ctx, usecase.NewSlot{
		ShowID:     show.ID,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(duration) * time.Minute),
		Price:      250,
		ScreenName: &screen,
		SeatLabels: utils.GenerateSeatLabels(rows, perRow),
	})
	if err != nil {
		return nil, fmt.Errorf("seed slot: %w", err)
	}

	log.Info("Demo data seeded",
		zap.String("show_id", show.ID.String()),
		zap.String("slot_id", slot.ID.String()),
		zap.Int("seats", slot.TotalSeats),
	)
	return slot, nil
}
