package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/pkg/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidSlot = errors.New("invalid slot definition")

type NewShow struct {
	Name            string
	Description     *string
	Language        *string
	Genre           *string
	DurationMinutes *int
	Rating          *float64
	PosterURL       *string
}

type NewSlot struct {
	ShowID     uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
	Price      float64
	ScreenName *string
	SeatLabels []string
}

type InventoryService interface {
	CreateShow(ctx context.Context, in NewShow) (*entity.Show, error)
	// ProvisionSlot creates a slot and its fixed seat set in one unit.
	ProvisionSlot(ctx context.Context, in NewSlot) (*entity.ShowSlot, error)
	GetSlot(ctx context.Context, slotID uuid.UUID) (*entity.ShowSlot, error)
	QuerySeats(ctx context.Context, slotID uuid.UUID) ([]*entity.Seat, error)
	SeatCounts(ctx context.Context, slotID uuid.UUID) (entity.SeatCounts, error)
}

type inventoryService struct {
	repo     *repository.Repository
	sweeper  *ExpirySweeper
	clock    clock.Clock
	seatMaps *seatMapCache
	log      *zap.Logger
}

func NewInventoryService(
	repo *repository.Repository,
	sweeper *ExpirySweeper,
	clk clock.Clock,
	seatMaps *seatMapCache,
	log *zap.Logger,
) InventoryService {
	return &inventoryService{
		repo:     repo,
		sweeper:  sweeper,
		clock:    clk,
		seatMaps: seatMaps,
		log:      log.With(zap.String("service", "inventory")),
	}
}

func (s *inventoryService) CreateShow(ctx context.Context, in NewShow) (*entity.Show, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("show name is required: %w", ErrInvalidSlot)
	}

	show := &entity.Show{
		Record:          entity.Record{ID: uuid.New(), CreatedAt: s.clock.Now()},
		Name:            in.Name,
		Description:     in.Description,
		Language:        in.Language,
		Genre:           in.Genre,
		DurationMinutes: in.DurationMinutes,
		Rating:          in.Rating,
		PosterURL:       in.PosterURL,
	}

	if err := s.repo.Show.Create(ctx, show); err != nil {
		return nil, fmt.Errorf("create show: %w", err)
	}

	s.log.Info("Show created", zap.String("show_id", show.ID.String()), zap.String("name", show.Name))
	return show, nil
}

func (s *inventoryService) ProvisionSlot(ctx context.Context, in NewSlot) (*entity.ShowSlot, error) {
	labels := normalizeLabels(in.SeatLabels)
	switch {
	case len(labels) == 0:
		return nil, fmt.Errorf("slot needs at least one seat: %w", ErrInvalidSlot)
	case len(labels) != len(in.SeatLabels):
		return nil, fmt.Errorf("seat labels must be unique and non-empty: %w", ErrInvalidSlot)
	case !in.EndTime.After(in.StartTime):
		return nil, fmt.Errorf("slot must end after it starts: %w", ErrInvalidSlot)
	case in.Price < 0:
		return nil, fmt.Errorf("slot price cannot be negative: %w", ErrInvalidSlot)
	}

	show, err := s.repo.Show.FindByID(ctx, in.ShowID)
	if err != nil {
		return nil, fmt.Errorf("find show %s: %w", in.ShowID, err)
	}
	if show == nil {
		return nil, entity.ErrShowNotFound
	}

	now := s.clock.Now()
	slot := &entity.ShowSlot{
		Record:         entity.Record{ID: uuid.New(), CreatedAt: now},
		ShowID:         in.ShowID,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		TotalSeats:     len(labels),
		AvailableSeats: len(labels),
		Price:          in.Price,
		ScreenName:     in.ScreenName,
	}

	seats := make([]*entity.Seat, len(labels))
	for i, label := range labels {
		seats[i] = &entity.Seat{
			Record:     entity.Record{ID: uuid.New(), CreatedAt: now},
			SlotID:     slot.ID,
			SeatNumber: label,
			Status:     entity.SeatStatusAvailable,
		}
	}

	err = s.repo.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Slot.Create(ctx, slot); err != nil {
			return err
		}
		return s.repo.Seat.CreateBatch(ctx, seats)
	})
	if err != nil {
		s.log.Error("Failed to provision slot",
			zap.Error(err),
			zap.String("show_id", in.ShowID.String()),
			zap.Time("start_time", in.StartTime),
		)
		return nil, fmt.Errorf("provision slot: %w", err)
	}

	s.log.Info("Slot provisioned",
		zap.String("slot_id", slot.ID.String()),
		zap.String("show_id", slot.ShowID.String()),
		zap.Int("total_seats", slot.TotalSeats),
	)
	return slot, nil
}

func (s *inventoryService) GetSlot(ctx context.Context, slotID uuid.UUID) (*entity.ShowSlot, error) {
	if err := s.ensureSlot(ctx, slotID); err != nil {
		return nil, err
	}
	s.lazySweep(ctx, slotID)

	slot, err := s.repo.Slot.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", slotID, err)
	}
	if slot == nil {
		return nil, entity.ErrSlotNotFound
	}
	return slot, nil
}

func (s *inventoryService) QuerySeats(ctx context.Context, slotID uuid.UUID) ([]*entity.Seat, error) {
	if err := s.ensureSlot(ctx, slotID); err != nil {
		return nil, err
	}
	s.lazySweep(ctx, slotID)

	if seats, ok := s.seatMaps.get(ctx, slotID); ok {
		return seats, nil
	}

	seats, err := s.repo.Seat.FindBySlotID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("query seats for slot %s: %w", slotID, err)
	}

	s.seatMaps.set(ctx, slotID, seats)
	return seats, nil
}

func (s *inventoryService) SeatCounts(ctx context.Context, slotID uuid.UUID) (entity.SeatCounts, error) {
	if err := s.ensureSlot(ctx, slotID); err != nil {
		return entity.SeatCounts{}, err
	}
	s.lazySweep(ctx, slotID)
	return s.repo.Seat.CountByStatus(ctx, slotID)
}

func (s *inventoryService) ensureSlot(ctx context.Context, slotID uuid.UUID) error {
	slot, err := s.repo.Slot.FindByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("find slot %s: %w", slotID, err)
	}
	if slot == nil {
		return entity.ErrSlotNotFound
	}
	return nil
}

func (s *inventoryService) lazySweep(ctx context.Context, slotID uuid.UUID) {
	if _, err := s.sweeper.SweepSlot(ctx, slotID, s.clock.Now()); err != nil {
		s.log.Warn("Lazy sweep failed", zap.Error(err), zap.String("slot_id", slotID.String()))
	}
}
