package memory

import (
	"context"
	"fmt"
	"sort"

	"showtime-reservation/internal/data/entity"

	"github.com/google/uuid"
)

type showRepository struct {
	s *Store
}

func (r *showRepository) Create(ctx context.Context, show *entity.Show) error {
	onUndo := r.s.undoLog(ctx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.shows[show.ID]; ok {
		return fmt.Errorf("create show %s: duplicate id", show.ID)
	}
	c := *show
	r.s.shows[show.ID] = &c
	onUndo(func() { delete(r.s.shows, show.ID) })
	return nil
}

func (r *showRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	show, ok := r.s.shows[id]
	if !ok {
		return nil, nil
	}
	c := *show
	return &c, nil
}

type slotRepository struct {
	s *Store
}

func (r *slotRepository) Create(ctx context.Context, slot *entity.ShowSlot) error {
	r.s.addSlotLock(slot.ID)
	onUndo, unlock := r.s.lockSlot(ctx, slot.ID)
	defer unlock()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.slots[slot.ID]; ok {
		return fmt.Errorf("create show slot %s: duplicate id", slot.ID)
	}
	if _, ok := r.s.shows[slot.ShowID]; !ok {
		return fmt.Errorf("create show slot for show %s: %w", slot.ShowID, entity.ErrShowNotFound)
	}
	for _, other := range r.s.slots {
		if other.ShowID == slot.ShowID && other.StartTime.Equal(slot.StartTime) {
			return fmt.Errorf("create show slot for show %s: start time %s already scheduled", slot.ShowID, slot.StartTime)
		}
	}
	c := *slot
	r.s.slots[slot.ID] = &c
	onUndo(func() { delete(r.s.slots, slot.ID) })
	return nil
}

// FindByID waits for writers of the slot so the seat tally it returns is
// committed.
func (r *slotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ShowSlot, error) {
	_, unlock := r.s.lockSlot(ctx, id)
	defer unlock()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return nil, nil
	}
	c := *slot
	return &c, nil
}

func (r *slotRepository) FindByShowID(ctx context.Context, showID uuid.UUID) ([]*entity.ShowSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var slots []*entity.ShowSlot
	for _, slot := range r.s.slots {
		if slot.ShowID == showID {
			c := *slot
			slots = append(slots, &c)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}
