package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/internal/data/memory"
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/pkg/broker"
	"showtime-reservation/pkg/cache"
	"showtime-reservation/pkg/clock"
	"showtime-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var start = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	repo   *repository.Repository
	clock  *clock.Manual
	events *recordingPublisher
	cache  *mapCache
	slot   *entity.ShowSlot
}

func newFixture(t *testing.T, labels ...string) *fixture {
	t.Helper()

	f := &fixture{
		repo:   memory.NewRepository(zap.NewNop()),
		clock:  clock.NewManual(start),
		events: &recordingPublisher{},
		cache:  newMapCache(),
	}
	config := &utils.Config{
		Reservation: utils.ReservationConfig{
			HoldTTL:        5 * time.Minute,
			SweepInterval:  10 * time.Millisecond,
			SweepBatchSize: 100,
			SweepWorkers:   4,
		},
		Cache: utils.CacheConfig{Enabled: true, TTL: time.Minute},
	}
	f.svc = NewService(f.repo, config, Dependencies{
		Clock:     f.clock,
		Cache:     f.cache,
		Locker:    cache.Noop{},
		Publisher: f.events,
	}, zap.NewNop())

	ctx := context.Background()
	show, err := f.svc.Inventory.CreateShow(ctx, NewShow{Name: "The Seagull"})
	if err != nil {
		t.Fatalf("create show: %v", err)
	}
	f.slot, err = f.svc.Inventory.ProvisionSlot(ctx, NewSlot{
		ShowID:     show.ID,
		StartTime:  start.Add(2 * time.Hour),
		EndTime:    start.Add(4 * time.Hour),
		Price:      12.5,
		SeatLabels: labels,
	})
	if err != nil {
		t.Fatalf("provision slot: %v", err)
	}
	return f
}

// seats reads seat state straight from storage, bypassing lazy expiry.
func (f *fixture) seats(t *testing.T) map[string]*entity.Seat {
	t.Helper()
	seats, err := f.repo.Seat.FindBySlotID(context.Background(), f.slot.ID)
	if err != nil {
		t.Fatalf("find seats: %v", err)
	}
	out := make(map[string]*entity.Seat, len(seats))
	for _, s := range seats {
		out[s.SeatNumber] = s
	}
	return out
}

func (f *fixture) expectSeat(t *testing.T, label string, want entity.SeatStatus) {
	t.Helper()
	seat, ok := f.seats(t)[label]
	if !ok {
		t.Fatalf("seat %s not found", label)
	}
	if seat.Status != want {
		t.Fatalf("expected seat %s %s, got %s", label, want, seat.Status)
	}
}

func (f *fixture) booking(t *testing.T, id uuid.UUID) *entity.Booking {
	t.Helper()
	b, err := f.repo.Booking.FindByID(context.Background(), id)
	if err != nil || b == nil {
		t.Fatalf("find booking %s: %v", id, err)
	}
	return b
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, msg broker.Message) error {
	var e BookingEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return err
	}
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(t EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type mapCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
