package usecase

import (
	"context"
	"errors"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// seatMapCache is a cache-aside view of a slot's seats. It is only ever
// filled from a committed read and dropped after every committed seat
// mutation, so a stale entry lives at most ttl.
type seatMapCache struct {
	svc cache.Service
	ttl time.Duration
	log *zap.Logger
}

func newSeatMapCache(svc cache.Service, ttl time.Duration, log *zap.Logger) *seatMapCache {
	if svc == nil {
		svc = cache.Noop{}
	}
	return &seatMapCache{svc: svc, ttl: ttl, log: log.With(zap.String("component", "seat_map_cache"))}
}

func seatMapKey(slotID uuid.UUID) string {
	return "seatmap:" + slotID.String()
}

func (c *seatMapCache) get(ctx context.Context, slotID uuid.UUID) ([]*entity.Seat, bool) {
	var seats []*entity.Seat
	err := c.svc.Get(ctx, seatMapKey(slotID), &seats)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.Warn("Seat map cache read failed", zap.Error(err), zap.String("slot_id", slotID.String()))
		}
		return nil, false
	}
	return seats, true
}

func (c *seatMapCache) set(ctx context.Context, slotID uuid.UUID, seats []*entity.Seat) {
	if err := c.svc.Set(ctx, seatMapKey(slotID), seats, c.ttl); err != nil {
		c.log.Warn("Seat map cache write failed", zap.Error(err), zap.String("slot_id", slotID.String()))
	}
}

func (c *seatMapCache) invalidate(ctx context.Context, slotIDs ...uuid.UUID) {
	if len(slotIDs) == 0 {
		return
	}
	keys := make([]string, len(slotIDs))
	for i, id := range slotIDs {
		keys[i] = seatMapKey(id)
	}
	if err := c.svc.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		c.log.Warn("Seat map cache invalidation failed", zap.Error(err), zap.Strings("keys", keys))
	}
}
