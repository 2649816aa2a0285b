package usecase

import (
	"showtime-reservation/internal/data/repository"
	"showtime-reservation/pkg/broker"
	"showtime-reservation/pkg/cache"
	"showtime-reservation/pkg/clock"
	"showtime-reservation/pkg/utils"

	"go.uber.org/zap"
)

// Dependencies are the optional collaborators of the services. Nil fields
// fall back to the system clock and no-op cache, lock and broker.
type Dependencies struct {
	Clock     clock.Clock
	Cache     cache.Service
	Locker    cache.Locker
	Publisher broker.Publisher
}

type Service struct {
	Reservation ReservationService
	Inventory   InventoryService
	Sweeper     *ExpirySweeper
}

func NewService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}

	seatMaps := newSeatMapCache(deps.Cache, config.Cache.TTL, log)
	events := NewEventPublisher(deps.Publisher, log)

	sweeper := NewExpirySweeper(repo, deps.Clock, events, seatMaps, deps.Locker, SweeperConfig{
		Interval:  config.Reservation.SweepInterval,
		BatchSize: config.Reservation.SweepBatchSize,
		Workers:   config.Reservation.SweepWorkers,
	}, log)

	return &Service{
		Reservation: NewReservationService(repo, sweeper, deps.Clock, events, seatMaps, config.Reservation.HoldTTL, log),
		Inventory:   NewInventoryService(repo, sweeper, deps.Clock, seatMaps, log),
		Sweeper:     sweeper,
	}
}
