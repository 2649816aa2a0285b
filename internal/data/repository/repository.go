package repository

import (
	"context"

	"showtime-reservation/pkg/database"

	"go.uber.org/zap"
)

// Transactor runs fn atomically. Repository calls made with the ctx passed
// to fn join the same unit of work; a non-nil error undoes all of them.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Tx      Transactor
	Show    ShowRepository
	Slot    SlotRepository
	Seat    SeatRepository
	Booking BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:      NewTransactor(db),
		Show:    NewShowRepository(db, log),
		Slot:    NewSlotRepository(db, log),
		Seat:    NewSeatRepository(db, log),
		Booking: NewBookingRepository(db, log),
	}
}

type pgTransactor struct {
	db database.PgxIface
}

func NewTransactor(db database.PgxIface) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, t.db, fn)
}
