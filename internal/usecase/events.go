package usecase

import (
	"context"
	"encoding/json"
	"time"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/broker"

	"go.uber.org/zap"
)

type EventType string

const (
	EventBookingHeld      EventType = "booking.held"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingExpired   EventType = "booking.expired"
)

type BookingEvent struct {
	Type          EventType            `json:"type"`
	BookingID     string               `json:"booking_id"`
	UserID        string               `json:"user_id"`
	SlotID        string               `json:"slot_id"`
	ShowID        string               `json:"show_id"`
	Seats         []string             `json:"seats"`
	Status        entity.BookingStatus `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	TotalPrice    float64              `json:"total_price"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newBookingEvent(t EventType, b *entity.Booking, now time.Time) BookingEvent {
	return BookingEvent{
		Type:          t,
		BookingID:     b.ID.String(),
		UserID:        b.UserID.String(),
		SlotID:        b.SlotID.String(),
		ShowID:        b.ShowID.String(),
		Seats:         b.SeatsBooked,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		TotalPrice:    b.TotalPrice,
		ExpiresAt:     b.ExpiresAt,
		OccurredAt:    now,
	}
}

// EventPublisher announces committed booking transitions. Delivery is best
// effort: failures are logged and never reach the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event BookingEvent)
}

const publishTimeout = 5 * time.Second

type brokerEventPublisher struct {
	broker broker.Publisher
	log    *zap.Logger
}

func NewEventPublisher(p broker.Publisher, log *zap.Logger) EventPublisher {
	if p == nil {
		p = broker.Noop{}
	}
	return &brokerEventPublisher{
		broker: p,
		log:    log.With(zap.String("component", "events")),
	}
}

func (p *brokerEventPublisher) Publish(ctx context.Context, event BookingEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal booking event", zap.Error(err), zap.String("type", string(event.Type)))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.broker.Publish(ctx, broker.Message{
		Topic: string(event.Type),
		Key:   event.BookingID,
		Body:  body,
	})
	if err != nil {
		p.log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID),
		)
		return
	}

	p.log.Debug("Booking event published",
		zap.String("type", string(event.Type)),
		zap.String("booking_id", event.BookingID),
	)
}
