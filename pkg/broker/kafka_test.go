package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestKafkaPublishSendsBody(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"booking_id":"b1"}` {
			return errors.New("unexpected body " + string(val))
		}
		return nil
	})

	k := newKafkaWithProducer(sp, "")
	err := k.Publish(context.Background(), Message{Topic: "booking.held", Key: "b1", Body: []byte(`{"booking_id":"b1"}`)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublishWrapsProducerError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	k := newKafkaWithProducer(sp, "bookings")
	err := k.Publish(context.Background(), Message{Topic: "booking.expired", Key: "b2", Body: []byte(`{}`)})
	if !errors.Is(err, sarama.ErrNotLeaderForPartition) {
		t.Fatalf("expected ErrNotLeaderForPartition, got %v", err)
	}
	_ = k.Close()
}

func TestKafkaPublishHonoursCancelledContext(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	k := newKafkaWithProducer(sp, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := k.Publish(ctx, Message{Topic: "booking.held"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	_ = k.Close()
}
