package broker

import "context"

// Message is one event ready for the wire. Key orders messages that share
// it (Kafka partition key); Topic is the routing key or topic name.
type Message struct {
	Topic string
	Key   string
	Body  []byte
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }
func (Noop) Close() error                           { return nil }
