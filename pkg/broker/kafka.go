package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

type KafkaConfig struct {
	Brokers  []string
	Topic    string // overrides Message.Topic when set
	RetryMax int
	Timeout  time.Duration
}

// Kafka publishes through a synchronous, idempotent sarama producer keyed
// by Message.Key so events of one booking stay in order.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = cfg.RetryMax
	saramaConfig.Producer.Timeout = cfg.Timeout
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Version = sarama.V2_1_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Kafka{producer: producer, topic: cfg.Topic}, nil
}

func newKafkaWithProducer(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	topic := msg.Topic
	if k.topic != "" {
		topic = k.topic
	}

	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(msg.Topic)},
			{Key: []byte("content_type"), Value: []byte("application/json")},
		},
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", msg.Topic, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
