package broker

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer relies on.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaConsumer struct {
	reader MessageReader
}

func NewConsumer(cfg *Config) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &KafkaConsumer{reader: r}
}

func NewConsumerWithReader(r MessageReader) *KafkaConsumer {
	return &KafkaConsumer{reader: r}
}

// ReadMessage blocks until a message arrives or ctx is done. With a group
// id set the offset is committed once the message is returned.
func (c *KafkaConsumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return c.reader.ReadMessage(ctx)
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
