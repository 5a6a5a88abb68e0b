package pipeline

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
)

// messageWriter is the subset of *kafka.Writer used by KafkaSink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes fixation events as JSON, keyed by stream so that all
// fixations of one stream land on the same partition.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, cfg config.KafkaSinkConfig) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Write(ctx context.Context, e FixationEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Stream), Value: value})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
