package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mtraver/sensehat/measurement"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a Kafka sink.
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes JSON-encoded readings keyed by device ID, so that one device's
// readings stay in order on one partition.
type Kafka struct {
	w messageWriter
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("sink: kafka brokers and topic must be given")
	}

	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}, nil
}

func newKafkaMessage(r measurement.Reading) (kafka.Message, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(r.DeviceID),
		Value: b,
		Time:  r.Timestamp,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, r measurement.Reading) error {
	msg, err := newKafkaMessage(r)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, msg)
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
