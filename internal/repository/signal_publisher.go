package repository

import (
	"context"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	pkgkafka "SigPulse/pkg/kafka"
)

// KafkaSignalPublisher delivers actionable signals to a Kafka topic,
// keyed by pair so consumers see per-pair ordering.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka-backed signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	if topic == "" {
		topic = "signals"
	}
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Pair), sig)
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
