package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-service/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

const deliveryTimeout = 10 * time.Second

// ChangePublisher writes EventChange messages to a Kafka topic, keyed by
// event id so every change to one event lands on the same partition.
type ChangePublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewChangePublisher(bootstrapServers, topic string) (*ChangePublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("topic", topic).Info("Event change Kafka producer created")

	return &ChangePublisher{producer: p, topic: topic}, nil
}

func (p *ChangePublisher) Publish(ctx context.Context, change domain.EventChange) error {
	msg, err := p.message(change)
	if err != nil {
		return err
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
		}
		log.WithFields(log.Fields{
			"event_id":    change.EventID,
			"change_type": change.ChangeType,
			"partition":   m.TopicPartition.Partition,
		}).Debug("Event change delivered")
		return nil
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("delivery timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ChangePublisher) message(change domain.EventChange) (*kafka.Message, error) {
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event change: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(change.EventID),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "change_type", Value: []byte(change.ChangeType)},
		},
	}, nil
}

func (p *ChangePublisher) Close() {
	log.Info("Closing event change Kafka producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
