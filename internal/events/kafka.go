package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/studytrails/trails-service/internal/utils"
)

// KafkaPublisher publishes platform events to a single Kafka topic.
type KafkaPublisher struct {
	publisher message.Publisher
	topic     string
	logger    utils.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger utils.Logger) (*KafkaPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NopLogger{},
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}

	return &KafkaPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	event := Event{
		ID:         watermill.NewUUID(),
		Type:       eventType,
		Source:     eventSource,
		Version:    eventVersion,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", eventType, err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set("event_type", eventType)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("failed to publish event",
			"event_type", eventType,
			"event_id", event.ID,
			"error", err)
		return fmt.Errorf("publish event %s: %w", eventType, err)
	}

	p.logger.Debug("event published",
		"event_type", eventType,
		"event_id", event.ID,
		"topic", p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}
