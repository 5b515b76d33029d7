package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/pkg/kafka"
)

// NotificationPublisher defines the interface for publishing reservation
// lifecycle notifications. Publishing is best-effort: callers ignore the
// error after logging it, the reservation transition already happened.
type NotificationPublisher interface {
	// PublishConfirmed publishes a reservation confirmed notification
	PublishConfirmed(ctx context.Context, reservation *domain.Reservation) error

	// PublishCancelled publishes a reservation cancelled notification
	PublishCancelled(ctx context.Context, reservation *domain.Reservation) error

	// PublishNoShow publishes a reservation no-show notification
	PublishNoShow(ctx context.Context, reservation *domain.Reservation) error

	// Close closes the publisher
	Close() error
}

// KafkaNotificationPublisher implements NotificationPublisher using Kafka
type KafkaNotificationPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// NotificationPublisherConfig contains configuration for the publisher
type NotificationPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaNotificationPublisher creates a new Kafka notification publisher
func NewKafkaNotificationPublisher(ctx context.Context, cfg *NotificationPublisherConfig) (*KafkaNotificationPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notification publisher config is required")
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "reservation-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "yumyum-reservations"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "yumyum-reservations-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaNotificationPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishConfirmed publishes a reservation confirmed notification
func (p *KafkaNotificationPublisher) PublishConfirmed(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, domain.ReservationEventConfirmed, reservation)
}

// PublishCancelled publishes a reservation cancelled notification
func (p *KafkaNotificationPublisher) PublishCancelled(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, domain.ReservationEventCancelled, reservation)
}

// PublishNoShow publishes a reservation no-show notification
func (p *KafkaNotificationPublisher) PublishNoShow(ctx context.Context, reservation *domain.Reservation) error {
	return p.publishEvent(ctx, domain.ReservationEventNoShow, reservation)
}

// Close closes the publisher
func (p *KafkaNotificationPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaNotificationPublisher) publishEvent(ctx context.Context, eventType domain.ReservationEventType, reservation *domain.Reservation) error {
	eventID := uuid.New().String()
	event := domain.NewReservationEvent(eventType, reservation, eventID)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     eventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	if err := p.producer.ProduceSync(ctx, p.topic, []byte(event.Key()), value, headers); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}

// NoOpNotificationPublisher is a no-op implementation for testing
type NoOpNotificationPublisher struct{}

// NewNoOpNotificationPublisher creates a new no-op notification publisher
func NewNoOpNotificationPublisher() *NoOpNotificationPublisher {
	return &NoOpNotificationPublisher{}
}

// PublishConfirmed is a no-op
func (p *NoOpNotificationPublisher) PublishConfirmed(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// PublishCancelled is a no-op
func (p *NoOpNotificationPublisher) PublishCancelled(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// PublishNoShow is a no-op
func (p *NoOpNotificationPublisher) PublishNoShow(ctx context.Context, reservation *domain.Reservation) error {
	return nil
}

// Close is a no-op
func (p *NoOpNotificationPublisher) Close() error {
	return nil
}

var (
	_ NotificationPublisher = (*KafkaNotificationPublisher)(nil)
	_ NotificationPublisher = (*NoOpNotificationPublisher)(nil)
)
