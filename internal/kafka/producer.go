package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"user-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type EventType string

const (
	UserCreated EventType = "user.created"
	UserUpdated EventType = "user.updated"
	UserDeleted EventType = "user.deleted"
)

// UserEvent is the payload written to the lifecycle topic. It never carries
// the password.
type UserEvent struct {
	EventID    string    `json:"event_id"`
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewUserEvent(eventType EventType, user models.User) UserEvent {
	return UserEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		UserID:     user.UserID,
		Name:       user.Name,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	Topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 2 * time.Second,
		MaxAttempts:  3,
	}
	return &Producer{Writer: writer, Topic: topic}
}

// PublishUserEvent writes one message keyed by the user id, so every event
// for a user lands on the same partition.
func (p *Producer) PublishUserEvent(ctx context.Context, event UserEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, p.Topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishUserEvent(context.Context, UserEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
