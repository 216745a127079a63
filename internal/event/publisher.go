package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	QuestionCreated       = "question.created"
	QuestionBulkCreated   = "question.bulk_created"
	QuestionImported      = "question.imported"
	QuestionUpdated       = "question.updated"
	QuestionDeleted       = "question.deleted"
	PracticeResultCreated = "practice_result.created"
	PracticeResultDeleted = "practice_result.deleted"
)

type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
	Close() error
}

type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type EventPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
}

// NewEventPublisher returns a disabled publisher when amqpURL is empty.
func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	if amqpURL == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{enabled: false}, nil
	}

	conn, err := amqp091.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange, enabled: true}, nil
}

// Publish sends the event with its type as the routing key.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if p == nil || !p.enabled {
		return nil
	}

	body, err := json.Marshal(Event{Type: eventType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange,
		eventType,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[EVENT] %s", eventType)
	return nil
}

func (p *EventPublisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
