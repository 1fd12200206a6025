package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/pkg/events"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ForwardedEvent is the JSON body published for each bus event.
type ForwardedEvent struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// EventForwarder republishes bus events to a RabbitMQ topic exchange, routed by event name.
type EventForwarder struct {
	channel  amqpPublisher
	exchange string
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewEventForwarder constructs a forwarder over an open channel.
func NewEventForwarder(channel amqpPublisher, exchange string, logger *zap.Logger) *EventForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventForwarder{channel: channel, exchange: exchange, timeout: 5 * time.Second, logger: logger, now: time.Now}
}

// DialEventForwarder connects to RabbitMQ and declares the exchange. The
// returned closer releases the channel and connection.
func DialEventForwarder(url, exchange string, logger *zap.Logger) (*EventForwarder, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	closer := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return NewEventForwarder(ch, exchange, logger), closer, nil
}

// Register forwards every bus event.
func (f *EventForwarder) Register(bus *events.Bus) {
	bus.SubscribeAll(f.Forward)
}

// Forward publishes one event.
func (f *EventForwarder) Forward(ctx context.Context, evt events.Event) error {
	body, err := json.Marshal(ForwardedEvent{Event: string(evt.Name), OccurredAt: f.now().UTC(), Payload: evt.Payload})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Name, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = f.channel.PublishWithContext(publishCtx, f.exchange, string(evt.Name), false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    f.now(),
	})
	if err != nil {
		return fmt.Errorf("publish event %s: %w", evt.Name, err)
	}
	return nil
}
