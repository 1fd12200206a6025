package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Name identifies an event type.
type Name string

const (
	TaskCreated          Name = "task.created"
	SubmissionReceived   Name = "submission.received"
	GradePosted          Name = "grade.posted"
	CommentAdded         Name = "comment.added"
	NotificationsChanged Name = "notifications.changed"
	StoreMutated         Name = "store.mutated"
)

// Event is delivered to subscribers.
type Event struct {
	Name    Name
	Payload any
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, evt Event) error

// Bus dispatches events synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	wildcard []Handler
	logger   *zap.Logger
}

// NewBus constructs an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{handlers: make(map[Name][]Handler), logger: logger}
}

// Subscribe registers h for a single event name.
func (b *Bus) Subscribe(name Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// SubscribeAll registers h for every event. Wildcard handlers run after named ones.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, h)
}

// Publish delivers the event to every subscriber. Handler errors and panics
// are logged and never reach the publisher.
func (b *Bus) Publish(ctx context.Context, name Name, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[name])+len(b.wildcard))
	handlers = append(handlers, b.handlers[name]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	evt := Event{Name: name, Payload: payload}
	for idx, h := range handlers {
		if err := b.dispatch(ctx, h, evt); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("event", string(name)),
				zap.Int("handler", idx),
				zap.Error(err),
			)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

// On subscribes a handler that only receives payloads of type T.
// Events carrying another payload type are reported as errors.
func On[T any](b *Bus, name Name, fn func(ctx context.Context, payload T) error) {
	b.Subscribe(name, func(ctx context.Context, evt Event) error {
		payload, ok := evt.Payload.(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", evt.Payload, evt.Name)
		}
		return fn(ctx, payload)
	})
}
