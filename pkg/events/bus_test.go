package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBusDispatchOrder(t *testing.T) {
	bus := NewBus(nil)
	var calls []string
	bus.Subscribe(TaskCreated, func(ctx context.Context, evt Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.SubscribeAll(func(ctx context.Context, evt Event) error {
		calls = append(calls, "all:"+string(evt.Name))
		return nil
	})
	bus.Subscribe(TaskCreated, func(ctx context.Context, evt Event) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Publish(context.Background(), TaskCreated, "t1")
	bus.Publish(context.Background(), GradePosted, "t1")

	assert.Equal(t, []string{"first", "second", "all:task.created", "all:grade.posted"}, calls)
}

func TestBusHandlerErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bus := NewBus(zap.New(core))

	reached := false
	bus.Subscribe(CommentAdded, func(ctx context.Context, evt Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(CommentAdded, func(ctx context.Context, evt Event) error {
		panic("bad handler")
	})
	bus.Subscribe(CommentAdded, func(ctx context.Context, evt Event) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), CommentAdded, nil)

	assert.True(t, reached)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestOnTypedPayload(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bus := NewBus(zap.New(core))

	var got int
	On(bus, GradePosted, func(ctx context.Context, payload int) error {
		got = payload
		return nil
	})

	bus.Publish(context.Background(), GradePosted, 85)
	bus.Publish(context.Background(), GradePosted, "wrong")

	assert.Equal(t, 85, got)
	assert.Equal(t, 1, logs.Len())
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(context.Background(), StoreMutated, nil) })
}
