package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgo/guilds/internal/model"
)

func TestEventBus_VetoStopsChain(t *testing.T) {
	t.Parallel()
	bus := NewEventBus(discardLogger())

	var calls []string
	bus.OnBefore(func(context.Context, model.Event) error {
		calls = append(calls, "first")
		return errors.New("denied")
	})
	bus.OnBefore(func(context.Context, model.Event) error {
		calls = append(calls, "second")
		return nil
	})

	err := bus.Before(context.Background(), model.Event{Type: model.EventMemberKicked})
	assert.ErrorIs(t, err, ErrEventVetoed)
	assert.Contains(t, err.Error(), "denied")
	assert.Equal(t, []string{"first"}, calls)
}

func TestEventBus_AfterRunsInOrder(t *testing.T) {
	t.Parallel()
	bus := NewEventBus(discardLogger())

	var calls []string
	bus.OnAfter(func(context.Context, model.Event) { calls = append(calls, "a") })
	bus.OnAfter(func(context.Context, model.Event) { calls = append(calls, "b") })

	assert.NoError(t, bus.Before(context.Background(), model.Event{}))
	bus.After(context.Background(), model.Event{Type: model.EventGuildCreated})
	assert.Equal(t, []string{"a", "b"}, calls)
}
