package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBus_PublishFansOut(t *testing.T) {
	// 1. Setup
	nopLogger := zerolog.Nop()
	bus := NewInMemoryBus(&nopLogger)

	var calls atomic.Int32
	var got atomic.Value
	handler := func(ctx context.Context, event ports.Event) error {
		calls.Add(1)
		got.Store(event)
		return nil
	}
	bus.Subscribe("banks:replaced", handler)
	bus.Subscribe("banks:replaced", func(ctx context.Context, event ports.Event) error {
		calls.Add(1)
		return errors.New("handler failure is only logged")
	})
	bus.Subscribe("other", func(ctx context.Context, event ports.Event) error {
		t.Error("handler of another topic must not run")
		return nil
	})

	// 2. Publish and drain
	require.NoError(t, bus.Publish(context.Background(), "banks:replaced", 42))
	bus.Wait()

	// 3. Verify
	assert.Equal(t, int32(2), calls.Load())
	event := got.Load().(ports.Event)
	assert.Equal(t, "banks:replaced", event.Topic)
	assert.Equal(t, 42, event.Data)
}

func TestInMemoryBus_HandlerOutlivesPublisherContext(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryBus(&nopLogger)

	var handlerCtxErr atomic.Value
	bus.Subscribe("t", func(ctx context.Context, event ports.Event) error {
		handlerCtxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, bus.Publish(ctx, "t", nil))
	bus.Wait()

	assert.Equal(t, true, handlerCtxErr.Load())
}

func TestInMemoryBus_NoSubscribers(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := NewInMemoryBus(&nopLogger)

	assert.NoError(t, bus.Publish(context.Background(), "nobody", "payload"))
	bus.Wait()
}
