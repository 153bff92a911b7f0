package eventbus

import (
	"context"
	"sync"

	"github.com/easyfinance/accounts/internal/core/ports"

	"github.com/rs/zerolog"
)

var _ ports.EventBus = (*InMemoryBus)(nil) // Ensure compliance

// InMemoryBus is an in-process pub/sub. Handlers run asynchronously.
type InMemoryBus struct {
	log         zerolog.Logger
	subscribers map[string][]ports.EventHandler
	mu          sync.RWMutex
	inflight    sync.WaitGroup
}

// NewInMemoryBus creates a new, empty event bus
func NewInMemoryBus(baseLogger *zerolog.Logger) *InMemoryBus {
	return &InMemoryBus{
		log:         baseLogger.With().Str("component", "in_memory_bus").Logger(),
		subscribers: make(map[string][]ports.EventHandler),
	}
}

// Publish sends an event to all subscribers of a topic
func (b *InMemoryBus) Publish(ctx context.Context, topic string, data any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers, ok := b.subscribers[topic]
	if !ok {
		b.log.Debug().Str("topic", topic).Msg("Published event with no subscribers")
		return nil
	}

	event := ports.Event{
		Topic: topic,
		Data:  data,
	}

	// Each handler gets its own goroutine and a fresh context, so
	// the publisher's request ending does not cancel it.
	for _, handler := range handlers {
		b.inflight.Add(1)
		go func(h ports.EventHandler) {
			defer b.inflight.Done()
			if err := h(context.Background(), event); err != nil {
				b.log.Error().Err(err).Str("topic", topic).Msg("Event handler failed")
			}
		}(handler)
	}

	b.log.Debug().Str("topic", topic).Int("handlers", len(handlers)).Msg("Event published")
	return nil
}

// Subscribe registers a handler for a specific topic
func (b *InMemoryBus) Subscribe(topic string, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[topic] = append(b.subscribers[topic], handler)
	b.log.Info().Str("topic", topic).Msg("New handler subscribed to topic")
}

// Wait blocks until every handler started so far has returned.
func (b *InMemoryBus) Wait() {
	b.inflight.Wait()
}
