package ports

import "context"

// Event is a published payload tagged with its topic.
type Event struct {
	Topic string
	Data  any
}

// EventHandler reacts to one event. Returned errors are logged by the bus.
type EventHandler func(ctx context.Context, event Event) error

// EventBus is an in-process pub/sub used for side effects that must
// not hold up a request (audits, alerts).
type EventBus interface {
	Publish(ctx context.Context, topic string, data any) error
	Subscribe(topic string, handler EventHandler)
}
