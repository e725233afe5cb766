package runtime

import (
	"context"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

// Source produces events until ctx is cancelled, calling emit for each one.
type Source interface {
	Run(ctx context.Context, emit func(event.Event)) error
	Healthcheck(ctx context.Context) error
}

// Sink delivers one event, returning the outcome a finalizer should record.
type Sink interface {
	Write(ctx context.Context, ev event.Event) (ackfabric.EventStatus, error)
	Healthcheck(ctx context.Context) error
	Close() error
}

// Transform maps one input event to zero or more output events per named
// output port ("" is the primary/default port).
type Transform interface {
	Process(ev event.Event) map[string][]event.Event
}
