// Package noop implements the identity transform, useful as a named
// attachment point in a topology (e.g. a place to later insert
// enrichment) that for now only forwards its input unchanged.
package noop

import "github.com/vectordotdev/vector-sub015/internal/event"

type Transform struct{}

func New(name string, options map[string]any) (*Transform, error) { return &Transform{}, nil }

func (t *Transform) Process(ev event.Event) map[string][]event.Event {
	return map[string][]event.Event{"": {ev}}
}
