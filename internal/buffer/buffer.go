// Package buffer implements the bounded queue sitting between a component's
// inputs and its task loop: an in-memory channel variant for the common
// case, and a crash-safe disk segment-file variant for components that
// opted into durability across restarts.
package buffer

import (
	"context"

	"github.com/vectordotdev/vector-sub015/internal/event"
)

// Policy controls what happens when a buffer is full and a new record
// arrives.
type Policy int

const (
	// Block waits for room, applying backpressure to the upstream sender.
	Block Policy = iota
	// DropNewest discards the incoming record, keeping what's queued.
	DropNewest
	// Overflow hands the record to a configured secondary buffer instead of
	// either blocking or dropping it.
	Overflow
)

// Record is one buffered unit: an event, which carries in Event.Handles the
// ack handles to resolve once it is finally delivered or dropped.
type Record struct {
	Event event.Event
}

// DropHandler is notified whenever Send discards a record instead of
// queueing it (Policy DropNewest, or an Overflow buffer with nowhere left
// to send to), so callers can surface an "events dropped" signal per
// spec.md §4.2 instead of the drop happening silently.
type DropHandler func(reason string)

// Buffer is the behavior shared by every backend.
type Buffer interface {
	// Send enqueues rec, applying the configured Policy if full. Send
	// blocks only under Policy Block; ctx cancellation always unblocks it.
	Send(ctx context.Context, rec Record) error
	// Next blocks until a record is available or ctx is done.
	Next(ctx context.Context) (Record, error)
	// Len reports the number of records currently queued.
	Len() int
	// Flush forces any buffered writes out to their durable medium. For a
	// disk-backed buffer this fsyncs the current segment file, the
	// guarantee spec.md §4.2 requires before a send can be considered
	// recoverable across an abrupt process termination; for a memory
	// buffer it is a no-op.
	Flush() error
	// Close releases the buffer's resources. Safe to call once; Next
	// returns io.EOF-equivalent (ErrClosed) after Close once drained.
	Close() error
	// SetDropHandler installs h to be called whenever Send discards a
	// record. A nil h disables reporting.
	SetDropHandler(h DropHandler)
}
