package buffer

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned from Next once a closed buffer has been fully
// drained.
var ErrClosed = errors.New("buffer: closed")

// MemoryBuffer is a bounded channel-backed buffer. It holds no durability
// guarantee across a process restart — that's what DiskBuffer is for.
type MemoryBuffer struct {
	ch       chan Record
	policy   Policy
	overflow Buffer
	onDrop   DropHandler

	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemoryBuffer constructs a buffer of the given capacity applying
// policy when full. overflow is only consulted when policy is Overflow and
// may be nil otherwise.
func NewMemoryBuffer(capacity int, policy Policy, overflow Buffer) *MemoryBuffer {
	return &MemoryBuffer{
		ch:     make(chan Record, capacity),
		policy: policy,
		overflow: overflow,
		closed: make(chan struct{}),
	}
}

func (b *MemoryBuffer) Send(ctx context.Context, rec Record) error {
	select {
	case b.ch <- rec:
		return nil
	default:
	}

	switch b.policy {
	case DropNewest:
		b.emitDrop("buffer full, policy DropNewest")
		return nil
	case Overflow:
		if b.overflow != nil {
			return b.overflow.Send(ctx, rec)
		}
		b.emitDrop("buffer full, policy Overflow with no overflow buffer configured")
		return nil
	default: // Block
		select {
		case b.ch <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closed:
			return ErrClosed
		}
	}
}

func (b *MemoryBuffer) Next(ctx context.Context) (Record, error) {
	select {
	case rec, ok := <-b.ch:
		if !ok {
			return Record{}, ErrClosed
		}
		return rec, nil
	case <-ctx.Done():
		return Record{}, ctx.Err()
	}
}

func (b *MemoryBuffer) Len() int { return len(b.ch) }

// Flush is a no-op: a memory buffer holds nothing that needs flushing to a
// durable medium.
func (b *MemoryBuffer) Flush() error { return nil }

func (b *MemoryBuffer) SetDropHandler(h DropHandler) { b.onDrop = h }

func (b *MemoryBuffer) emitDrop(reason string) {
	if b.onDrop != nil {
		b.onDrop(reason)
	}
}

func (b *MemoryBuffer) Close() error {
	b.closeOnce.Do(func() {
		close(b.closed)
		close(b.ch)
	})
	return nil
}
