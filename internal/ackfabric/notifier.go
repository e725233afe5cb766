package ackfabric

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is one outstanding event's claim on a BatchNotifier. Only the first
// Update call on a handle counts; later calls are no-ops, matching the
// "exactly one finalization per event" invariant of the fabric.
type Handle struct {
	id   uuid.UUID
	n    *BatchNotifier
	once sync.Once
}

// Update reports this handle's outcome and releases its claim on the batch.
func (h *Handle) Update(status EventStatus) {
	h.once.Do(func() {
		h.n.resolve(status)
	})
}

// BatchNotifier tracks a batch of event handles and calls OnDone
// exactly once, with the worst-case status across every handle, when the
// last one resolves.
type BatchNotifier struct {
	ID uuid.UUID

	mu       sync.Mutex
	pending  int
	worst    EventStatus
	OnDone   func(id uuid.UUID, status EventStatus)
	done     bool
}

// NewBatchNotifier allocates a notifier with no handles yet; each AddHandle
// registers one more, so the batch may grow before it is known in full
// (e.g. a streaming source). OnDone fires once, the first time the pending
// count drops back to zero after handles were added.
func NewBatchNotifier(onDone func(id uuid.UUID, status EventStatus)) *BatchNotifier {
	return &BatchNotifier{ID: uuid.New(), worst: Delivered, OnDone: onDone}
}

// AddHandle registers one more outstanding event and returns its Handle.
func (n *BatchNotifier) AddHandle() *Handle {
	n.mu.Lock()
	n.pending++
	n.mu.Unlock()
	return &Handle{id: uuid.New(), n: n}
}

func (n *BatchNotifier) resolve(status EventStatus) {
	n.mu.Lock()
	n.worst = worse(n.worst, status)
	n.pending--
	pending := n.pending
	worst := n.worst
	alreadyDone := n.done
	if pending == 0 && !alreadyDone {
		n.done = true
	}
	n.mu.Unlock()

	if pending == 0 && !alreadyDone && n.OnDone != nil {
		n.OnDone(n.ID, worst)
	}
}
