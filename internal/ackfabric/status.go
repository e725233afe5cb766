// Package ackfabric implements the batch acknowledgement fabric: a
// BatchNotifier that many event handles report into, resolving to the
// worst-case EventStatus across every handle once all are accounted for.
//
// Only Update resolves a handle. Discarding a handle is not detected: a
// handle that is never updated keeps its batch pending, and OnDone does not
// fire for that batch.
package ackfabric

// EventStatus is the delivery outcome of one event, ordered best-to-worst
// for aggregation: Delivered < Errored < Rejected < Dropped.
type EventStatus int

const (
	Delivered EventStatus = iota
	Errored
	Rejected
	Dropped
)

func (s EventStatus) String() string {
	switch s {
	case Delivered:
		return "delivered"
	case Errored:
		return "errored"
	case Rejected:
		return "rejected"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// worse picks whichever of a, b ranks higher in the Delivered < Errored <
// Rejected < Dropped ordering.
func worse(a, b EventStatus) EventStatus {
	if b > a {
		return b
	}
	return a
}
