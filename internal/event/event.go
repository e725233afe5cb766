package event

import (
	"encoding/json"
	"time"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/topology"
)

// LogEvent is a single structured log record.
type LogEvent struct {
	Fields Value
}

func NewLogEvent() LogEvent { return LogEvent{Fields: Object(nil)} }

// MetricEvent is a single counter/gauge/histogram observation.
type MetricEvent struct {
	Name      string
	Tags      map[string]string
	Value     float64
	Timestamp time.Time
}

// TraceEvent is a single span.
type TraceEvent struct {
	Fields Value
}

func NewTraceEvent() TraceEvent { return TraceEvent{Fields: Object(nil)} }

// Event is the tagged union flowing through the pipeline. Exactly one of
// Log/Metric/Trace is populated, matching Kind. Handles is the (possibly
// empty) set of finalizer handles this event must resolve before its
// originating batch is considered acknowledged; copying an Event copies the
// Handles slice header, so every derived copy shares the same underlying
// set until WithHandle/WithHandles grows it.
type Event struct {
	Kind    topology.DataType
	Log     *LogEvent
	Metric  *MetricEvent
	Trace   *TraceEvent
	Handles []*ackfabric.Handle
}

func FromLog(e LogEvent) Event       { return Event{Kind: topology.DataTypeLog, Log: &e} }
func FromMetric(e MetricEvent) Event { return Event{Kind: topology.DataTypeMetric, Metric: &e} }
func FromTrace(e TraceEvent) Event   { return Event{Kind: topology.DataTypeTrace, Trace: &e} }

// WithHandle returns a copy of e with h appended to its finalizer set,
// without mutating e's own backing array.
func (e Event) WithHandle(h *ackfabric.Handle) Event {
	return e.WithHandles(h)
}

// WithHandles returns a copy of e with hs appended to its finalizer set.
func (e Event) WithHandles(hs ...*ackfabric.Handle) Event {
	handles := make([]*ackfabric.Handle, 0, len(e.Handles)+len(hs))
	handles = append(handles, e.Handles...)
	handles = append(handles, hs...)
	e.Handles = handles
	return e
}

// Finalize resolves every finalizer handle attached to e with status. A
// sink or a dropped-send path calls this once it knows the event's final
// delivery outcome.
func (e Event) Finalize(status ackfabric.EventStatus) {
	for _, h := range e.Handles {
		h.Update(status)
	}
}

// wireEvent is the JSON-serializable form of Event, used by the disk buffer
// and any sink that writes events as JSON. Handles is deliberately omitted:
// a finalizer handle is a live in-process pointer into a BatchNotifier that
// no longer exists once an event is replayed from disk after a restart.
type wireEvent struct {
	Kind   topology.DataType `json:"kind"`
	Log    *LogEvent         `json:"log,omitempty"`
	Metric *MetricEvent      `json:"metric,omitempty"`
	Trace  *TraceEvent       `json:"trace,omitempty"`
}

func (e Event) toWire() wireEvent {
	return wireEvent{Kind: e.Kind, Log: e.Log, Metric: e.Metric, Trace: e.Trace}
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Kind, e.Log, e.Metric, e.Trace = w.Kind, w.Log, w.Metric, w.Trace
	return nil
}
