package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/config"
	"github.com/vectordotdev/vector-sub015/internal/event"
	"github.com/vectordotdev/vector-sub015/internal/topology"
)

type fakeSource struct {
	events []event.Event
}

func (f *fakeSource) Run(ctx context.Context, emit func(event.Event)) error {
	for _, e := range f.events {
		emit(e)
	}
	<-ctx.Done()
	return nil
}
func (f *fakeSource) Healthcheck(ctx context.Context) error { return nil }

type fakeSink struct {
	mu       chan event.Event
	received []event.Event
}

func newFakeSink() *fakeSink { return &fakeSink{mu: make(chan event.Event, 16)} }

func (f *fakeSink) Write(ctx context.Context, ev event.Event) (ackfabric.EventStatus, error) {
	f.mu <- ev
	return ackfabric.Delivered, nil
}
func (f *fakeSink) Healthcheck(ctx context.Context) error { return nil }
func (f *fakeSink) Close() error                          { return nil }

type statusSink struct {
	status ackfabric.EventStatus
	writes chan event.Event
}

func (f *statusSink) Write(ctx context.Context, ev event.Event) (ackfabric.EventStatus, error) {
	f.writes <- ev
	return f.status, nil
}
func (f *statusSink) Healthcheck(ctx context.Context) error { return nil }
func (f *statusSink) Close() error                          { return nil }

func TestRuntimeRoutesSourceToSink(t *testing.T) {
	reg := NewRegistry()
	sink := newFakeSink()
	reg.RegisterSink("fake", func(name string, options map[string]any) (Sink, error) { return sink, nil })

	logEv := event.NewLogEvent()
	logEv.Fields.Set("message", event.String("hello"))
	src := &fakeSource{events: []event.Event{event.FromLog(logEv)}}
	reg.RegisterSource("fake", func(name string, options map[string]any) (Source, error) { return src, nil })

	doc := &config.Document{
		Sources: map[string]config.SourceSpec{"in": {Type: "fake"}},
		Sinks:   map[string]config.SinkSpec{"out": {Type: "fake", Inputs: []string{"in"}}},
	}
	g := topology.NewGraph()
	g.AddSource("in", topology.DataTypeLog)
	g.AddSink("out", []topology.OutputId{{Component: "in"}}, topology.DataTypeLog)

	rt := New(reg, nil)
	require.NoError(t, rt.Build(context.Background(), doc, g))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go rt.Run(ctx, 2*time.Second)

	select {
	case got := <-sink.mu:
		msg, _ := got.Log.Fields.Get("message")
		assert.Equal(t, "hello", msg.String())
	case <-time.After(time.Second):
		t.Fatal("sink never received the routed event")
	}
}

// TestRuntimeFanOutAggregatesWorstAckStatus covers spec §8 scenario 6: one
// source event fanning out to two sinks must resolve the batch to the worst
// of the two delivery outcomes, only once both sinks have written.
func TestRuntimeFanOutAggregatesWorstAckStatus(t *testing.T) {
	reg := NewRegistry()
	sinkA := &statusSink{status: ackfabric.Delivered, writes: make(chan event.Event, 1)}
	sinkB := &statusSink{status: ackfabric.Rejected, writes: make(chan event.Event, 1)}
	reg.RegisterSink("a", func(name string, options map[string]any) (Sink, error) { return sinkA, nil })
	reg.RegisterSink("b", func(name string, options map[string]any) (Sink, error) { return sinkB, nil })
	reg.RegisterSource("fake", func(name string, options map[string]any) (Source, error) { return &fakeSource{}, nil })

	doc := &config.Document{
		Sources: map[string]config.SourceSpec{"in": {Type: "fake"}},
		Sinks: map[string]config.SinkSpec{
			"outA": {Type: "a", Inputs: []string{"in"}},
			"outB": {Type: "b", Inputs: []string{"in"}},
		},
	}
	g := topology.NewGraph()
	g.AddSource("in", topology.DataTypeLog)
	g.AddSink("outA", []topology.OutputId{{Component: "in"}}, topology.DataTypeLog)
	g.AddSink("outB", []topology.OutputId{{Component: "in"}}, topology.DataTypeLog)

	rt := New(reg, nil)
	require.NoError(t, rt.Build(context.Background(), doc, g))

	resolved := make(chan ackfabric.EventStatus, 1)
	notifier := ackfabric.NewBatchNotifier(func(id uuid.UUID, status ackfabric.EventStatus) {
		resolved <- status
	})

	ev := event.FromLog(event.NewLogEvent())
	rt.route(context.Background(), topology.OutputId{Component: "in"}, ev, notifier)

	// Drain each sink's buffer and finalize its handle with the write
	// outcome the way runSink does, without running the full goroutine
	// loop, to keep the ordering of the two writes deterministic.
	for _, name := range []string{"outA", "outB"} {
		rec, err := rt.sinkBuf[name].Next(context.Background())
		require.NoError(t, err)
		status, err := rt.sinks[name].Write(context.Background(), rec.Event)
		require.NoError(t, err)
		rec.Event.Finalize(status)
	}

	select {
	case status := <-resolved:
		assert.Equal(t, ackfabric.Rejected, status)
	case <-time.After(time.Second):
		t.Fatal("batch notifier never resolved")
	}
}

// TestRuntimeSinkWriteErrorFinalizesErrored covers spec §4.5: a sink write
// that returns an error must still resolve the event's finalizer handles,
// as Errored, rather than leaving them unresolved.
func TestRuntimeSinkWriteErrorFinalizesErrored(t *testing.T) {
	reg := NewRegistry()
	sink := &erroringSink{}
	reg.RegisterSink("erroring", func(name string, options map[string]any) (Sink, error) { return sink, nil })
	reg.RegisterSource("fake", func(name string, options map[string]any) (Source, error) { return &fakeSource{}, nil })

	doc := &config.Document{
		Sources: map[string]config.SourceSpec{"in": {Type: "fake"}},
		Sinks:   map[string]config.SinkSpec{"out": {Type: "erroring", Inputs: []string{"in"}}},
	}
	g := topology.NewGraph()
	g.AddSource("in", topology.DataTypeLog)
	g.AddSink("out", []topology.OutputId{{Component: "in"}}, topology.DataTypeLog)

	rt := New(reg, nil)
	require.NoError(t, rt.Build(context.Background(), doc, g))

	resolved := make(chan ackfabric.EventStatus, 1)
	notifier := ackfabric.NewBatchNotifier(func(id uuid.UUID, status ackfabric.EventStatus) {
		resolved <- status
	})

	ev := event.FromLog(event.NewLogEvent())
	rt.route(context.Background(), topology.OutputId{Component: "in"}, ev, notifier)

	rec, err := rt.sinkBuf["out"].Next(context.Background())
	require.NoError(t, err)
	status, writeErr := rt.sinks["out"].Write(context.Background(), rec.Event)
	if writeErr != nil {
		rec.Event.Finalize(ackfabric.Errored)
	} else {
		rec.Event.Finalize(status)
	}

	select {
	case status := <-resolved:
		assert.Equal(t, ackfabric.Errored, status)
	case <-time.After(time.Second):
		t.Fatal("batch notifier never resolved")
	}
}

type erroringSink struct{}

func (f *erroringSink) Write(ctx context.Context, ev event.Event) (ackfabric.EventStatus, error) {
	return ackfabric.Delivered, assert.AnError
}
func (f *erroringSink) Healthcheck(ctx context.Context) error { return nil }
func (f *erroringSink) Close() error                          { return nil }
