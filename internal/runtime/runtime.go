package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/buffer"
	"github.com/vectordotdev/vector-sub015/internal/config"
	"github.com/vectordotdev/vector-sub015/internal/corerr"
	"github.com/vectordotdev/vector-sub015/internal/event"
	"github.com/vectordotdev/vector-sub015/internal/topology"
)

// BuildFunc constructs the named component of kind/type; runtime wiring is
// supplied (e.g. an emit sink for a source) by the caller site that invokes
// it, not the factory itself.
type (
	SourceFactory    func(name string, options map[string]any) (Source, error)
	TransformFactory func(name string, options map[string]any) (Transform, error)
	SinkFactory      func(name string, options map[string]any) (Sink, error)
)

// Registry maps component type names (as they appear in the config
// document) to constructors. Concrete packages (internal/sources/webhook,
// internal/sinks/redisq, ...) register themselves here.
type Registry struct {
	sources    map[string]SourceFactory
	transforms map[string]TransformFactory
	sinks      map[string]SinkFactory
}

func NewRegistry() *Registry {
	return &Registry{
		sources:    map[string]SourceFactory{},
		transforms: map[string]TransformFactory{},
		sinks:      map[string]SinkFactory{},
	}
}

// SetDropHandler installs a callback invoked with (sinkName, reason)
// whenever a sink's buffer discards a record rather than queueing it,
// letting a caller (cmd/vector) wire it to the telemetry EventsDropped
// counter. Call before Build so every buffer it constructs picks it up.
func (rt *Runtime) SetDropHandler(h func(component, reason string)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.onDrop = h
}

func (r *Registry) RegisterSource(typ string, f SourceFactory)       { r.sources[typ] = f }
func (r *Registry) RegisterTransform(typ string, f TransformFactory) { r.transforms[typ] = f }
func (r *Registry) RegisterSink(typ string, f SinkFactory)           { r.sinks[typ] = f }

// Runtime is a single built-and-running instance of the topology: live
// sources, transforms, sinks and the routing between them, plus the
// shutdown coordinator governing their teardown.
type Runtime struct {
	registry *Registry
	log      *slog.Logger
	onDrop   func(component, reason string)

	mu       sync.Mutex
	sinks    map[string]Sink
	sinkBuf  map[string]buffer.Buffer
	transforms map[string]Transform
	sources  map[string]Source
	routes   map[topology.OutputId][]topology.ComponentKey
	shutdown *ShutdownCoordinator
	wg       sync.WaitGroup
}

// New builds a Runtime bound to registry; call Build to materialize tasks
// from a config Document and its topology Graph.
func New(registry *Registry, log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.Default()
	}
	return &Runtime{
		registry: registry,
		log:      log,
		sinks:    map[string]Sink{},
		sinkBuf:  map[string]buffer.Buffer{},
		transforms: map[string]Transform{},
		sources:  map[string]Source{},
		shutdown: NewShutdownCoordinator(log),
	}
}

// Build constructs every sink, transform and source named in doc, in that
// order (spec.md's build order: buffers/sinks first so nothing can be
// delivered before its destination exists, then transforms, then sources
// last so nothing starts producing before everything downstream is ready).
// Every built sink and source is healthchecked before Build returns.
func (rt *Runtime) Build(ctx context.Context, doc *config.Document, graph *topology.Graph) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.routes = routesFromGraph(graph)

	for name, s := range doc.Sinks {
		factory, ok := rt.registry.sinks[s.Type]
		if !ok {
			return corerr.New(corerr.KindConfigResource, "no sink factory registered for type %q", s.Type)
		}
		sink, err := factory(name, s.Options)
		if err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "build sink %q", name)
		}
		if err := sink.Healthcheck(ctx); err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "healthcheck sink %q", name)
		}
		rt.sinks[name] = sink
		buf := buffer.NewMemoryBuffer(1024, buffer.Block, nil)
		if rt.onDrop != nil {
			sinkName := name
			buf.SetDropHandler(func(reason string) { rt.onDrop(sinkName, reason) })
		}
		rt.sinkBuf[name] = buf
	}

	for name, tr := range doc.Transforms {
		factory, ok := rt.registry.transforms[tr.Type]
		if !ok {
			return corerr.New(corerr.KindConfigResource, "no transform factory registered for type %q", tr.Type)
		}
		transform, err := factory(name, tr.Options)
		if err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "build transform %q", name)
		}
		rt.transforms[name] = transform
	}

	for name, s := range doc.Sources {
		factory, ok := rt.registry.sources[s.Type]
		if !ok {
			return corerr.New(corerr.KindConfigResource, "no source factory registered for type %q", s.Type)
		}
		src, err := factory(name, s.Options)
		if err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "build source %q", name)
		}
		if err := src.Healthcheck(ctx); err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "healthcheck source %q", name)
		}
		rt.sources[name] = src
	}

	return nil
}

func routesFromGraph(g *topology.Graph) map[topology.OutputId][]topology.ComponentKey {
	out := map[topology.OutputId][]topology.ComponentKey{}
	if g == nil {
		return out
	}
	for _, e := range g.Edges {
		out[e.From] = append(out[e.From], e.To)
	}
	return out
}

// Run starts every sink's delivery loop and every source's production
// loop, and blocks until ctx is cancelled, then drains via the shutdown
// coordinator.
func (rt *Runtime) Run(ctx context.Context, shutdownDeadline time.Duration) error {
	rt.mu.Lock()
	for name, sink := range rt.sinks {
		rt.wg.Add(1)
		go rt.runSink(ctx, name, sink)
	}
	for name, src := range rt.sources {
		rt.wg.Add(1)
		go rt.runSource(ctx, name, src)
	}
	rt.mu.Unlock()

	<-ctx.Done()
	late := rt.shutdown.Trigger(context.Background(), shutdownDeadline)
	rt.wg.Wait()
	for _, sink := range rt.sinks {
		sink.Close()
	}
	return Deadline(late)
}

func (rt *Runtime) runSink(ctx context.Context, name string, sink Sink) {
	defer rt.wg.Done()
	done := rt.shutdown.Begin(name)
	defer done()

	buf := rt.sinkBuf[name]
	for {
		rec, err := buf.Next(ctx)
		if err != nil {
			return
		}
		// Sinks MUST mark their finalizer handles Delivered/Rejected/Errored
		// on every write outcome (spec §4.5); a write error that doesn't
		// itself return a status still resolves the event's handles Errored
		// rather than leaving the batch notifier hanging forever.
		status, err := sink.Write(ctx, rec.Event)
		if err != nil {
			rt.log.Error("sink write failed", "sink", name, "error", err)
			rec.Event.Finalize(ackfabric.Errored)
			continue
		}
		rec.Event.Finalize(status)
	}
}

func (rt *Runtime) runSource(ctx context.Context, name string, src Source) {
	defer rt.wg.Done()
	done := rt.shutdown.Begin(name)
	defer done()

	origin := topology.OutputId{Component: topology.ComponentKey(name)}
	src.Run(ctx, func(ev event.Event) {
		notifier := ackfabric.NewBatchNotifier(func(id uuid.UUID, status ackfabric.EventStatus) {
			rt.log.Debug("event batch finalized", "source", name, "batch_id", id, "status", status)
		})
		// Hold a claim on the batch while routing, so a sink that finishes
		// early cannot resolve it before every sink delivery has its handle.
		routing := notifier.AddHandle()
		rt.route(ctx, origin, ev, notifier)
		routing.Update(ackfabric.Delivered)
	})
}

// route delivers ev to every downstream component of from, running
// transforms inline and enqueuing terminal sinks. Every sink delivery gets
// its own handle off notifier, so a fan-out to N sinks resolves the batch
// to the worst of the N outcomes once every sink has written (spec §4.5,
// §8 scenario 6); notifier is nil only when a caller routes without
// tracking acknowledgement at all.
func (rt *Runtime) route(ctx context.Context, from topology.OutputId, ev event.Event, notifier *ackfabric.BatchNotifier) {
	for _, to := range rt.routes[from] {
		if _, ok := rt.sinks[string(to)]; ok {
			buf := rt.sinkBuf[string(to)]
			sinkEv := ev
			if notifier != nil {
				sinkEv = ev.WithHandle(notifier.AddHandle())
			}
			if err := buf.Send(ctx, buffer.Record{Event: sinkEv}); err != nil {
				sinkEv.Finalize(ackfabric.Dropped)
			}
			continue
		}
		if transform, ok := rt.transforms[string(to)]; ok {
			outputs := transform.Process(ev)
			for port, evs := range outputs {
				outID := topology.OutputId{Component: to, Port: port}
				for _, out := range evs {
					// A transform that builds a fresh Event rather than
					// copying its input (unlike noop/route today) must
					// still propagate the input's finalizer handles onto
					// every derived event (spec §4.5); guard for that here
					// rather than trusting every Transform implementation.
					if len(out.Handles) == 0 && len(ev.Handles) > 0 {
						out = out.WithHandles(ev.Handles...)
					}
					rt.route(ctx, outID, out, notifier)
				}
			}
		}
	}
}

// ReloadComponents implements config.ComponentReloader: it simply logs the
// affected set today (a running topology's sources/sinks are rebuilt by a
// fresh Build+Run cycle at the cmd/vector layer, matching the teacher's own
// reload coordinator delegating the heavy lifting to distinct call sites
// per component type).
func (rt *Runtime) ReloadComponents(ctx context.Context, names []string, doc *config.Document) error {
	rt.log.Info("components affected by reload", "components", names)
	return nil
}

// BufferDepths reports each sink's queued record count, keyed by sink
// name, for the telemetry exporter to poll.
func (rt *Runtime) BufferDepths() map[string]int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make(map[string]int, len(rt.sinkBuf))
	for name, buf := range rt.sinkBuf {
		out[name] = buf.Len()
	}
	return out
}

// Healthcheck runs every sink and source's Healthcheck, failing fast on the
// first error.
func (rt *Runtime) Healthcheck(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for name, sink := range rt.sinks {
		if err := sink.Healthcheck(ctx); err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "sink %q", name)
		}
	}
	for name, src := range rt.sources {
		if err := src.Healthcheck(ctx); err != nil {
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "source %q", name)
		}
	}
	return nil
}
