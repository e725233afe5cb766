// Package wstap implements a "tap" sink: it fans every delivered event out
// to connected websocket debug clients instead of (or alongside) a durable
// destination. Grounded on the teacher's internal/realtime event bus
// (subscriber registry, buffered broadcast channel, auto-unsubscribe on a
// dead client).
package wstap

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vectordotdev/vector-sub015/internal/ackfabric"
	"github.com/vectordotdev/vector-sub015/internal/event"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Sink is a broadcast hub: Write pushes an event onto every connected
// client's send channel; a slow or dead client is dropped rather than
// allowed to apply backpressure to the pipeline.
type Sink struct {
	log    *slog.Logger
	addr   string
	path   string
	server *http.Server

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

// New builds a Sink from decoded component options.
func New(name string, options map[string]any, log *slog.Logger) (*Sink, error) {
	addr, _ := options["addr"].(string)
	if addr == "" {
		addr = ":8282"
	}
	path, _ := options["path"].(string)
	if path == "" {
		path = "/tap"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		log:         log.With("component_id", name),
		addr:        addr,
		path:        path,
		subscribers: map[*subscriber]struct{}{},
	}, nil
}

// Serve starts the websocket listener. Like webhook.Source.Run, it's meant
// to be driven by the runtime's source-equivalent lifecycle, but a sink has
// no Run method in this core's interface — callers start it explicitly
// alongside Build, mirroring how the teacher's EventBus.Start() is called
// once at server boot rather than per-component.
func (s *Sink) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)
	s.server = &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Sink) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, 64)}

	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.subscribers, sub)
			s.mu.Unlock()
			conn.Close()
		}()
		for msg := range sub.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()
}

func (s *Sink) Write(ctx context.Context, ev event.Event) (ackfabric.EventStatus, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return ackfabric.Errored, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub.send <- payload:
		default:
			// Slow client: drop it rather than block the pipeline.
			delete(s.subscribers, sub)
			close(sub.send)
		}
	}
	return ackfabric.Delivered, nil
}

// ActiveSubscribers reports the current connected client count.
func (s *Sink) ActiveSubscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *Sink) Healthcheck(ctx context.Context) error { return nil }

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		close(sub.send)
		delete(s.subscribers, sub)
	}
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
