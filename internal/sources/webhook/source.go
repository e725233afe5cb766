// Package webhook implements an HTTP source accepting newline-delimited
// JSON log events, one object per line, rate limited per remote address.
// Grounded on the teacher's webhook handler and rate-limiting middleware.
package webhook

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/vectordotdev/vector-sub015/internal/event"
)

// Config configures the listener and per-address rate limit.
type Config struct {
	Addr          string
	Path          string
	RatePerSecond float64
	Burst         int
}

func DefaultConfig() Config {
	return Config{Addr: ":8181", Path: "/events", RatePerSecond: 100, Burst: 200}
}

// Source is the webhook HTTP source.
type Source struct {
	cfg    Config
	log    *slog.Logger
	server *http.Server

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a Source from options decoded out of the component's config
// section. Unset fields fall back to DefaultConfig.
func New(name string, options map[string]any, log *slog.Logger) (*Source, error) {
	cfg := DefaultConfig()
	if addr, ok := options["addr"].(string); ok {
		cfg.Addr = addr
	}
	if path, ok := options["path"].(string); ok {
		cfg.Path = path
	}
	if log == nil {
		log = slog.Default()
	}
	return &Source{cfg: cfg, log: log.With("component_id", name), limiters: map[string]*rate.Limiter{}}, nil
}

func (s *Source) limiterFor(addr string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[addr]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.Burst)
		s.limiters[addr] = l
	}
	return l
}

// Run serves HTTP until ctx is cancelled, emitting one LogEvent per line of
// request body.
func (s *Source) Run(ctx context.Context, emit func(event.Event)) error {
	router := mux.NewRouter()
	router.HandleFunc(s.cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		host, _, _ := net.SplitHostPort(r.RemoteAddr)
		if host == "" {
			host = r.RemoteAddr
		}
		if !s.limiterFor(host).Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		scanner := bufio.NewScanner(r.Body)
		count := 0
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var fields map[string]any
			if err := json.Unmarshal(line, &fields); err != nil {
				http.Error(w, fmt.Sprintf("invalid json on line %d: %v", count+1, err), http.StatusBadRequest)
				return
			}
			emit(event.FromLog(logEventFromMap(fields)))
			count++
		}
		w.WriteHeader(http.StatusAccepted)
	})

	s.server = &http.Server{Addr: s.cfg.Addr, Handler: router}
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

func logEventFromMap(fields map[string]any) event.LogEvent {
	e := event.NewLogEvent()
	for k, v := range fields {
		e.Fields.Set(k, toValue(v))
	}
	return e
}

func toValue(v any) event.Value {
	switch t := v.(type) {
	case nil:
		return event.Null()
	case bool:
		return event.Bool(t)
	case float64:
		return event.Float(t)
	case string:
		return event.String(t)
	case []any:
		vs := make([]event.Value, len(t))
		for i, e := range t {
			vs[i] = toValue(e)
		}
		return event.Array(vs)
	case map[string]any:
		m := make(map[string]event.Value, len(t))
		for k, e := range t {
			m[k] = toValue(e)
		}
		return event.Object(m)
	default:
		return event.String(fmt.Sprintf("%v", t))
	}
}

// Healthcheck reports the source ready once constructed; the listener
// itself is started by Run, matching components whose health is "can
// accept connections" rather than "actively connected".
func (s *Source) Healthcheck(ctx context.Context) error { return nil }
