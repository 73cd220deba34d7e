// Package observability serves the runtime's read-only HTTP status surface.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SNeC-Lab-PSU/LLMER/internal/telemetry"
)

const shutdownGrace = 5 * time.Second

// HandlerConfig wires the optional pieces of the status surface.
type HandlerConfig struct {
	// Metrics serves /metrics when set.
	Metrics     http.Handler
	EnablePprof bool
	TickRate    int
	// Counters reports in-process counters on /diagnostics when set.
	Counters func() map[string]uint64
	Now      func() time.Time
}

// NewHandler builds the status router.
func NewHandler(source StatusSource, cfg HandlerConfig) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/diagnostics", func(w http.ResponseWriter, _ *http.Request) {
		var counters map[string]uint64
		if cfg.Counters != nil {
			counters = cfg.Counters()
		}
		writeJSON(w, struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			TickRate   int               `json:"tickRate"`
			Runtime    Status            `json:"runtime"`
			Telemetry  map[string]uint64 `json:"telemetry,omitempty"`
		}{
			Status:     "ok",
			ServerTime: now().UnixMilli(),
			TickRate:   cfg.TickRate,
			Runtime:    statusOf(source),
			Telemetry:  counters,
		})
	})

	r.Get("/tasks", func(w http.ResponseWriter, _ *http.Request) {
		status := statusOf(source)
		writeJSON(w, struct {
			Tick  uint64   `json:"tick"`
			Tasks []string `json:"tasks"`
		}{
			Tick:  status.Tick,
			Tasks: status.ActiveTasks,
		})
	})

	r.Get("/gate", func(w http.ResponseWriter, _ *http.Request) {
		status := statusOf(source)
		writeJSON(w, struct {
			State        string `json:"state"`
			PendingWaits int    `json:"pendingWaits"`
		}{
			State:        status.Gate,
			PendingWaits: status.PendingWaits,
		})
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.EnablePprof {
		r.Mount("/debug", middleware.Profiler())
	}
	return r
}

func statusOf(source StatusSource) Status {
	if source == nil {
		return Status{Gate: "idle", ActiveTasks: []string{}}
	}
	return source.Status()
}

func writeJSON(w http.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger telemetry.Logger) error {
	if addr == "" {
		addr = DefaultListenAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, listener, handler, logger)
}

// ServeListener serves handler on an existing listener until ctx is
// cancelled.
func ServeListener(ctx context.Context, listener net.Listener, handler http.Handler, logger telemetry.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if logger != nil {
			logger.Printf("status surface listening on %s", listener.Addr())
		}
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
