// Package api serves the crowdwatch status API.
//
// The API is read-mostly: it reports configured sources, their run
// history and the latest observation. The one write operation, POST
// run, only enqueues a trigger for the daemon loop; runs never execute
// on a request goroutine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/crowdwatch/internal/store"
)

// Source is the configuration summary served by /v1/sources.
type Source struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Strategy string `json:"strategy"`
	Mode     string `json:"mode"`
	Enabled  bool   `json:"enabled"`
}

// Config assembles a Server.
type Config struct {
	Sources []Source
	History *store.Store           // optional; nil degrades the history endpoints
	Trigger func(name string) bool // enqueues an immediate run; false = queue full
	Logger  *slog.Logger
}

// Server is the crowdwatch status API.
type Server struct {
	sources []Source
	byName  map[string]Source
	history *store.Store
	trigger func(string) bool
	logger  *slog.Logger
}

// NewServer builds a Server from cfg.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]Source, len(cfg.Sources))
	for _, s := range cfg.Sources {
		byName[s.Name] = s
	}
	return &Server{
		sources: cfg.Sources,
		byName:  byName,
		history: cfg.History,
		trigger: cfg.Trigger,
		logger:  logger,
	}
}

// Router builds the chi handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/sources", func(r chi.Router) {
		r.Get("/", s.handleListSources)
		r.Get("/{name}/runs", s.handleRuns)
		r.Get("/{name}/latest", s.handleLatest)
		r.Post("/{name}/run", s.handleTrigger)
	})

	return r
}

// Serve blocks until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api: server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	s.logger.Info("api: server stopped")
	return nil
}

type sourceSummary struct {
	Source
	Runs    int        `json:"runs"`
	LastRun *store.Run `json:"last_run,omitempty"`
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	out := make([]sourceSummary, 0, len(s.sources))
	for _, src := range s.sources {
		item := sourceSummary{Source: src}
		if s.history != nil {
			count, err := s.history.CountRuns(r.Context(), src.Name)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			item.Runs = count
			runs, err := s.history.RecentRuns(r.Context(), src.Name, 1)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			if len(runs) > 0 {
				item.LastRun = runs[0]
			}
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.byName[name]; !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown source %q", name))
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusOK, []*store.Run{})
		return
	}
	runs, err := s.history.RecentRuns(r.Context(), name, queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.byName[name]; !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown source %q", name))
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, errors.New("run history disabled"))
		return
	}
	run, err := s.history.LastObservation(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no observations for %q yet", name))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	src, ok := s.byName[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown source %q", name))
		return
	}
	// Disabled sources are listed but never runnable; the daemon's
	// trigger queue would reject them with a misleading "queue full".
	if !src.Enabled {
		writeError(w, http.StatusConflict, fmt.Errorf("source %q is disabled", name))
		return
	}
	if s.trigger == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("daemon not running"))
		return
	}
	if !s.trigger(name) {
		writeError(w, http.StatusServiceUnavailable, errors.New("trigger queue full"))
		return
	}
	s.logger.Info("api: run queued", "source", name)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "source": name})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
