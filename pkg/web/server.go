package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/ritzau/net-topology/pkg/analysis"
	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/ingest"
	"github.com/ritzau/net-topology/pkg/lens"
	"github.com/ritzau/net-topology/pkg/logging"
	"github.com/ritzau/net-topology/pkg/model"
	"github.com/ritzau/net-topology/pkg/pubsub"
	"github.com/ritzau/net-topology/pkg/render"
)

var log = logging.New("web")

// ReportResponse is the body of GET /api/report
type ReportResponse struct {
	RunID      string        `json:"run_id"`
	Files      int           `json:"files"`
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	DurationMs int64         `json:"duration_ms"`
	Report     ingest.Report `json:"report"`
}

// Server serves the latest topology and streams run progress.
// It implements analysis.Observer.
type Server struct {
	router      *mux.Router
	publisher   *pubsub.SSEPublisher
	defaultLens lens.LensConfig
	title       string

	mu     sync.RWMutex
	result *analysis.Result // Latest completed run; never mutated after publish
}

// NewServer creates a web server. defaultLens applies when a request does
// not select a view or a minimum component size.
func NewServer(defaultLens lens.LensConfig, title string) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		publisher:   pubsub.NewSSEPublisher(),
		defaultLens: defaultLens,
		title:       title,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with request logging applied
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

// RunStatus publishes ingestion progress
func (s *Server) RunStatus(ctx context.Context, state, message string, step, total int) {
	status := pubsub.IngestStatus{
		RunID:   logging.GetRunID(ctx),
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	}
	if err := s.publisher.Publish(pubsub.TopicIngestStatus, state, status); err != nil {
		log.Warn("failed to publish ingest status", "error", err)
	}
}

// RunComplete stores the result of a finished run and notifies subscribers
func (s *Server) RunComplete(ctx context.Context, result *analysis.Result) {
	s.SetResult(result)

	update := pubsub.TopologyUpdate{
		RunID:    result.RunID,
		Nodes:    result.Graph.NodeCount(),
		Edges:    result.Graph.EdgeCount(),
		Warnings: len(result.Report.Warnings),
		Files:    result.Files,
	}
	if err := s.publisher.Publish(pubsub.TopicTopology, "updated", update); err != nil {
		log.Warn("failed to publish topology update", "error", err)
	}
}

// SetResult replaces the served topology
func (s *Server) SetResult(result *analysis.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

func (s *Server) latest() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")
	s.router.HandleFunc("/api/topology", s.handleTopology).Methods("GET")
	s.router.HandleFunc("/api/topology.dot", s.handleTopologyDOT).Methods("GET")
	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

// lensFromQuery reads ?view=raw|aggregated&min=N on top of the default lens
func (s *Server) lensFromQuery(r *http.Request) (lens.LensConfig, error) {
	cfg := s.defaultLens
	q := r.URL.Query()
	if v := q.Get("view"); v != "" {
		if v != string(lens.ViewRaw) && v != string(lens.ViewAggregated) {
			return cfg, fmt.Errorf("unknown view %q", v)
		}
		cfg.View = lens.View(v)
	}
	if m := q.Get("min"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid min %q", m)
		}
		cfg.MinComponentSize = n
	}
	return cfg, nil
}

// view resolves the requested view of the latest result, writing the error response itself
func (s *Server) view(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	cfg, err := s.lensFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	result := s.latest()
	if result == nil {
		http.Error(w, "topology not ready", http.StatusServiceUnavailable)
		return nil, false
	}
	return result.View(cfg), true
}

// handleIndex always serves the page. Before the first run completes it is
// an empty graph that shows ingestion progress and reloads once a topology
// is published.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.lensFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := render.HTMLOptions{
		Title:        s.title,
		SubscribeURL: "/api/subscribe/" + pubsub.TopicTopology,
		StatusURL:    "/api/subscribe/" + pubsub.TopicIngestStatus,
	}
	snapshot := &model.Graph{}
	if result := s.latest(); result != nil {
		opts.RunID = result.RunID
		snapshot = result.View(cfg).Snapshot()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WriteHTML(w, snapshot, opts); err != nil {
		log.ErrorContext(r.Context(), "failed to render page", "error", err)
	}
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	g, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, g.Snapshot())
}

func (s *Server) handleTopologyDOT(w http.ResponseWriter, r *http.Request) {
	g, ok := s.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	fmt.Fprint(w, render.ToDOT(g.Snapshot()))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	result := s.latest()
	if result == nil {
		http.Error(w, "topology not ready", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, r, ReportResponse{
		RunID:      result.RunID,
		Files:      result.Files,
		Nodes:      result.Graph.NodeCount(),
		Edges:      result.Graph.EdgeCount(),
		DurationMs: result.Duration.Milliseconds(),
		Report:     result.Report,
	})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicIngestStatus && topic != pubsub.TopicTopology {
		http.Error(w, "unknown topic", http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial comment establishes the stream (Safari compatibility)
	fmt.Fprint(w, ": connected\n\n")
	flush(w)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				log.Debug("subscriber went away", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Close streams first so Shutdown does not wait on open subscriptions
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
