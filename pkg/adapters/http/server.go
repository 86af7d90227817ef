package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/internal/presentation/graph"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/schema"
	"github.com/aretw0/rewind/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps request bodies; actions are small documents.
const maxBodyBytes = 1 << 20

// Server exposes an Engine and its trajectories over HTTP.
type Server struct {
	Engine   *rewind.Engine
	Sessions *session.Manager
	Streams  *StreamManager
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h (e.g. observability.Metrics.Handler) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(engine *rewind.Engine, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		Streams:  NewStreamManager(),
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/check", s.GetCheck)
	r.Get("/schemas/action", s.GetActionSchema)
	r.Get("/rollback/{node}", s.PreviewRollback)

	r.Route("/trajectories", func(r chi.Router) {
		r.Post("/", s.CreateTrajectory)
		r.Get("/", s.ListTrajectories)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrajectory)
			r.Delete("/", s.DeleteTrajectory)
			r.Post("/steps", s.Step)
			r.Get("/readiness", s.GetReadiness)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateTrajectoryRequest is the optional body of POST /trajectories.
type CreateTrajectoryRequest struct {
	ID string `json:"id,omitempty"`
}

// StepResponse is the body returned by POST /trajectories/{id}/steps.
type StepResponse struct {
	domain.StepResult
	Steps int                    `json:"steps"`
	Diff  *domain.TrajectoryDiff `json:"diff,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":     "rewind-http",
		"version": strings.TrimSpace(rewind.Version),
		"config":  s.Engine.Name,
		"nodes":   s.Engine.Config().Nodes(),
	})
}

// GetGraph handles GET /graph. The mermaid flowchart is the default; ?format=json returns
// the configuration itself. ?trajectory=<id> overlays its executed nodes.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	cfg := s.Engine.Config()
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, cfg)
		return
	}

	var overlay *graph.Overlay
	if id := r.URL.Query().Get("trajectory"); id != "" {
		traj, err := s.Sessions.Load(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = &graph.Overlay{Executed: traj.Executed}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(cfg, overlay))
}

// GetCheck handles GET /check, the configuration coherence report.
func (s *Server) GetCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Check())
}

// GetActionSchema handles GET /schemas/action.
func (s *Server) GetActionSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(schema.ActionSchema())
}

// PreviewRollback handles GET /rollback/{node}?policy=.
func (s *Server) PreviewRollback(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "node")
	scope, err := s.Engine.Preview(node, r.URL.Query().Get("policy"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, scope)
}

// CreateTrajectory handles POST /trajectories.
func (s *Server) CreateTrajectory(w http.ResponseWriter, r *http.Request) {
	var body CreateTrajectoryRequest
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil && len(bytes.TrimSpace(data)) > 0 {
		err = json.Unmarshal(data, &body)
	}
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("CreateTrajectory: invalid request body", "error", err)
		return
	}

	traj, err := s.Sessions.Create(r.Context(), body.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/trajectories/"+traj.ID)
	s.writeJSON(w, http.StatusCreated, traj)
}

// ListTrajectories handles GET /trajectories.
func (s *Server) ListTrajectories(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"trajectories": ids})
}

// GetTrajectory handles GET /trajectories/{id}.
func (s *Server) GetTrajectory(w http.ResponseWriter, r *http.Request) {
	traj, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, traj)
}

// DeleteTrajectory handles DELETE /trajectories/{id}.
func (s *Server) DeleteTrajectory(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Step handles POST /trajectories/{id}/steps. The body is one action, bare or wrapped as
// {"action": {...}}. A rejected action is still a 200: the outcome is in the result.
func (s *Server) Step(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	raw, err := schema.ParseAction(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.Logger.Warn("Step: invalid request body", "error", err, "trajectory_id", id)
		return
	}

	res, before, after, err := s.Sessions.Step(r.Context(), id, raw)
	if err != nil {
		s.writeError(w, err)
		return
	}

	diff := domain.Diff(before, after)
	if diff != nil {
		if b, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(b))
		}
	}
	s.writeJSON(w, http.StatusOK, StepResponse{StepResult: res, Steps: after.Steps, Diff: diff})
}

// GetReadiness handles GET /trajectories/{id}/readiness.
func (s *Server) GetReadiness(w http.ResponseWriter, r *http.Request) {
	traj, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	gates := s.Engine.Readiness(traj.State)
	passed := true
	for _, g := range gates {
		passed = passed && g.Passed
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"passed": passed, "gates": gates})
}

// SubscribeEvents handles GET /trajectories/{id}/events, streaming step diffs as SSE.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTrajectoryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, domain.ErrTrajectoryExists):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.Logger.Error("request failed", "error", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
