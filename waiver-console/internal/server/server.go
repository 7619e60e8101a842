// Package server exposes the console's session and graph over HTTP so a
// browser graph view can drive the same controller as the terminal.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/session"
)

const shutdownTimeout = 30 * time.Second

// DocumentSource lists backend documents.
type DocumentSource interface {
	Documents(ctx context.Context) ([]api.WaiverDocument, error)
	PreviewURL(doc api.WaiverDocument) string
}

// Pinger reports cache health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures New.
type Options struct {
	Loop      *session.Loop
	Documents DocumentSource
	// Cache is optional; without it health reports the cache as disabled.
	Cache  Pinger
	Logger *zap.Logger
}

// Server routes HTTP requests to the session loop.
type Server struct {
	loop   *session.Loop
	docs   DocumentSource
	cache  Pinger
	logger *zap.Logger
	router *mux.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		loop:   opts.Loop,
		docs:   opts.Documents,
		cache:  opts.Cache,
		logger: logger.Named("server"),
		router: mux.NewRouter(),
	}

	routes := s.router.PathPrefix("/api").Subrouter()
	routes.HandleFunc("/session", s.handleSubmit).Methods(http.MethodPost)
	routes.HandleFunc("/session", s.handleCurrent).Methods(http.MethodGet)
	routes.HandleFunc("/view", s.handleView).Methods(http.MethodGet)
	routes.HandleFunc("/graph", s.handleGraph).Methods(http.MethodGet)
	routes.HandleFunc("/documents", s.handleDocuments).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Use(metricsMiddleware)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr and runs the session loop until ctx is cancelled,
// then shuts both down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		s.logger.Info("console server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type submitRequest struct {
	Query   string       `json:"query"`
	Filters api.Filters  `json:"filters"`
	Mode    session.Mode `json:"mode"`
}

type submitResponse struct {
	Accepted bool            `json:"accepted"`
	Session  session.Session `json:"session"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = session.ModeExecute
	}
	if !req.Mode.Valid() {
		http.Error(w, "Mode must be execute or explain", http.StatusBadRequest)
		return
	}

	sess, ok, err := s.loop.Submit(r.Context(), req.Query, req.Filters, req.Mode)
	if err != nil {
		s.unavailable(w, err)
		return
	}
	status := http.StatusOK
	if ok {
		status = http.StatusAccepted
	}
	s.writeJSONResponse(w, status, submitResponse{Accepted: ok, Session: sess})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loop.Current(r.Context())
	if err != nil {
		s.unavailable(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, sess)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := s.loop.View(r.Context())
	if err != nil {
		s.unavailable(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, v)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	v, err := s.loop.View(r.Context())
	if err != nil {
		s.unavailable(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, v.Graph.ForceGraph())
}

type documentView struct {
	api.WaiverDocument
	PreviewURL string `json:"preview_url"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		http.Error(w, "Documents are not available", http.StatusServiceUnavailable)
		return
	}
	docs, err := s.docs.Documents(r.Context())
	if err != nil {
		s.logger.Warn("listing documents failed", zap.Error(err))
		http.Error(w, "Failed to list documents", http.StatusBadGateway)
		return
	}
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentView{WaiverDocument: d, PreviewURL: s.docs.PreviewURL(d)})
	}
	s.writeJSONResponse(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]string{
		"status":  "healthy",
		"service": "waiver-console",
		"redis":   "disabled",
	}
	if s.cache != nil {
		health["redis"] = "disconnected"
		if err := s.cache.Ping(r.Context()); err == nil {
			health["redis"] = "connected"
		}
	}
	s.writeJSONResponse(w, http.StatusOK, health)
}

func (s *Server) unavailable(w http.ResponseWriter, err error) {
	s.logger.Debug("session loop unavailable", zap.Error(err))
	http.Error(w, "Session loop is not running", http.StatusServiceUnavailable)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}
