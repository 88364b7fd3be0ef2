// Package api serves the solve store, ranking estimates and imports as JSON over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cubelog/cubelog/internal/importer"
	"github.com/cubelog/cubelog/internal/model"
	"github.com/cubelog/cubelog/internal/ranking"
	"github.com/cubelog/cubelog/internal/store"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	store    *store.Store
	ranking  *ranking.Client
	importer *importer.Importer
	logger   *log.Logger
}

// New builds a Server. A nil logger discards access and error logs.
func New(st *store.Store, rc *ranking.Client, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		store:    st,
		ranking:  rc,
		importer: importer.New(st, logger),
		logger:   logger,
	}
}

// Handler returns the routed handler wrapped in request id and access log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return RequestID(s.accessLog(mux))
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", s.handleUpdateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/recompute", s.handleRecomputeSession)
	mux.HandleFunc("GET /api/sessions/{id}/solves", s.handleListSolves)
	mux.HandleFunc("POST /api/sessions/{id}/solves", s.handleAppendSolve)

	mux.HandleFunc("GET /api/solves/{id}", s.handleGetSolve)
	mux.HandleFunc("PATCH /api/solves/{id}", s.handleEditSolve)
	mux.HandleFunc("DELETE /api/solves/{id}", s.handleDeleteSolve)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/pb", s.handlePersonalBest)
	mux.HandleFunc("GET /api/rank", s.handleRank)

	mux.HandleFunc("GET /api/cubes", s.handleListCubes)
	mux.HandleFunc("POST /api/cubes", s.handleCreateCube)
	mux.HandleFunc("GET /api/cubes/{id}", s.handleGetCube)
	mux.HandleFunc("PATCH /api/cubes/{id}", s.handleUpdateCube)
	mux.HandleFunc("DELETE /api/cubes/{id}", s.handleRetireCube)

	mux.HandleFunc("GET /api/user/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/user/settings", s.handleSaveSettings)
	mux.HandleFunc("DELETE /api/user/settings", s.handleClearSettings)

	mux.HandleFunc("GET /api/charts/progress", s.handleProgressChart)
	mux.HandleFunc("GET /api/charts/session-progress", s.handleSessionProgressChart)
	mux.HandleFunc("GET /api/charts/distribution", s.handleDistributionChart)

	mux.HandleFunc("POST /api/import/preview", s.handleImportPreview)
	mux.HandleFunc("POST /api/import", s.handleImport)
}

// handleHealthz reports whether the database answers.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check", "err", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe runs the API on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func filterFromQuery(r *http.Request) (model.SessionFilter, error) {
	q := r.URL.Query()
	filter := model.SessionFilter{Event: q.Get("event")}
	if since := q.Get("since"); since != "" {
		date, err := model.ParseDate(since)
		if err != nil {
			return filter, err
		}
		t, _ := time.Parse(model.DateLayout, date)
		filter.Since = &t
	}
	last, err := queryInt(r, "last")
	if err != nil {
		return filter, err
	}
	filter.Last = last
	return filter, nil
}
