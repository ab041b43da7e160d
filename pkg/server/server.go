// Package server exposes the current decision view over HTTP.
//
// The API is the rendering layer's backend: it fetches predictions, keeps the
// single current view and serves it as JSON or as a rendered diagram.
//
//	POST /api/v1/predict              fetch a prediction and make it current
//	POST /api/v1/views                build a view from a raw result body
//	GET  /api/v1/view                 the current view as JSON
//	GET  /api/v1/view/graph.{format}  the current graph as svg, png or dot
//	GET  /api/v1/legend               the category legend
//	GET  /healthz                     liveness
//
// Errors are JSON objects of the form
//
//	{"error": {"code": "NETWORK_ERROR", "message": "...", "request_id": "..."}}
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imartinezt/logistica-front/pkg/pipeline"
	"github.com/imartinezt/logistica-front/pkg/session"
)

// DefaultMaxBody bounds request bodies.
const DefaultMaxBody = 1 << 20

const shutdownTimeout = 10 * time.Second

// Server handles the dashboard API.
type Server struct {
	runner    *pipeline.Runner
	predictor pipeline.Predictor
	views     *session.Holder
	logger    *log.Logger
	maxBody   int64

	// mu serializes the requests that replace the current view.
	mu sync.Mutex
}

// New creates a server. predictor may be nil, in which case
// POST /api/v1/predict answers 503. views may be nil for a private holder.
func New(runner *pipeline.Runner, predictor pipeline.Predictor, views *session.Holder, logger *log.Logger) *Server {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if views == nil {
		views = &session.Holder{}
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{
		runner:    runner,
		predictor: predictor,
		views:     views,
		logger:    logger,
		maxBody:   DefaultMaxBody,
	}
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", s.handlePredict)
		r.Post("/views", s.handleCreateView)
		r.Get("/view", s.handleGetView)
		r.Get("/view/graph.{format}", s.handleGetGraph)
		r.Get("/legend", s.handleLegend)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// logRequests logs one line per request through the charm logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("request", fields...)
		} else {
			s.logger.Debug("request", fields...)
		}
	})
}
