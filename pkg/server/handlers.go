package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imartinezt/logistica-front/pkg/buildinfo"
	"github.com/imartinezt/logistica-front/pkg/client"
	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/graph"
	"github.com/imartinezt/logistica-front/pkg/pipeline"
	"github.com/imartinezt/logistica-front/pkg/prediction"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatDOT: "text/vnd.graphviz; charset=utf-8",
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, apperrors.New(apperrors.ErrCodeNetwork, "prediction service not configured"))
		return
	}

	var req prediction.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "invalid request body"))
		return
	}
	if err := client.Validate(req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	view, err := s.runner.Predict(r.Context(), s.predictor, req)
	if err == nil {
		s.views.Replace(view)
	}
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, apperrors.New(apperrors.ErrCodeInvalidInput, "body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, http.StatusBadRequest, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	hint := prediction.SchemaUnknown
	if v := r.URL.Query().Get("schema"); v != "" {
		hint = prediction.ParseSchemaVersion(v)
		if hint == prediction.SchemaUnknown {
			s.writeError(w, r, http.StatusBadRequest, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown schema %q", v))
			return
		}
	}

	s.mu.Lock()
	view := s.runner.BuildView(r.Context(), raw, hint)
	s.views.Replace(view)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := s.views.Get()
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, apperrors.Wrap(apperrors.ErrCodeNotFound, err, "no prediction yet"))
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	contentType, ok := contentTypes[format]
	if !ok {
		s.writeError(w, r, http.StatusNotFound, apperrors.New(apperrors.ErrCodeNotFound, "unsupported graph format %q", format))
		return
	}

	view, err := s.views.Get()
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, apperrors.Wrap(apperrors.ErrCodeNotFound, err, "no prediction yet"))
		return
	}

	opts, err := renderOptions(r, format)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), view, opts)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("X-View-ID", view.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, graph.Legend())
}

// renderOptions reads detailed, vertical, legend and scale query parameters.
func renderOptions(r *http.Request, format string) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Formats: []string{format}}

	flags := map[string]*bool{"detailed": &opts.Detailed, "vertical": &opts.Vertical, "legend": &opts.Legend}
	for name, dst := range flags {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
		}
		*dst = b
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid scale: %q", v)
		}
		opts.Scale = f
	}
	return opts, nil
}

// statusOf maps error codes to HTTP statuses.
func statusOf(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	msg := apperrors.UserMessage(err)
	if status >= http.StatusInternalServerError && code == apperrors.ErrCodeInternal {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      string(code),
		Message:   msg,
		Field:     apperrors.FieldOf(err),
		RequestID: middleware.GetReqID(r.Context()),
	}})
}
