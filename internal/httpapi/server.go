package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"IncomeLens/internal/filter"
	"IncomeLens/internal/presenter"
	"IncomeLens/internal/session"
	"IncomeLens/internal/sorting"
)

// Session is the part of *session.Session the adapter drives.
type Session interface {
	Dispatch(ctx context.Context, ev session.Event) error
	Snapshot() presenter.Snapshot
}

// Server exposes the session view and its input events over HTTP.
type Server struct {
	sess   Session
	logger *zap.Logger
}

func New(sess Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sess: sess, logger: logger}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/view", s.view)
	r.Put("/filters/{field}", s.setFilter)
	r.Delete("/filters", s.clearFilters)
	r.Post("/sort/{key}", s.toggleSort)
	r.Post("/panels/{panel}", s.togglePanel)
	r.Post("/retry", s.retry)
	return r
}

type filterBody struct {
	Value string `json:"value"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) view(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) setFilter(w http.ResponseWriter, r *http.Request) {
	field, err := filter.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	var body filterBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, errors.New("body must be {\"value\": \"...\"}"))
		return
	}
	s.dispatch(w, r, session.SetFilter{Field: field, Value: body.Value})
}

func (s *Server) clearFilters(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.ClearFilters{})
}

func (s *Server) toggleSort(w http.ResponseWriter, r *http.Request) {
	key, err := sorting.ParseKey(chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	s.dispatch(w, r, session.ToggleSort{Key: key})
}

func (s *Server) togglePanel(w http.ResponseWriter, r *http.Request) {
	p, err := presenter.ParsePanel(chi.URLParam(r, "panel"))
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err)
		return
	}
	s.dispatch(w, r, session.TogglePanel{Panel: p})
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.Retry{})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev session.Event) {
	err := s.sess.Dispatch(r.Context(), ev)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.sess.Snapshot())
	case errors.Is(err, session.ErrNotApplicable):
		s.fail(w, r, http.StatusConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.fail(w, r, http.StatusServiceUnavailable, err)
	default:
		s.fail(w, r, http.StatusBadRequest, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	s.logger.Warn("request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", code),
		zap.Error(err))
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
