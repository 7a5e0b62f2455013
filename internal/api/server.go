// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillmatch/internal/accounts"
	"skillmatch/internal/candidate"
	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/logger"
	"skillmatch/internal/common/observability"
	"skillmatch/internal/dashboard"
	candidatesearch "skillmatch/internal/dashboard/candidate-search"
	postingsubmission "skillmatch/internal/dashboard/posting-submission"
	"skillmatch/internal/models"
)

const maxUploadBytes = 10 << 20

// Dashboard is the surface of *dashboard.Dashboard served over HTTP.
type Dashboard interface {
	View(workMode, sortBy string) (dashboard.View, error)
	Resync(ctx context.Context) error
	Submit(ctx context.Context, form postingsubmission.Form) (postingsubmission.Result, error)
	Form() postingsubmission.Form
	Search(ctx context.Context, query string) (candidatesearch.Snapshot, error)
	SearchState() candidatesearch.Snapshot
	CloseSearch()
	Notifications() []models.Notification
	Dismiss(id string) bool
	Report(operation string, err error)
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Identity, error)
	Logout(ctx context.Context) error
}

type Registrar interface {
	Register(ctx context.Context, req accounts.Request) (*accounts.Account, error)
}

type IdentityProvider interface {
	Current() (models.Identity, bool)
}

// ReadyFunc reports whether downstream dependencies are reachable.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	dash     Dashboard
	auth     Authenticator
	accounts Registrar
	identity IdentityProvider
	resumes  *candidate.Service
	ready    ReadyFunc
	obs      *observability.Observability
	logger   logger.Logger
}

type Option func(*Server)

func WithAuthenticator(a Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

func WithRegistrar(r Registrar) Option {
	return func(s *Server) { s.accounts = r }
}

func WithResumeService(r *candidate.Service) Option {
	return func(s *Server) { s.resumes = r }
}

func WithReadiness(fn ReadyFunc) Option {
	return func(s *Server) { s.ready = fn }
}

func WithObservability(o *observability.Observability) Option {
	return func(s *Server) { s.obs = o }
}

func NewServer(dash Dashboard, identity IdentityProvider, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		dash:     dash,
		identity: identity,
		logger:   log.WithFields(map[string]interface{}{"component": "http-api"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /accounts", s.instrument("register", s.handleRegister))
	mux.HandleFunc("POST /session", s.instrument("login", s.handleLogin))
	mux.HandleFunc("DELETE /session", s.instrument("logout", s.handleLogout))

	mux.HandleFunc("GET /dashboard", s.instrument("view", s.handleView))
	mux.HandleFunc("POST /resync", s.instrument("resync", s.handleResync))
	mux.HandleFunc("GET /postings/form", s.instrument("form", s.handleForm))
	mux.HandleFunc("POST /postings", s.instrument("submit", s.handleSubmit))

	mux.HandleFunc("GET /search", s.instrument("search", s.handleSearch))
	mux.HandleFunc("DELETE /search", s.instrument("search_close", s.handleCloseSearch))

	mux.HandleFunc("GET /notifications", s.instrument("notifications", s.handleNotifications))
	mux.HandleFunc("DELETE /notifications/{id}", s.instrument("dismiss", s.handleDismiss))

	mux.HandleFunc("POST /resume", s.instrument("upload", s.handleUpload))

	return mux
}

func (s *Server) instrument(operation string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		status := "ok"
		if rec.status >= 400 {
			status = "error"
		}
		s.obs.RecordOperation(r.Context(), operation, status, time.Since(start))
		s.logger.Debug("request served", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}

// ==========================
// Handlers
// ==========================

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Code: "NOT_CONFIGURED", Message: "Registration is not configured"})
		return
	}
	var req accounts.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationError("body", "Request body must be JSON"))
		return
	}
	account, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Code: "NOT_CONFIGURED", Message: "Sign-in is not configured"})
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationError("body", "Request body must be JSON"))
		return
	}
	identity, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Code: "NOT_CONFIGURED", Message: "Sign-in is not configured"})
		return
	}
	if err := s.auth.Logout(r.Context()); err != nil {
		s.logger.Warn("logout incomplete", map[string]interface{}{"error": err})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := s.dash.View(q.Get("workMode"), q.Get("sortBy"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Resync(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.dash.View("", "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Form())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var form postingsubmission.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeError(w, errors.NewValidationError("body", "Request body must be JSON"))
		return
	}
	result, err := s.dash.Submit(r.Context(), form)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, present := r.URL.Query()["q"]
	if !present {
		writeJSON(w, http.StatusOK, s.dash.SearchState())
		return
	}
	snap, err := s.dash.Search(r.Context(), query[0])
	switch {
	case stderrors.Is(err, candidatesearch.ErrSuperseded):
		writeJSON(w, http.StatusConflict, snap)
	case err != nil && errors.CodeOf(err) == errors.ErrCodeValidation:
		s.writeError(w, err)
	default:
		// Failed searches are reported through the snapshot state.
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleCloseSearch(w http.ResponseWriter, r *http.Request) {
	s.dash.CloseSearch()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dash.Notifications())
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.dash.Dismiss(r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "Notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.resumes == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Code: "NOT_CONFIGURED", Message: "Résumé upload is not configured"})
		return
	}
	identity, _ := s.identity.Current()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, errors.NewValidationError("file", "Attach a PDF in the file field"))
		return
	}
	defer file.Close()

	result, err := s.resumes.Upload(r.Context(), identity, header.Filename, file)
	if err != nil {
		s.dash.Report(dashboard.OpUpload, err)
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ==========================
// Responses
// ==========================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	writeJSON(w, statusFor(code), errorBody{Code: string(code), Message: errors.UserMessage(err)})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeAuthNotReady:
		return http.StatusUnauthorized
	case errors.ErrCodeProfileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetworkFailure, errors.ErrCodeServerError, errors.ErrCodeMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
