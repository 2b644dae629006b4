package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/coach"
	"github.com/spigell/interview-coach/internal/interview"
)

const requestTimeout = 5 * time.Minute

// StatsSource reports live sessions by status. The SQLite store implements it.
type StatsSource interface {
	CountByStatus(ctx context.Context) (map[interview.Status]int, error)
}

// Server exposes the interview coach as a JSON API.
type Server struct {
	coach   *coach.Coach
	logger  *zap.Logger
	bank    []interview.Question
	stats   StatsSource
	router  chi.Router
	newID   func() string
	timeout time.Duration
}

type Option func(*Server)

// WithQuestionBank makes session creation fall back to questions when a
// request carries neither questions nor a job description.
func WithQuestionBank(questions []interview.Question) Option {
	return func(s *Server) { s.bank = questions }
}

func WithStats(stats StatsSource) Option {
	return func(s *Server) { s.stats = stats }
}

func New(c *coach.Coach, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		coach:   c,
		logger:  log,
		newID:   uuid.NewString,
		timeout: requestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http api listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleStatus)
		r.Delete("/sessions/{id}", s.handleDelete)
		r.Get("/sessions/{id}/next", s.handleNext)
		r.Post("/sessions/{id}/answers", s.handleAnswer)
		r.Post("/sessions/{id}/pause", s.handlePause)
		r.Post("/sessions/{id}/resume", s.handleResume)
		r.Post("/sessions/{id}/feedback", s.handleFeedback)
		r.Post("/vacancies/analyze", s.handleAnalyze)
		r.Get("/stats", s.handleStats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// --- Request/Response types ---

type createSessionRequest struct {
	SessionID      string           `json:"session_id"`
	CandidateName  string           `json:"candidate_name"`
	Position       string           `json:"position"`
	Questions      []map[string]any `json:"questions,omitempty"`
	JobDescription string           `json:"job_description,omitempty"`
}

type createSessionResponse struct {
	Session interview.StatusView `json:"session"`
	Next    interview.Next       `json:"next"`
	Plan    *coach.Plan          `json:"plan,omitempty"`
}

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Notes      string `json:"notes,omitempty"`
}

type analyzeRequest struct {
	JobDescription string `json:"job_description"`
}

type feedbackResponse struct {
	Report *ai.FeedbackReport `json:"report"`
	Text   string             `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// --- Handlers ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}

	plan, err := s.planFor(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = s.newID()
	}

	session, err := s.coach.Begin(r.Context(), id, req.CandidateName, req.Position, plan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := createSessionResponse{
		Session: session.StatusAt(session.StartedAt),
		Next:    session.NextQuestion(),
	}
	if req.JobDescription != "" {
		resp.Plan = plan
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) planFor(ctx context.Context, req createSessionRequest) (*coach.Plan, error) {
	switch {
	case strings.TrimSpace(req.JobDescription) != "":
		return s.coach.Prepare(ctx, req.JobDescription)
	case len(req.Questions) > 0:
		raw, err := interview.DecodeRaw(req.Questions)
		if err != nil {
			return nil, &requestError{err: err}
		}
		questions, err := interview.LoadQuestions(raw)
		if err != nil {
			return nil, err
		}
		return &coach.Plan{Questions: questions}, nil
	case len(s.bank) > 0:
		questions, err := s.coach.Select(ctx, s.bank)
		if err != nil {
			return nil, err
		}
		return &coach.Plan{Questions: questions}, nil
	default:
		return nil, &requestError{err: errors.New("questions or job_description is required")}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.coach.Directory().Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.coach.Directory().Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	next, err := s.coach.Directory().NextQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.QuestionID) == "" {
		s.writeError(w, r, &requestError{err: errors.New("question_id is required")})
		return
	}

	outcome, err := s.coach.Directory().RecordAnswer(r.Context(), chi.URLParam(r, "id"), req.QuestionID, req.Answer, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.coach.Directory().Pause(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.coach.Directory().Status(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	next, err := s.coach.Directory().Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	report, err := s.coach.Feedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Report: report, Text: ai.FormatFeedback(report)})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decode(w, r, &req) {
		return
	}
	analysis, err := s.coach.Analyze(r.Context(), req.JobDescription)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "statistics are not available for this store", Kind: "unsupported"})
		return
	}
	counts, err := s.stats.CountByStatus(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// --- Helpers ---

// requestError marks malformed input that never reached the core.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// statusFor maps an error to its HTTP status and kind label.
func statusFor(err error) (int, string) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, "bad_request"
	}
	if errors.Is(err, coach.ErrNotConfigured) {
		return http.StatusServiceUnavailable, "not_configured"
	}

	kind := interview.KindOf(err)
	switch kind {
	case interview.KindNotFound:
		return http.StatusNotFound, kind.String()
	case interview.KindInvalidState, interview.KindOrderingViolation:
		return http.StatusConflict, kind.String()
	case interview.KindValidation:
		return http.StatusUnprocessableEntity, kind.String()
	case interview.KindUpstreamAdapter:
		return http.StatusBadGateway, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
