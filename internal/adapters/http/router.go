package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
	"github.com/mockmate/interview-engine/internal/observability/metrics"
	"golang.org/x/time/rate"
)

const (
	serviceName = "api"

	maxBodyBytes = 1 << 20

	msgNoMoreQuestions  = "No more questions available"
	msgNextQuestionFail = "could not get next question"
)

type Options struct {
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	// BreakerStates is reported on /healthz when set.
	BreakerStates func() map[string]string
}

type Router struct {
	interview ports.InterviewService
	metrics   *metrics.HTTPServerMetrics
	limiter   *rate.Limiter
	breakers  func() map[string]string
}

func NewRouter(interview ports.InterviewService, opts Options) *Router {
	rt := &Router{
		interview: interview,
		metrics:   opts.Metrics,
		breakers:  opts.BreakerStates,
	}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		rt.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("POST /v1/assessments", rt.startAssessment)
	mux.HandleFunc("POST /v1/assessments/{id}/next-question", rt.nextQuestion)
	mux.HandleFunc("POST /v1/assessments/{id}/answers", rt.submitAnswer)
	mux.HandleFunc("POST /v1/assessments/{id}/finish", rt.finishInterview)

	var handler http.Handler = mux
	if rt.limiter != nil {
		handler = rateLimitMiddleware(handler, rt.limiter, rt.onRateLimited)
	}
	handler = accessLogMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if rt.breakers != nil {
		payload["breakers"] = rt.breakers()
	}
	writeJSON(w, http.StatusOK, payload)
}

type startAssessmentRequest struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
}

func (rt *Router) startAssessment(w http.ResponseWriter, r *http.Request) {
	var req startAssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "decode request", err), "")
		return
	}

	session, err := rt.interview.StartAssessment(r.Context(), req.CandidateID, req.JobID)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type questionResponse struct {
	Type     string           `json:"type"`
	Question *domain.Question `json:"question"`
	Fallback bool             `json:"fallback"`
}

func (rt *Router) nextQuestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	next, err := rt.interview.GetNextQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.recordSelection("error", start)
		writeError(w, r, err, msgNextQuestionFail)
		return
	}
	if next.Exhausted || next.Question == nil {
		rt.recordSelection("exhausted", start)
		writeJSON(w, http.StatusOK, errorResponse{Type: "error", Message: msgNoMoreQuestions})
		return
	}

	outcome := "served"
	if next.Fallback {
		outcome = "fallback"
	}
	rt.recordSelection(outcome, start)
	writeJSON(w, http.StatusOK, questionResponse{
		Type:     "question",
		Question: next.Question,
		Fallback: next.Fallback,
	})
}

type submitAnswerRequest struct {
	QuestionNumber string `json:"question_number"`
	Answer         string `json:"answer"`
}

type answerEvaluationResponse struct {
	Type string `json:"type"`
	*domain.Evaluation
}

func (rt *Router) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidAnswerPayload, "decode answer", err), "")
		return
	}

	evaluation, err := rt.interview.SubmitAnswer(r.Context(), r.PathValue("id"), req.QuestionNumber, req.Answer)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, evaluation.SimilarityScore, evaluation.BlendedScore != nil)
	}
	writeJSON(w, http.StatusOK, answerEvaluationResponse{Type: "answer_evaluation", Evaluation: evaluation})
}

type interviewResultResponse struct {
	Type string `json:"type"`
	domain.Decision
}

func (rt *Router) finishInterview(w http.ResponseWriter, r *http.Request) {
	decision, err := rt.interview.FinishInterview(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordDecision(serviceName, string(decision.Label), decision.Probability[1])
	}
	writeJSON(w, http.StatusOK, interviewResultResponse{Type: "interview_result", Decision: decision})
}

func (rt *Router) recordSelection(outcome string, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordSelection(serviceName, outcome, time.Since(start))
	}
}

func (rt *Router) onRateLimited() {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(serviceName)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// writeError maps err to a status. message replaces the client-facing text
// when set; the cause is always included.
func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := mapErrorToHTTPStatus(err)
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	logAttrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		slog.Error("http_request_failed", logAttrs...)
	} else {
		slog.Warn("http_request_rejected", logAttrs...)
	}
	writeJSON(w, status, errorResponse{Type: "error", Message: message, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
