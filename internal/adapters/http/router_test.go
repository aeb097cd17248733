package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/observability/metrics"
)

type interviewFake struct {
	session    *domain.Session
	next       *domain.NextQuestion
	evaluation *domain.Evaluation
	decision   domain.Decision
	err        error

	gotSessionID string
	gotQuestion  string
	gotAnswer    string
}

func (f *interviewFake) StartAssessment(_ context.Context, candidateID, jobID string) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if candidateID == "" || jobID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start assessment", errors.New("ids required"))
	}
	return f.session, nil
}

func (f *interviewFake) GetNextQuestion(_ context.Context, sessionID string) (*domain.NextQuestion, error) {
	f.gotSessionID = sessionID
	if f.err != nil {
		return nil, f.err
	}
	return f.next, nil
}

func (f *interviewFake) SubmitAnswer(_ context.Context, sessionID, questionNumber, answerText string) (*domain.Evaluation, error) {
	f.gotSessionID = sessionID
	f.gotQuestion = questionNumber
	f.gotAnswer = answerText
	if f.err != nil {
		return nil, f.err
	}
	return f.evaluation, nil
}

func (f *interviewFake) FinishInterview(_ context.Context, sessionID string) (domain.Decision, error) {
	f.gotSessionID = sessionID
	if f.err != nil {
		return domain.Decision{}, f.err
	}
	return f.decision, nil
}

func serve(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestStartAssessmentReturnsSession(t *testing.T) {
	fake := &interviewFake{session: &domain.Session{
		ID:          "a-1",
		CandidateID: "c-1",
		JobID:       "j-1",
		Phase:       domain.PhaseNoQuestionServed,
	}}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodPost, "/v1/assessments", map[string]string{
		"candidate_id": "c-1",
		"job_id":       "j-1",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["id"] != "a-1" || body["phase"] != string(domain.PhaseNoQuestionServed) {
		t.Fatalf("unexpected session payload: %v", body)
	}
}

func TestStartAssessmentRejectsMalformedJSON(t *testing.T) {
	handler := NewRouter(&interviewFake{}, Options{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/assessments", strings.NewReader("{"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestNextQuestionReturnsQuestionPayload(t *testing.T) {
	fake := &interviewFake{next: &domain.NextQuestion{Question: &domain.Question{
		Number:          "GO-1",
		Text:            "What is a goroutine?",
		CanonicalAnswer: "a lightweight thread",
		Category:        "Go",
		Difficulty:      domain.DifficultyEasy,
	}}}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodPost, "/v1/assessments/a-1/next-question", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if fake.gotSessionID != "a-1" {
		t.Fatalf("expected session id from path, got %q", fake.gotSessionID)
	}
	body := decodeBody(t, res)
	if body["type"] != "question" {
		t.Fatalf("expected question type, got %v", body["type"])
	}
	question, ok := body["question"].(map[string]any)
	if !ok {
		t.Fatalf("expected question object, got %v", body["question"])
	}
	if question["question_number"] != "GO-1" || question["category"] != "Go" {
		t.Fatalf("unexpected question payload: %v", question)
	}
	if _, leaked := question["canonical_answer"]; leaked {
		t.Fatalf("canonical answer must not be exposed")
	}
}

func TestNextQuestionReportsExhaustion(t *testing.T) {
	fake := &interviewFake{next: &domain.NextQuestion{Exhausted: true}}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodPost, "/v1/assessments/a-1/next-question", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["type"] != "error" || body["message"] != msgNoMoreQuestions {
		t.Fatalf("unexpected exhaustion payload: %v", body)
	}
}

func TestNextQuestionRejectsGet(t *testing.T) {
	fake := &interviewFake{next: &domain.NextQuestion{Exhausted: true}}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodGet, "/v1/assessments/a-1/next-question", nil)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
	if fake.gotSessionID != "" {
		t.Fatalf("GET must not reach the interview service")
	}
}

func TestNextQuestionFailureUsesFixedMessage(t *testing.T) {
	fake := &interviewFake{err: domain.WrapError(domain.ErrEmbeddingUnavailable, "score", errors.New("ollama down"))}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodPost, "/v1/assessments/a-1/next-question", nil)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["message"] != msgNextQuestionFail {
		t.Fatalf("expected fixed failure message, got %v", body["message"])
	}
}

func TestSubmitAnswerReturnsEvaluation(t *testing.T) {
	blended := 0.62
	fake := &interviewFake{evaluation: &domain.Evaluation{
		AnswerID:        7,
		QuestionNumber:  "GO-1",
		SimilarityScore: 0.4,
		BlendedScore:    &blended,
	}}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodPost, "/v1/assessments/a-1/answers", map[string]string{
		"question_number": "GO-1",
		"answer":          "lightweight thread managed by the runtime",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if fake.gotQuestion != "GO-1" || fake.gotAnswer == "" {
		t.Fatalf("answer payload not forwarded: %q %q", fake.gotQuestion, fake.gotAnswer)
	}
	body := decodeBody(t, res)
	if body["type"] != "answer_evaluation" {
		t.Fatalf("expected answer_evaluation, got %v", body["type"])
	}
	if body["blended_score"] != 0.62 || body["question_number"] != "GO-1" {
		t.Fatalf("unexpected evaluation payload: %v", body)
	}
}

func TestSubmitAnswerMapsDomainErrors(t *testing.T) {
	cases := map[error]int{
		domain.ErrInvalidAnswerPayload: http.StatusBadRequest,
		domain.ErrSessionNotFound:      http.StatusNotFound,
		domain.ErrQuestionNotFound:     http.StatusNotFound,
		domain.ErrInterviewComplete:    http.StatusConflict,
		domain.ErrTemporary:            http.StatusServiceUnavailable,
		errors.New("boom"):             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		fake := &interviewFake{err: domain.WrapError(kind, "submit answer", errors.New("cause"))}
		handler := NewRouter(fake, Options{}).Handler()

		res := serve(t, handler, http.MethodPost, "/v1/assessments/a-1/answers", map[string]string{
			"question_number": "GO-1",
			"answer":          "x",
		})
		if res.Code != want {
			t.Fatalf("%v: expected %d, got %d", kind, want, res.Code)
		}
	}
}

func TestFinishReturnsInterviewResult(t *testing.T) {
	fake := &interviewFake{decision: domain.Decision{
		AssessmentID:  "a-1",
		Label:         domain.DecisionHire,
		Probability:   [2]float64{0.2, 0.8},
		WeightedScore: 0.77,
		CVMatchScore:  0.8,
		Summary:       "Strong runtime knowledge.",
	}}
	handler := NewRouter(fake, Options{}).Handler()

	res := serve(t, handler, http.MethodPost, "/v1/assessments/a-1/finish", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	if body["type"] != "interview_result" || body["decision"] != "Hire" || body["assessment_id"] != "a-1" ||
		body["summary"] != "Strong runtime knowledge." {
		t.Fatalf("unexpected result payload: %v", body)
	}
	probability, ok := body["probability"].([]any)
	if !ok || len(probability) != 2 || probability[1] != 0.8 {
		t.Fatalf("unexpected probability: %v", body["probability"])
	}
}

func TestHealthzIncludesBreakerStates(t *testing.T) {
	handler := NewRouter(&interviewFake{}, Options{
		BreakerStates: func() map[string]string {
			return map[string]string{"ollama.embed": "open"}
		},
	}).Handler()

	res := serve(t, handler, http.MethodGet, "/healthz", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	body := decodeBody(t, res)
	breakers, ok := body["breakers"].(map[string]any)
	if !ok || breakers["ollama.embed"] != "open" {
		t.Fatalf("unexpected breakers payload: %v", body)
	}
}

func TestMetricsEndpointExposesInterviewSeries(t *testing.T) {
	fake := &interviewFake{next: &domain.NextQuestion{Exhausted: true}}
	handler := NewRouter(fake, Options{Metrics: metrics.NewHTTPServerMetrics("api")}).Handler()

	_ = serve(t, handler, http.MethodPost, "/v1/assessments/a-1/next-question", nil)
	res := serve(t, handler, http.MethodGet, "/metrics", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `outcome="exhausted"`) {
		t.Fatalf("expected exhausted selection series, got:\n%s", res.Body.String())
	}
}
