package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

// vectorEmbedder returns fixed vectors for known text and a hash-derived
// vector otherwise.
type vectorEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
	texts   []string
}

func (e *vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.texts = append(e.texts, texts...)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vectorFor(text)
	}
	return out, nil
}

func (e *vectorEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *vectorEmbedder) vectorFor(text string) []float32 {
	if v, ok := e.vectors[text]; ok {
		return v
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum%97) + 1, float32(sum%89) + 1, float32(sum%83) + 1}
}

type catalogFake struct {
	mu        sync.Mutex
	questions []domain.Question
	listErr   error
	saveErr   error
	saved     map[string][]float32
}

func (c *catalogFake) ListQuestions(context.Context) ([]domain.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]domain.Question, len(c.questions))
	copy(out, c.questions)
	return out, nil
}

func (c *catalogFake) GetQuestion(_ context.Context, number string) (*domain.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.questions {
		if q.Number == number {
			copyQ := q
			return &copyQ, nil
		}
	}
	return nil, domain.WrapError(domain.ErrQuestionNotFound, "get question", fmt.Errorf("question %s", number))
}

func (c *catalogFake) SaveEmbedding(_ context.Context, number string, embedding []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	if c.saved == nil {
		c.saved = make(map[string][]float32)
	}
	c.saved[number] = embedding
	for i := range c.questions {
		if c.questions[i].Number == number {
			c.questions[i].Embedding = embedding
		}
	}
	return nil
}

func (c *catalogFake) UpsertQuestions(_ context.Context, questions []domain.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions = append(c.questions, questions...)
	return nil
}

type profileFake struct {
	jobSkills       map[string][]string
	candidateSkills map[string][]string
	cvScores        map[string]float64
}

func (p *profileFake) JobSkills(_ context.Context, jobID string) ([]string, error) {
	return p.jobSkills[jobID], nil
}

func (p *profileFake) CandidateSkills(_ context.Context, candidateID string) ([]string, error) {
	return p.candidateSkills[candidateID], nil
}

func (p *profileFake) CandidateCVMatchScore(_ context.Context, candidateID string) (*float64, error) {
	v, ok := p.cvScores[candidateID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (p *profileFake) JobExists(_ context.Context, jobID string) (bool, error) {
	_, ok := p.jobSkills[jobID]
	return ok, nil
}

func (p *profileFake) UpsertJob(context.Context, domain.Job) error { return nil }

func (p *profileFake) UpsertCandidate(context.Context, domain.Candidate) error { return nil }

type sessionFake struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saves    int
	saveErr  error
}

func newSessionFake() *sessionFake {
	return &sessionFake{sessions: make(map[string]domain.Session)}
}

func (s *sessionFake) GetOrCreate(_ context.Context, session *domain.Session) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.CandidateID == session.CandidateID && existing.JobID == session.JobID && !existing.IsComplete {
			copySession := existing
			return &copySession, nil
		}
	}
	s.sessions[session.ID] = *session
	copySession := *session
	return &copySession, nil
}

func (s *sessionFake) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get assessment", fmt.Errorf("assessment %s", id))
	}
	session.AskedQuestions = append([]string(nil), session.AskedQuestions...)
	return &session, nil
}

func (s *sessionFake) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	stored := *session
	stored.AskedQuestions = append([]string(nil), session.AskedQuestions...)
	s.sessions[session.ID] = stored
	return nil
}

type answerKey struct {
	assessmentID   string
	questionNumber string
}

type answerFake struct {
	mu      sync.Mutex
	nextID  int64
	records map[answerKey]domain.AnswerRecord
	err     error
}

func newAnswerFake() *answerFake {
	return &answerFake{records: make(map[answerKey]domain.AnswerRecord)}
}

func (a *answerFake) Upsert(_ context.Context, record *domain.AnswerRecord) (*domain.AnswerRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	key := answerKey{record.AssessmentID, record.QuestionNumber}
	stored := *record
	if existing, ok := a.records[key]; ok {
		stored.ID = existing.ID
	} else {
		a.nextID++
		stored.ID = a.nextID
	}
	a.records[key] = stored
	return &stored, nil
}

func (a *answerFake) ListByAssessment(_ context.Context, assessmentID string) ([]domain.AnswerRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AnswerRecord, 0)
	for key, record := range a.records {
		if key.assessmentID == assessmentID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type artifactFake struct {
	mu       sync.Mutex
	data     map[string][]byte
	loadErr  error
	storeErr error
	stores   int
}

func (a *artifactFake) Load(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	data, ok := a.data[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrArtifactNotFound, "load artifact", errors.New(key))
	}
	return data, nil
}

func (a *artifactFake) Store(_ context.Context, key string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.storeErr != nil {
		return a.storeErr
	}
	if a.data == nil {
		a.data = make(map[string][]byte)
	}
	a.data[key] = data
	a.stores++
	return nil
}

// thresholdClassifier hires when weighted >= cut.
type thresholdClassifier struct {
	cut float64
}

func (c thresholdClassifier) Predict(features []float64) int {
	if features[1] >= c.cut {
		return 1
	}
	return 0
}

func (c thresholdClassifier) PredictProba(features []float64) [2]float64 {
	if c.Predict(features) == 1 {
		return [2]float64{0.2, 0.8}
	}
	return [2]float64{0.8, 0.2}
}

type trainerFake struct {
	mu        sync.Mutex
	trains    int
	decodes   int
	trainErr  error
	decodeErr error
}

func (t *trainerFake) Train(context.Context) (ports.HireClassifier, []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trains++
	if t.trainErr != nil {
		return nil, nil, t.trainErr
	}
	return thresholdClassifier{cut: 0.7}, []byte("cut=0.7"), nil
}

func (t *trainerFake) Decode([]byte) (ports.HireClassifier, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.decodes++
	if t.decodeErr != nil {
		return nil, t.decodeErr
	}
	return thresholdClassifier{cut: 0.7}, nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (q *queueFake) PublishQuestionEmbedding(_ context.Context, questionNumber string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, questionNumber)
	return nil
}

func (q *queueFake) SubscribeQuestionEmbedding(context.Context, func(context.Context, string) error) error {
	return nil
}

type graderFake struct {
	grade domain.Grade
	err   error
}

func (g graderFake) Grade(context.Context, string, string) (domain.Grade, error) {
	return g.grade, g.err
}
