package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

const defaultCVMatchScore = 0.7

// HireModelProvider loads the hire classifier once per process. When no
// artifact exists a fresh model is trained and persisted.
type HireModelProvider struct {
	store   ports.ArtifactStore
	trainer ports.HireModelTrainer
	key     string

	mu    sync.Mutex
	model ports.HireClassifier
}

func NewHireModelProvider(store ports.ArtifactStore, trainer ports.HireModelTrainer, key string) *HireModelProvider {
	return &HireModelProvider{store: store, trainer: trainer, key: key}
}

// Model returns the cached classifier. Failed loads are not cached.
func (p *HireModelProvider) Model(ctx context.Context) (ports.HireClassifier, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model, nil
	}

	data, err := p.store.Load(ctx, p.key)
	switch {
	case err == nil:
		model, decodeErr := p.trainer.Decode(data)
		if decodeErr != nil {
			return nil, domain.WrapError(domain.ErrModelUnavailable, "decode hire model", decodeErr)
		}
		p.model = model
		slog.Info("hire_model_loaded", "key", p.key)
		return model, nil
	case !domain.IsKind(err, domain.ErrArtifactNotFound):
		return nil, domain.WrapError(domain.ErrModelUnavailable, "load hire model", err)
	}

	model, data, err := p.trainer.Train(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "train hire model", err)
	}
	if err := p.store.Store(ctx, p.key, data); err != nil {
		slog.Warn("hire_model_store_failed", "key", p.key, "error", err)
	}
	p.model = model
	slog.Info("hire_model_trained", "key", p.key, "bytes", len(data))
	return model, nil
}

// HireDecisionEngine turns a finished session into a hire recommendation.
type HireDecisionEngine struct {
	models    *HireModelProvider
	defaultCV float64
	now       func() time.Time
}

func NewHireDecisionEngine(models *HireModelProvider, defaultCV float64) *HireDecisionEngine {
	if defaultCV <= 0 {
		defaultCV = defaultCVMatchScore
	}
	return &HireDecisionEngine{models: models, defaultCV: defaultCV, now: time.Now}
}

// Decide never fails: model problems degrade to a neutral 0.5/0.5 result and
// leave the session open. On success the session is marked complete.
func (e *HireDecisionEngine) Decide(ctx context.Context, session *domain.Session, answers []domain.AnswerRecord) domain.Decision {
	if len(answers) == 0 {
		return domain.NeutralDecision(session.ID, domain.DecisionInsufficientData)
	}

	weighted := meanQuestionScore(answers)
	cv := e.defaultCV
	if session.CVMatchScore != nil {
		cv = *session.CVMatchScore
	}

	model, err := e.models.Model(ctx)
	if err != nil {
		slog.Error("hire_decision_model_unavailable",
			"assessment_id", session.ID,
			"error", err,
		)
		decision := domain.NeutralDecision(session.ID, domain.DecisionNoModel)
		decision.WeightedScore = weighted
		decision.CVMatchScore = cv
		return decision
	}

	decision, err := predictHire(model, session.ID, cv, weighted)
	if err != nil {
		slog.Error("hire_decision_predict_failed",
			"assessment_id", session.ID,
			"error", err,
		)
		decision = domain.NeutralDecision(session.ID, domain.DecisionError)
		decision.WeightedScore = weighted
		decision.CVMatchScore = cv
		return decision
	}

	hired := decision.Label == domain.DecisionHire
	probability := decision.Probability[1]
	ended := e.now().UTC()
	session.WeightedScore = weighted
	session.HireDecision = &hired
	session.HireProbability = &probability
	session.IsComplete = true
	session.EndedAt = &ended
	session.Phase = domain.PhaseInterviewComplete

	return decision
}

func predictHire(model ports.HireClassifier, assessmentID string, cv, weighted float64) (decision domain.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hire model panicked: %v", r)
		}
	}()

	features := []float64{cv, weighted}
	label := domain.DecisionNotHire
	if model.Predict(features) == 1 {
		label = domain.DecisionHire
	}
	return domain.Decision{
		AssessmentID:  assessmentID,
		Label:         label,
		Probability:   model.PredictProba(features),
		WeightedScore: weighted,
		CVMatchScore:  cv,
	}, nil
}

// meanQuestionScore averages the blended scores that were computed; answers
// stored without one do not count.
func meanQuestionScore(answers []domain.AnswerRecord) float64 {
	var sum float64
	var n int
	for _, a := range answers {
		if a.QuestionScore == nil {
			continue
		}
		sum += *a.QuestionScore
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
