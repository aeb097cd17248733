package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/core/ports"
)

// InterviewUseCase drives one adaptive interview: question selection,
// answer scoring and the final hire decision.
type InterviewUseCase struct {
	catalog   ports.QuestionCatalog
	profiles  ports.ProfileRepository
	sessions  ports.SessionRepository
	answers   ports.AnswerRepository
	scorer    *SkillScorer
	selector  *QuestionSelector
	evaluator *AnswerEvaluator
	decisions *HireDecisionEngine
	summaries *ResultSummarizer
	now       func() time.Time
}

func NewInterviewUseCase(
	catalog ports.QuestionCatalog,
	profiles ports.ProfileRepository,
	sessions ports.SessionRepository,
	answers ports.AnswerRepository,
	scorer *SkillScorer,
	selector *QuestionSelector,
	evaluator *AnswerEvaluator,
	decisions *HireDecisionEngine,
	summaries *ResultSummarizer,
) *InterviewUseCase {
	return &InterviewUseCase{
		catalog:   catalog,
		profiles:  profiles,
		sessions:  sessions,
		answers:   answers,
		scorer:    scorer,
		selector:  selector,
		evaluator: evaluator,
		decisions: decisions,
		summaries: summaries,
		now:       time.Now,
	}
}

// StartAssessment returns the open assessment for the (candidate, job) pair,
// creating it when none exists.
func (uc *InterviewUseCase) StartAssessment(ctx context.Context, candidateID, jobID string) (*domain.Session, error) {
	candidateID = strings.TrimSpace(candidateID)
	jobID = strings.TrimSpace(jobID)
	if candidateID == "" || jobID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start assessment", errors.New("candidate_id and job_id are required"))
	}

	exists, err := uc.profiles.JobExists(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("check job: %w", err)
	}
	if !exists {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start assessment", fmt.Errorf("unknown job %q", jobID))
	}

	cv, err := uc.profiles.CandidateCVMatchScore(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load cv match score: %w", err)
	}

	session, err := uc.sessions.GetOrCreate(ctx, &domain.Session{
		ID:             uuid.NewString(),
		CandidateID:    candidateID,
		JobID:          jobID,
		Phase:          domain.PhaseNoQuestionServed,
		AskedQuestions: []string{},
		CVMatchScore:   cv,
		StartedAt:      uc.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("get or create assessment: %w", err)
	}

	slog.Info("assessment_started",
		"assessment_id", session.ID,
		"candidate_id", candidateID,
		"job_id", jobID,
	)
	return session, nil
}

// GetNextQuestion rescores every unasked question and serves the selector's
// pick. An exhausted catalog is reported through NextQuestion.Exhausted.
func (uc *InterviewUseCase) GetNextQuestion(ctx context.Context, sessionID string) (*domain.NextQuestion, error) {
	session, err := uc.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	questions, err := uc.catalog.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	profile, err := uc.profile(ctx, session)
	if err != nil {
		return nil, err
	}

	asked := session.AskedSet()
	rows, err := uc.scorer.Score(ctx, questions, profile.JobSkills, profile.CandidateSkills, asked)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		slog.Info("questions_exhausted", "assessment_id", session.ID, "asked", len(asked))
		return &domain.NextQuestion{Exhausted: true}, nil
	}

	graph := buildQuestionGraph(rows)
	selection, ok := uc.selector.SelectNext(rows, graph, asked)
	if !ok {
		return &domain.NextQuestion{Exhausted: true}, nil
	}

	question := findQuestion(questions, selection.QuestionNumber)
	if question == nil {
		return nil, domain.WrapError(domain.ErrQuestionNotFound, "select question",
			fmt.Errorf("selected %s is not in the catalog", selection.QuestionNumber))
	}

	session.MarkServed(question.Number)
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	slog.Info("question_selected",
		"assessment_id", session.ID,
		"question_number", question.Number,
		"category", selection.Category,
		"start", selection.Start,
		"path_len", len(selection.Path),
		"best_score", selection.BestScore,
		"fallback", selection.Fallback,
	)
	return &domain.NextQuestion{Question: question, Fallback: selection.Fallback}, nil
}

// SubmitAnswer evaluates and stores an answer. Resubmitting for the same
// question overwrites the earlier record.
func (uc *InterviewUseCase) SubmitAnswer(ctx context.Context, sessionID, questionNumber, answerText string) (*domain.Evaluation, error) {
	questionNumber = strings.TrimSpace(questionNumber)
	if questionNumber == "" {
		return nil, domain.WrapError(domain.ErrInvalidAnswerPayload, "submit answer", errors.New("question_number is required"))
	}

	session, err := uc.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	question, err := uc.catalog.GetQuestion(ctx, questionNumber)
	if err != nil {
		return nil, err
	}
	profile, err := uc.profile(ctx, session)
	if err != nil {
		return nil, err
	}

	evaluation, err := uc.evaluator.Evaluate(ctx, *question, answerText, session, profile)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	slog.Info("answer_evaluated",
		"assessment_id", session.ID,
		"question_number", questionNumber,
		"similarity_score", evaluation.SimilarityScore,
		"scored", evaluation.BlendedScore != nil,
	)
	return evaluation, nil
}

// FinishInterview aggregates stored answers into a hire decision. A session
// that is already complete returns its recorded outcome.
func (uc *InterviewUseCase) FinishInterview(ctx context.Context, sessionID string) (domain.Decision, error) {
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Decision{}, err
	}
	if session.IsComplete {
		return recordedDecision(session), nil
	}

	answers, err := uc.answers.ListByAssessment(ctx, session.ID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("list answers: %w", err)
	}

	decision := uc.decisions.Decide(ctx, session, answers)
	if uc.summaries != nil {
		decision.Summary = uc.summaries.Summarize(ctx, decision, answers)
	}
	if session.IsComplete {
		session.Summary = decision.Summary
		if err := uc.sessions.Save(ctx, session); err != nil {
			return domain.Decision{}, fmt.Errorf("save assessment: %w", err)
		}
	}

	slog.Info("interview_finished",
		"assessment_id", session.ID,
		"decision", string(decision.Label),
		"p_hire", decision.Probability[1],
		"weighted_score", decision.WeightedScore,
		"answers", len(answers),
	)
	return decision, nil
}

func (uc *InterviewUseCase) openSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load assessment", errors.New("assessment id is required"))
	}
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsComplete {
		return nil, domain.WrapError(domain.ErrInterviewComplete, "load assessment", fmt.Errorf("assessment %s", session.ID))
	}
	return session, nil
}

func (uc *InterviewUseCase) profile(ctx context.Context, session *domain.Session) (domain.Profile, error) {
	jobSkills, err := uc.profiles.JobSkills(ctx, session.JobID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load job skills: %w", err)
	}
	candidateSkills, err := uc.profiles.CandidateSkills(ctx, session.CandidateID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load candidate skills: %w", err)
	}
	return domain.Profile{
		JobSkills:       jobSkills,
		CandidateSkills: candidateSkills,
		CVMatchScore:    session.CVMatchScore,
	}, nil
}

func findQuestion(questions []domain.Question, number string) *domain.Question {
	for i := range questions {
		if questions[i].Number == number {
			q := questions[i]
			return &q
		}
	}
	return nil
}

func recordedDecision(session *domain.Session) domain.Decision {
	decision := domain.Decision{
		AssessmentID:  session.ID,
		Label:         domain.DecisionNotHire,
		Probability:   [2]float64{0.5, 0.5},
		WeightedScore: session.WeightedScore,
		Summary:       session.Summary,
	}
	if session.CVMatchScore != nil {
		decision.CVMatchScore = *session.CVMatchScore
	}
	if session.HireDecision != nil && *session.HireDecision {
		decision.Label = domain.DecisionHire
	}
	if session.HireProbability != nil {
		p := *session.HireProbability
		decision.Probability = [2]float64{1 - p, p}
	}
	return decision
}
