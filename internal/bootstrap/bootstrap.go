package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mockmate/interview-engine/internal/config"
	"github.com/mockmate/interview-engine/internal/core/ports"
	"github.com/mockmate/interview-engine/internal/core/usecase"
	"github.com/mockmate/interview-engine/internal/infrastructure/catalog/yamlbank"
	"github.com/mockmate/interview-engine/internal/infrastructure/llm/gemini"
	"github.com/mockmate/interview-engine/internal/infrastructure/llm/ollama"
	"github.com/mockmate/interview-engine/internal/infrastructure/ml/decisiontree"
	"github.com/mockmate/interview-engine/internal/infrastructure/queue/nats"
	"github.com/mockmate/interview-engine/internal/infrastructure/repository/postgres"
	"github.com/mockmate/interview-engine/internal/infrastructure/resilience"
	"github.com/mockmate/interview-engine/internal/infrastructure/storage/localfs"
)

// Operations guarded by circuit breakers, reported on /healthz.
var breakerOperations = []string{"ollama.embed", "ollama.generate", "gemini.generate", "nats.publish"}

type Options struct {
	// OnBreakerStateChange observes breaker transitions of every executor.
	OnBreakerStateChange func(operation, from, to string)
}

type App struct {
	Config config.Config

	Queue     ports.EmbeddingQueue
	Catalog   ports.QuestionCatalog
	Profiles  ports.ProfileRepository
	Interview *usecase.InterviewUseCase
	Warmup    *usecase.EmbeddingWarmupUseCase

	executors []*resilience.Executor
	closeFn   func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	questions := postgres.NewQuestionRepository(db)
	profiles := postgres.NewProfileRepository(db)
	assessments := postgres.NewAssessmentRepository(db)
	answers := postgres.NewAnswerRepository(db)

	artifacts, err := localfs.New(cfg.ArtifactPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init artifact storage: %w", err)
	}

	modelConfig := resilience.DefaultConfig()
	modelConfig.RetryMaxAttempts = cfg.EmbedRetryMaxAttempts
	modelConfig.BreakerEnabled = cfg.EmbedBreakerEnabled
	modelConfig.OnStateChange = opts.OnBreakerStateChange
	modelExecutor := resilience.NewExecutor(modelConfig)

	queueConfig := resilience.DefaultConfig()
	queueConfig.OnStateChange = opts.OnBreakerStateChange
	queueExecutor := resilience.NewExecutor(queueConfig)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSEmbedSubject, nats.Options{
		ResilienceExecutor: queueExecutor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: modelExecutor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)

	grader, err := newGrader(ctx, cfg, ollamaClient, modelExecutor)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}

	scorer := usecase.NewSkillScorer(embedder, questions)
	selector := usecase.NewQuestionSelector(usecase.SelectorOptions{
		TopCategories: cfg.SelectionTopK,
		StartPolicy:   usecase.ParseStartPolicy(cfg.SelectionStart),
	})
	evaluator := usecase.NewAnswerEvaluator(embedder, scorer, answers, grader)
	models := usecase.NewHireModelProvider(artifacts, decisiontree.NewHireTrainer(), cfg.HireModelKey)
	decisions := usecase.NewHireDecisionEngine(models, cfg.DefaultCVMatch)
	summarizer, _ := grader.(ports.InterviewSummarizer)
	summaries := usecase.NewResultSummarizer(questions, summarizer)

	interview := usecase.NewInterviewUseCase(questions, profiles, assessments, answers, scorer, selector, evaluator, decisions, summaries)
	warmup := usecase.NewEmbeddingWarmupUseCase(questions, embedder, queue)

	return &App{
		Config:    cfg,
		Queue:     queue,
		Catalog:   questions,
		Profiles:  profiles,
		Interview: interview,
		Warmup:    warmup,

		executors: []*resilience.Executor{modelExecutor, queueExecutor},
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// newGrader returns nil when answer grading is disabled.
func newGrader(ctx context.Context, cfg config.Config, client *ollama.Client, executor *resilience.Executor) (ports.AnswerGrader, error) {
	switch cfg.GraderProvider {
	case "", "none":
		return nil, nil
	case "ollama":
		return ollama.NewGrader(client), nil
	case "gemini":
		grader, err := gemini.NewGrader(ctx, gemini.Config{
			APIKey:             cfg.GeminiAPIKey,
			Model:              cfg.GeminiModel,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini grader: %w", err)
		}
		return grader, nil
	default:
		return nil, fmt.Errorf("unknown grader provider %q", cfg.GraderProvider)
	}
}

// Seed upserts the configured question bank, then queues embedding warm-up
// for questions without a cached vector.
func (a *App) Seed(ctx context.Context) error {
	bank, err := yamlbank.Load(a.Config.QuestionBankPath)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	if err := yamlbank.Seed(ctx, bank, a.Catalog, a.Profiles); err != nil {
		return fmt.Errorf("seed question bank: %w", err)
	}
	slog.Info("question_bank_seeded",
		"questions", len(bank.Questions),
		"jobs", len(bank.Jobs),
		"candidates", len(bank.Candidates),
	)

	queued, err := a.Warmup.EnqueueMissing(ctx)
	if err != nil {
		slog.Warn("embedding_warmup_enqueue_failed", "error", err)
		return nil
	}
	slog.Info("embedding_warmup_enqueued", "questions", queued)
	return nil
}

// BreakerStates reports the most severe state per guarded operation.
func (a *App) BreakerStates() map[string]string {
	states := make(map[string]string, len(breakerOperations))
	for _, op := range breakerOperations {
		state := "closed"
		for _, executor := range a.executors {
			if s := executor.State(op); s != "closed" {
				state = s
			}
		}
		states[op] = state
	}
	return states
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
