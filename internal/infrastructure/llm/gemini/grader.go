package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/mockmate/interview-engine/internal/core/domain"
	"github.com/mockmate/interview-engine/internal/infrastructure/llm/grading"
	"github.com/mockmate/interview-engine/internal/infrastructure/resilience"
)

const defaultModel = "gemini-2.0-flash"

type Config struct {
	APIKey             string
	Model              string
	ResilienceExecutor *resilience.Executor
}

// Grader scores interview answers with the Gemini API.
type Grader struct {
	client   *genai.Client
	model    string
	executor *resilience.Executor
}

func NewGrader(ctx context.Context, cfg Config) (*Grader, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	return &Grader{client: client, model: model, executor: cfg.ResilienceExecutor}, nil
}

func (g *Grader) Grade(ctx context.Context, question, answer string) (domain.Grade, error) {
	text, err := g.generateJSON(ctx, grading.BuildPrompt(question, answer))
	if err != nil {
		return domain.Grade{}, wrapGeminiError("gemini grade", err)
	}
	return grading.ParseReply(text)
}

// Summarize writes a short narrative of a finished interview.
func (g *Grader) Summarize(ctx context.Context, answers []domain.ScoredAnswer) (string, error) {
	text, err := g.generateJSON(ctx, grading.BuildSummaryPrompt(answers))
	if err != nil {
		return "", wrapGeminiError("gemini summarize", err)
	}
	return grading.ParseSummary(text)
}

func (g *Grader) generateJSON(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}
	return resilience.Call(ctx, g.executor, "gemini.generate", func(ctx context.Context) (string, error) {
		result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			return "", err
		}
		return result.Text(), nil
	}, classifyGeminiError)
}

func wrapGeminiError(operation string, err error) error {
	if classifyGeminiError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func classifyGeminiError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// genai returns APIError by value.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code)
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func classifyStatus(code int) resilience.ErrorClassification {
	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
}
