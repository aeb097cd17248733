package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrSessionNotFound      = errors.New("session not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrModelUnavailable     = errors.New("model unavailable")
	ErrInvalidAnswerPayload = errors.New("invalid answer payload")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInterviewComplete    = errors.New("interview already complete")
	ErrArtifactNotFound     = errors.New("artifact not found")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
