// Package examflow answers exams with an LLM and grades the answers.
package examflow

import (
	"context"
	"fmt"

	"examgrader/src/core/exam"
)

type LLMProvider interface {
	// Reasoning sends one prompt, optionally with PNG images, and returns the
	// model's reply.
	Reasoning(ctx context.Context, prompt string, images ...[]byte) (string, error)
}

type FigureProcessor interface {
	Process(examName string, q exam.Question) ([][]byte, error)
}

// Progress is advanced once per processed question.
type Progress interface {
	Add(n int) error
}

// QuestionError is returned when the model call for a question fails.
type QuestionError struct {
	QuestionID string
	Reason     string
	Wrapped    error
}

func (e *QuestionError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("question %s: %s: %v", e.QuestionID, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("question %s: %s", e.QuestionID, e.Reason)
}

func (e *QuestionError) Unwrap() error {
	return e.Wrapped
}

func advance(p Progress) {
	if p != nil {
		_ = p.Add(1)
	}
}
