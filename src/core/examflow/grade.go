package examflow

import (
	"context"
	"errors"
	"strings"

	"examgrader/src/core/answer"
	"examgrader/src/core/exam"
	"examgrader/src/core/grade"
	"examgrader/src/core/prompts"
	"examgrader/src/log"
)

type GradeRequest struct {
	QuestionID    string
	Lang          string
	Question      string
	Answer        string
	CorrectAnswer string
	MaxScore      float64
	Images        [][]byte
}

// GradeResult is the outcome for one question. NeedsReview is set when no
// grade could be read from the model output or the answer was missing.
type GradeResult struct {
	QuestionID  string       `json:"question_id"`
	MaxScore    float64      `json:"max_score"`
	Grade       float64      `json:"grade"`
	Found       bool         `json:"found"`
	Source      grade.Source `json:"source"`
	NeedsReview bool         `json:"needs_review"`
	Skipped     bool         `json:"skipped,omitempty"`
	RawOutput   string       `json:"raw_output,omitempty"`
}

type GradeFlow struct {
	llm          LLMProvider
	figures      FigureProcessor
	shots        []prompts.Shot
	withRef      bool
	stackFigures bool
	progress     Progress
}

type GradeOption func(gf *GradeFlow)

func WithShots(shots []prompts.Shot) GradeOption {
	return func(gf *GradeFlow) {
		gf.shots = shots
	}
}

// WithReference includes the reference answer when a question has one.
func WithReference(withRef bool) GradeOption {
	return func(gf *GradeFlow) {
		gf.withRef = withRef
	}
}

func WithGradeFigures(p FigureProcessor, stack bool) GradeOption {
	return func(gf *GradeFlow) {
		gf.figures = p
		gf.stackFigures = stack
	}
}

func WithGradeProgress(p Progress) GradeOption {
	return func(gf *GradeFlow) {
		gf.progress = p
	}
}

func NewGradeFlow(llm LLMProvider, opts ...GradeOption) *GradeFlow {
	gf := &GradeFlow{llm: llm}
	for _, opt := range opts {
		opt(gf)
	}
	return gf
}

// Grade prompts the model with one answer and parses its grade. A reply
// without a usable grade is not an error.
func (gf *GradeFlow) Grade(ctx context.Context, req GradeRequest) (GradeResult, error) {
	withRef := gf.withRef && req.CorrectAnswer != ""
	prefix, err := prompts.GradingPrefix(req.Lang, gf.shots, withRef, gf.stackFigures)
	if err != nil {
		return GradeResult{}, err
	}
	input, err := prompts.RenderGradingInput(prompts.GradingInput{
		Question:      req.Question,
		Answer:        req.Answer,
		CorrectAnswer: req.CorrectAnswer,
		MaxScore:      req.MaxScore,
		WithRef:       withRef,
	})
	if err != nil {
		return GradeResult{}, err
	}

	out, err := gf.llm.Reasoning(ctx, prefix+input, req.Images...)
	if err != nil {
		return GradeResult{}, &QuestionError{QuestionID: req.QuestionID, Reason: "llm request", Wrapped: err}
	}

	parsed := grade.Parse(out, req.MaxScore)
	result := GradeResult{
		QuestionID:  req.QuestionID,
		MaxScore:    req.MaxScore,
		Grade:       parsed.Value,
		Found:       parsed.Found,
		Source:      parsed.Source,
		NeedsReview: !parsed.Found,
		RawOutput:   out,
	}
	if result.NeedsReview {
		log.Info("no grade found, needs manual review", "question", req.QuestionID, "max_score", req.MaxScore)
	}
	return result, nil
}

// GradeTranscript grades every question of e whose answer is in transcript.
// Questions without an answer block are reported as skipped.
func (gf *GradeFlow) GradeTranscript(ctx context.Context, e *exam.Exam, transcript string) ([]GradeResult, error) {
	results := make([]GradeResult, 0, len(e.Questions))
	for _, q := range e.Questions {
		id := q.Index.String()

		raw, err := answer.ExtractAnswer(id, transcript)
		if errors.Is(err, answer.ErrNotFound) {
			log.Error(err, "skipping question", "exam", e.Name)
			results = append(results, GradeResult{QuestionID: id, MaxScore: q.MaxScore, Source: grade.SourceNone, NeedsReview: true, Skipped: true})
			advance(gf.progress)
			continue
		}

		question, err := q.Payload(nil)
		if err != nil {
			return nil, &QuestionError{QuestionID: id, Reason: "encode question", Wrapped: err}
		}

		var images [][]byte
		if gf.figures != nil {
			images, err = gf.figures.Process(e.Name, q)
			if err != nil {
				return nil, &QuestionError{QuestionID: id, Reason: "process figures", Wrapped: err}
			}
		}

		result, err := gf.Grade(ctx, GradeRequest{
			QuestionID:    id,
			Lang:          e.Lang,
			Question:      string(question),
			Answer:        strings.TrimSpace(raw),
			CorrectAnswer: q.CorrectAnswer,
			MaxScore:      q.MaxScore,
			Images:        images,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
		advance(gf.progress)
	}
	return results, nil
}

// Total sums the found grades and the maximum scores of all results.
func Total(results []GradeResult) (earned, possible float64) {
	for _, r := range results {
		possible += r.MaxScore
		if r.Found {
			earned += r.Grade
		}
	}
	return earned, possible
}
