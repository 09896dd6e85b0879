package examflow

import (
	"context"

	"examgrader/src/core/answer"
	"examgrader/src/core/coursematerial"
	"examgrader/src/core/exam"
	"examgrader/src/core/prompts"
	"examgrader/src/log"
)

// SolveFlow answers every question of an exam and collects the replies in a
// transcript.
type SolveFlow struct {
	llm          LLMProvider
	figures      FigureProcessor
	retriever    coursematerial.Retriever
	topK         int
	stackFigures bool
	progress     Progress
}

type SolveOption func(sf *SolveFlow)

func WithFigures(p FigureProcessor) SolveOption {
	return func(sf *SolveFlow) {
		sf.figures = p
	}
}

// WithRetriever adds the k most related course material passages to each
// question.
func WithRetriever(r coursematerial.Retriever, k int) SolveOption {
	return func(sf *SolveFlow) {
		sf.retriever = r
		sf.topK = k
	}
}

func WithStackedFigures(stack bool) SolveOption {
	return func(sf *SolveFlow) {
		sf.stackFigures = stack
	}
}

func WithSolveProgress(p Progress) SolveOption {
	return func(sf *SolveFlow) {
		sf.progress = p
	}
}

func NewSolveFlow(llm LLMProvider, opts ...SolveOption) *SolveFlow {
	sf := &SolveFlow{
		llm:  llm,
		topK: coursematerial.DefaultTopK,
	}
	for _, opt := range opts {
		opt(sf)
	}
	return sf
}

// Solve asks the model each question in exam order. Any failure aborts the
// exam so that no partial transcript is written.
func (sf *SolveFlow) Solve(ctx context.Context, e *exam.Exam) (string, error) {
	prefix, err := prompts.SolvePrefix(e.Lang, sf.stackFigures, sf.retriever != nil)
	if err != nil {
		return "", err
	}

	var transcript answer.Transcript
	for _, q := range e.Questions {
		id := q.Index.String()

		var material []string
		if sf.retriever != nil {
			material, err = sf.retriever.Retrieve(ctx, q.RetrievalText(), sf.topK)
			if err != nil {
				return "", &QuestionError{QuestionID: id, Reason: "retrieve course material", Wrapped: err}
			}
		}

		body, err := q.Payload(material)
		if err != nil {
			return "", &QuestionError{QuestionID: id, Reason: "encode question", Wrapped: err}
		}

		var images [][]byte
		if sf.figures != nil {
			images, err = sf.figures.Process(e.Name, q)
			if err != nil {
				return "", &QuestionError{QuestionID: id, Reason: "process figures", Wrapped: err}
			}
		}

		log.Debug("solving question", "exam", e.Name, "question", id, "context", len(material), "figures", len(images))
		out, err := sf.llm.Reasoning(ctx, prefix+string(body), images...)
		if err != nil {
			return "", &QuestionError{QuestionID: id, Reason: "llm request", Wrapped: err}
		}

		transcript.Append(id, out)
		advance(sf.progress)
	}

	log.Info("solved exam", "exam", e.Name, "lang", e.Lang, "questions", transcript.Len())
	return transcript.String(), nil
}
