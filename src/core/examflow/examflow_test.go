package examflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"examgrader/src/core/answer"
	"examgrader/src/core/exam"
	"examgrader/src/core/examflow"
	"examgrader/src/core/grade"
	"examgrader/src/core/prompts"
)

type fakeLLM struct {
	replies []string
	err     error
	prompts []string
	images  []int
}

func (f *fakeLLM) Reasoning(_ context.Context, prompt string, images ...[]byte) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, len(images))
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeRetriever struct {
	queries []string
	k       int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int) ([]string, error) {
	f.queries = append(f.queries, query)
	f.k = k
	return []string{"slide about heaps"}, nil
}

type fakeFigures struct{}

func (fakeFigures) Process(_ string, q exam.Question) ([][]byte, error) {
	var out [][]byte
	for range q.AllFigures() {
		out = append(out, []byte("png"))
	}
	return out, nil
}

type counter struct{ n int }

func (c *counter) Add(n int) error {
	c.n += n
	return nil
}

func sampleExam() *exam.Exam {
	return &exam.Exam{
		Name: "algo_ws2324",
		Lang: "en",
		Questions: []exam.Question{
			{Index: "1", Description: "What is a heap?", MaxScore: 2, CorrectAnswer: "A tree with the heap property."},
			{
				Index:        "2",
				Description:  "Sorting",
				Subquestions: []exam.Subquestion{{Content: "Name one.", Figures: []string{"img/sort.png"}}},
				MaxScore:     1,
			},
		},
	}
}

func TestSolve(t *testing.T) {
	llm := &fakeLLM{replies: []string{"A heap is a tree.", "Merge sort"}}
	progress := &counter{}
	sf := examflow.NewSolveFlow(llm, examflow.WithFigures(fakeFigures{}), examflow.WithSolveProgress(progress))

	transcript, err := sf.Solve(context.Background(), sampleExam())
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	want := answer.Block("1", "A heap is a tree.") + answer.Block("2", "Merge sort")
	if transcript != want {
		t.Errorf("Solve() transcript mismatch:\n%s", cmp.Diff(want, transcript))
	}
	if diff := cmp.Diff([]int{0, 1}, llm.images); diff != "" {
		t.Errorf("images per call mismatch (-want +got):\n%s", diff)
	}
	if progress.n != 2 {
		t.Errorf("progress = %d, want 2", progress.n)
	}

	prefix, _ := prompts.SolvePrefix("en", false, false)
	wantPrompt := prefix + `{"Description":"What is a heap?"}`
	if llm.prompts[0] != wantPrompt {
		t.Errorf("first prompt = %q, want %q", llm.prompts[0], wantPrompt)
	}
	if strings.Contains(llm.prompts[0], "heap property") {
		t.Errorf("reference answer leaked into the solve prompt")
	}
}

func TestSolveWithRetriever(t *testing.T) {
	llm := &fakeLLM{replies: []string{"one", "two"}}
	r := &fakeRetriever{}
	sf := examflow.NewSolveFlow(llm, examflow.WithRetriever(r, 3))

	if _, err := sf.Solve(context.Background(), sampleExam()); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if diff := cmp.Diff([]string{"What is a heap?", "Sorting\nName one."}, r.queries); diff != "" {
		t.Errorf("retrieval queries mismatch (-want +got):\n%s", diff)
	}
	if r.k != 3 {
		t.Errorf("retriever k = %d, want 3", r.k)
	}
	if !strings.Contains(llm.prompts[0], `{"Context":[{"Course_Material":"slide about heaps"}],"Description"`) {
		t.Errorf("prompt lacks leading context: %q", llm.prompts[0])
	}
	if !strings.Contains(llm.prompts[0], "course materials") {
		t.Errorf("prompt lacks course material instruction")
	}
}

func TestSolveErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := examflow.NewSolveFlow(&fakeLLM{err: boom}).Solve(context.Background(), sampleExam())

	var qe *examflow.QuestionError
	if !errors.As(err, &qe) || qe.QuestionID != "1" {
		t.Fatalf("Solve() error = %v, want QuestionError for question 1", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Solve() error does not wrap the provider error")
	}

	e := sampleExam()
	e.Lang = "fr"
	if _, err := examflow.NewSolveFlow(&fakeLLM{}).Solve(context.Background(), e); !errors.Is(err, exam.ErrUnsupportedLanguage) {
		t.Errorf("Solve() error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		withRef bool
		want    examflow.GradeResult
		inInput string
	}{
		{
			name:    "marker grade",
			reply:   "[reason] fine [/reason]\n[grade] 1,5 [/grade]",
			withRef: true,
			want:    examflow.GradeResult{QuestionID: "1", MaxScore: 2, Grade: 1.5, Found: true, Source: grade.SourceMarker},
			inInput: "[correct_answer]\nA tree.\n[/correct_answer] \n",
		},
		{
			name:  "no grade needs review",
			reply: "I cannot grade this.",
			want:  examflow.GradeResult{QuestionID: "1", MaxScore: 2, Source: grade.SourceNone, NeedsReview: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{replies: []string{tt.reply}}
			gf := examflow.NewGradeFlow(llm, examflow.WithReference(tt.withRef))

			got, err := gf.Grade(context.Background(), examflow.GradeRequest{
				QuestionID:    "1",
				Lang:          "en",
				Question:      `{"Description":"What is a heap?"}`,
				Answer:        "A tree.",
				CorrectAnswer: "A tree.",
				MaxScore:      2,
			})
			if err != nil {
				t.Fatalf("Grade() error = %v", err)
			}
			tt.want.RawOutput = tt.reply
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Grade() mismatch (-want +got):\n%s", diff)
			}
			if tt.inInput != "" && !strings.Contains(llm.prompts[0], tt.inInput) {
				t.Errorf("prompt lacks %q", tt.inInput)
			}
			if !tt.withRef && strings.Contains(llm.prompts[0], "[correct_answer]\n") {
				t.Errorf("reference answer included without WithReference")
			}
		})
	}
}

func TestGradeTranscript(t *testing.T) {
	var tr answer.Transcript
	tr.Append("1", "  A heap is a tree.  ")

	llm := &fakeLLM{replies: []string{"[grade] 2 [/grade]"}}
	progress := &counter{}
	gf := examflow.NewGradeFlow(llm, examflow.WithGradeProgress(progress))

	results, err := gf.GradeTranscript(context.Background(), sampleExam(), tr.String())
	if err != nil {
		t.Fatalf("GradeTranscript() error = %v", err)
	}

	want := []examflow.GradeResult{
		{QuestionID: "1", MaxScore: 2, Grade: 2, Found: true, Source: grade.SourceMarker, RawOutput: "[grade] 2 [/grade]"},
		{QuestionID: "2", MaxScore: 1, Source: grade.SourceNone, NeedsReview: true, Skipped: true},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("GradeTranscript() mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(llm.prompts[0], "[answer]\nA heap is a tree.\n[/answer]") {
		t.Errorf("answer not trimmed in prompt: %q", llm.prompts[0])
	}
	if progress.n != 2 {
		t.Errorf("progress = %d, want 2", progress.n)
	}

	earned, possible := examflow.Total(results)
	if earned != 2 || possible != 3 {
		t.Errorf("Total() = %v, %v; want 2, 3", earned, possible)
	}
}
