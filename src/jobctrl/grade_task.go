package jobctrl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"examgrader/src/core/exam"
	"examgrader/src/core/examflow"
	"examgrader/src/fsutil"
	"examgrader/src/infrastructure/job"
	"examgrader/src/storage/minioctrl"
	"examgrader/src/storage/postgres/gradectrl"
)

const (
	TaskTypeGradeAnswer     = "grade_answer"
	TaskTypeGradeTranscript = "grade_transcript"
)

type GradeAnswerPayload struct {
	QuestionID    string  `json:"question_id"`
	Lang          string  `json:"lang"`
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	CorrectAnswer string  `json:"correct_answer,omitempty"`
	MaxScore      float64 `json:"max_score"`
}

type GradeTranscriptPayload struct {
	ExamPath      string `json:"exam_path"`
	TranscriptURL string `json:"transcript_url"`
	LLMName       string `json:"llm_name"`
}

type GradeTranscriptResult struct {
	RunID       string                 `json:"run_id,omitempty"`
	Earned      float64                `json:"earned"`
	Possible    float64                `json:"possible"`
	NeedsReview int                    `json:"needs_review"`
	Results     []examflow.GradeResult `json:"results"`
}

// Recorder persists the results of a grading run.
type Recorder interface {
	CreateRun(ctx context.Context, info gradectrl.RunInfo, results []examflow.GradeResult) (string, []gradectrl.GradeRecord, error)
}

// ObjectGetter reads objects from the report store.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}

type GradeTask struct {
	flow     *examflow.GradeFlow
	fs       fsutil.FileStore
	objects  ObjectGetter
	recorder Recorder
}

// NewGradeTask creates the grading task handlers. objects and recorder may be
// nil; transcripts are then read from disk only and results are not stored.
func NewGradeTask(flow *examflow.GradeFlow, fs fsutil.FileStore, objects ObjectGetter, recorder Recorder) *GradeTask {
	return &GradeTask{
		flow:     flow,
		fs:       fs,
		objects:  objects,
		recorder: recorder,
	}
}

func (task *GradeTask) Register(svc *job.JobService) {
	svc.Register(TaskTypeGradeAnswer, task.HandleGradeAnswer)
	svc.Register(TaskTypeGradeTranscript, task.HandleGradeTranscript)
}

func (task *GradeTask) HandleGradeAnswer(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p GradeAnswerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grade payload: %w", err)
	}

	result, err := task.flow.Grade(ctx, examflow.GradeRequest{
		QuestionID:    p.QuestionID,
		Lang:          p.Lang,
		Question:      p.Question,
		Answer:        p.Answer,
		CorrectAnswer: p.CorrectAnswer,
		MaxScore:      p.MaxScore,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

func (task *GradeTask) HandleGradeTranscript(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var p GradeTranscriptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grade transcript payload: %w", err)
	}

	e, err := exam.Load(task.fs, p.ExamPath)
	if err != nil {
		return nil, err
	}
	transcript, err := ReadTranscript(ctx, task.fs, task.objects, p.TranscriptURL)
	if err != nil {
		return nil, err
	}

	results, err := task.flow.GradeTranscript(ctx, e, string(transcript))
	if err != nil {
		return nil, err
	}

	out := Summarize(results)
	if task.recorder != nil {
		runID, _, err := task.recorder.CreateRun(ctx, gradectrl.RunInfo{Exam: e.Name, Lang: e.Lang, LLMName: p.LLMName}, results)
		if err != nil {
			return nil, err
		}
		out.RunID = runID
	}
	return json.Marshal(out)
}

func Summarize(results []examflow.GradeResult) GradeTranscriptResult {
	out := GradeTranscriptResult{Results: results}
	out.Earned, out.Possible = examflow.Total(results)
	for _, r := range results {
		if r.NeedsReview {
			out.NeedsReview++
		}
	}
	return out
}

// ReadTranscript loads a transcript from a minio:// URL or a local path.
func ReadTranscript(ctx context.Context, fs fsutil.FileStore, objects ObjectGetter, location string) ([]byte, error) {
	if !strings.HasPrefix(location, minioctrl.URLScheme) {
		data, err := fs.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript %s: %w", location, err)
		}
		return data, nil
	}

	if objects == nil {
		return nil, fmt.Errorf("no object store configured for %s", location)
	}
	bucket, object := minioctrl.GetBucketAndObjectFromURL(location)
	if bucket == "" {
		return nil, fmt.Errorf("invalid object url %q", location)
	}
	return objects.GetObject(ctx, bucket, object)
}
