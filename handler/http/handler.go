package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"examgrader/src/core/answer"
	"examgrader/src/core/exam"
	"examgrader/src/core/examflow"
	"examgrader/src/infrastructure/job"
)

// Grader grades a single answer.
type Grader interface {
	Grade(ctx context.Context, req examflow.GradeRequest) (examflow.GradeResult, error)
}

// JobQueue enqueues and looks up background grading jobs.
type JobQueue interface {
	EnqueueJob(ctx context.Context, taskType string, payload json.RawMessage) (*job.Job, error)
	Get(ctx context.Context, id int) (*job.Job, error)
}

var (
	errJobNotFound     = errors.New("job not found")
	errNoJobQueue      = errors.New("job queue is not configured")
	errInvalidArgument = errors.New("invalid argument")
)

type Handler struct {
	grader     Grader
	jobs       JobQueue
	localRoots []string
}

type HandlerOption func(h *Handler)

// WithJobQueue enables the job endpoints.
func WithJobQueue(q JobQueue) HandlerOption {
	return func(h *Handler) {
		h.jobs = q
	}
}

// WithLocalRoots sets the directories that transcript jobs may read exams and
// transcripts from. Without roots only minio:// transcripts are accepted and
// every local exam path is rejected.
func WithLocalRoots(roots ...string) HandlerOption {
	return func(h *Handler) {
		h.localRoots = roots
	}
}

func NewHandler(grader Grader, opts ...HandlerOption) *Handler {
	h := &Handler{grader: grader}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	v1.POST("/answers/extract", h.ExtractAnswer)

	v1.POST("/grades/parse", h.ParseGrade)
	v1.POST("/grades", h.Grade)
	v1.POST("/grades/jobs", h.EnqueueGradeJob)
	v1.GET("/grades/jobs/:id", h.GetGradeJob)

	v1.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendError(c *gin.Context, err error) {
	var (
		code   string
		status int
	)
	switch {
	case errors.Is(err, answer.ErrNotFound), errors.Is(err, errJobNotFound):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case errors.Is(err, exam.ErrUnsupportedLanguage), errors.Is(err, errInvalidArgument):
		code = "INVALID_ARGUMENT"
		status = http.StatusBadRequest
	case errors.Is(err, errNoJobQueue):
		code = "UNAVAILABLE"
		status = http.StatusServiceUnavailable
	default:
		code = "INTERNAL_ERROR"
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
