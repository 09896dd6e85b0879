package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"examgrader/src/core/examflow"
	"examgrader/src/core/grade"
	"examgrader/src/fsutil"
	"examgrader/src/jobctrl"
	"examgrader/src/storage/minioctrl"
)

type parseRequest struct {
	Output   string   `json:"output"`
	MaxScore *float64 `json:"max_score" binding:"required,gte=0"`
}

type parseResponse struct {
	Grade       float64      `json:"grade"`
	Found       bool         `json:"found"`
	Source      grade.Source `json:"source"`
	NeedsReview bool         `json:"needs_review"`
}

type gradeRequest struct {
	QuestionID    string   `json:"question_id" binding:"required"`
	Lang          string   `json:"lang" binding:"required"`
	Question      string   `json:"question" binding:"required"`
	Answer        string   `json:"answer"`
	CorrectAnswer string   `json:"correct_answer"`
	MaxScore      *float64 `json:"max_score" binding:"required,gte=0"`
}

type jobRequest struct {
	TaskType string          `json:"task_type" binding:"required,oneof=grade_answer grade_transcript"`
	Payload  json.RawMessage `json:"payload" binding:"required"`
}

// ParseGrade godoc
// @Summary Parse a grade out of grading output
// @Tags grades
// @Accept json
// @Produce json
// @Param body body parseRequest true "Grading output and max score"
// @Success 200 {object} parseResponse
// @Failure 400 {object} ErrorResponse
// @Router /grades/parse [post]
func (h *Handler) ParseGrade(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendBadRequest(c, err)
		return
	}

	r := grade.Parse(req.Output, *req.MaxScore)
	sendJSON(c, http.StatusOK, parseResponse{
		Grade:       r.Value,
		Found:       r.Found,
		Source:      r.Source,
		NeedsReview: !r.Found,
	})
}

// Grade godoc
// @Summary Grade one answer with the configured model
// @Tags grades
// @Accept json
// @Produce json
// @Param body body gradeRequest true "Question, answer and rubric"
// @Success 200 {object} examflow.GradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /grades [post]
func (h *Handler) Grade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendBadRequest(c, err)
		return
	}

	result, err := h.grader.Grade(c.Request.Context(), examflow.GradeRequest{
		QuestionID:    req.QuestionID,
		Lang:          req.Lang,
		Question:      req.Question,
		Answer:        req.Answer,
		CorrectAnswer: req.CorrectAnswer,
		MaxScore:      *req.MaxScore,
	})
	if err != nil {
		sendError(c, err)
		return
	}
	sendJSON(c, http.StatusOK, result)
}

// EnqueueGradeJob godoc
// @Summary Enqueue a background grading job
// @Tags grades
// @Accept json
// @Produce json
// @Param body body jobRequest true "Task type and payload"
// @Success 202 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /grades/jobs [post]
func (h *Handler) EnqueueGradeJob(c *gin.Context) {
	if h.jobs == nil {
		sendError(c, errNoJobQueue)
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendBadRequest(c, err)
		return
	}
	if err := h.validatePayload(req.TaskType, req.Payload); err != nil {
		sendError(c, err)
		return
	}

	j, err := h.jobs.EnqueueJob(c.Request.Context(), req.TaskType, req.Payload)
	if err != nil {
		sendError(c, err)
		return
	}

	sendJSON(c, http.StatusAccepted, gin.H{
		"jobId":  strconv.Itoa(j.ID),
		"status": string(j.Status),
	})
}

// GetGradeJob godoc
// @Summary Get a grading job with its result
// @Tags grades
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} job.Job
// @Failure 404 {object} ErrorResponse
// @Router /grades/jobs/{id} [get]
func (h *Handler) GetGradeJob(c *gin.Context) {
	if h.jobs == nil {
		sendError(c, errNoJobQueue)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		sendError(c, fmt.Errorf("%w: job id %q", errInvalidArgument, c.Param("id")))
		return
	}

	j, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		sendError(c, err)
		return
	}
	if j == nil {
		sendError(c, fmt.Errorf("%w: %d", errJobNotFound, id))
		return
	}
	sendJSON(c, http.StatusOK, j)
}

// validatePayload rejects incomplete payloads and local paths outside the
// configured roots. Transcripts stored in MinIO are always accepted.
func (h *Handler) validatePayload(taskType string, payload json.RawMessage) error {
	switch taskType {
	case jobctrl.TaskTypeGradeAnswer:
		var p jobctrl.GradeAnswerPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errInvalidArgument, err)
		}
		if p.QuestionID == "" || p.Lang == "" {
			return fmt.Errorf("%w: question_id and lang are required", errInvalidArgument)
		}
		if p.MaxScore < 0 {
			return fmt.Errorf("%w: max_score must not be negative", errInvalidArgument)
		}
	case jobctrl.TaskTypeGradeTranscript:
		var p jobctrl.GradeTranscriptPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errInvalidArgument, err)
		}
		if p.ExamPath == "" || p.TranscriptURL == "" {
			return fmt.Errorf("%w: exam_path and transcript_url are required", errInvalidArgument)
		}
		if !fsutil.IsWithin(p.ExamPath, h.localRoots...) {
			return fmt.Errorf("%w: exam_path %q is outside the served directories", errInvalidArgument, p.ExamPath)
		}
		if !strings.HasPrefix(p.TranscriptURL, minioctrl.URLScheme) && !fsutil.IsWithin(p.TranscriptURL, h.localRoots...) {
			return fmt.Errorf("%w: transcript_url %q is outside the served directories", errInvalidArgument, p.TranscriptURL)
		}
	}
	return nil
}
