package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"examgrader/src/core/answer"
)

type extractRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Transcript string `json:"transcript" binding:"required"`
	Trim       bool   `json:"trim"`
}

type extractResponse struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// ExtractAnswer godoc
// @Summary Extract the answer block of one question from a transcript
// @Tags answers
// @Accept json
// @Produce json
// @Param body body extractRequest true "Transcript and question id"
// @Success 200 {object} extractResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /answers/extract [post]
func (h *Handler) ExtractAnswer(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendBadRequest(c, err)
		return
	}

	text, err := answer.ExtractAnswer(req.QuestionID, req.Transcript)
	if err != nil {
		sendError(c, err)
		return
	}
	if req.Trim {
		text = strings.TrimSpace(text)
	}

	sendJSON(c, http.StatusOK, extractResponse{QuestionID: req.QuestionID, Answer: text})
}
