package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

// SubmissionHandler exposes test submission routes.
type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// SubmitTest scores and stores the caller's answers. A student gets exactly
// one submission per test; a repeat returns 409.
func (h *SubmissionHandler) SubmitTest(c *gin.Context) {
	var req services.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	actor, _ := currentActor(c)
	h.LogRequest(c, "submitting test", "student_id", actor.UserID, "test_id", req.TestID)

	submission, err := h.submissionService.SubmitTest(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

// GetSubmission returns a scored submission with per-question detail. Students
// see their own; teachers see submissions against their tests.
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, _ := currentActor(c)
	submission, err := h.submissionService.GetSubmission(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}
