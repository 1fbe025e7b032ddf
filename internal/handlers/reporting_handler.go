package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

// ReportingHandler exposes attendance, ranking and analytics routes.
type ReportingHandler struct {
	BaseHandler
	reportingService services.ReportingService
}

func NewReportingHandler(reportingService services.ReportingService, logger utils.Logger) *ReportingHandler {
	return &ReportingHandler{
		BaseHandler:      NewBaseHandler(logger),
		reportingService: reportingService,
	}
}

// Attendance lists invited students for a test and whether each submitted.
func (h *ReportingHandler) Attendance(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	actor, _ := currentActor(c)
	entries, err := h.reportingService.Attendance(c.Request.Context(), actor.UserID, testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": entries})
}

// Rankings lists submissions for a test ordered by score, ties broken by
// earlier submission.
func (h *ReportingHandler) Rankings(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	actor, _ := currentActor(c)
	entries, err := h.reportingService.Rankings(c.Request.Context(), actor.UserID, testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": entries})
}

// ExportRankings streams the ranking sheet as an xlsx download.
func (h *ReportingHandler) ExportRankings(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	actor, _ := currentActor(c)
	h.LogRequest(c, "exporting rankings", "teacher_id", actor.UserID, "test_id", testID)

	data, filename, err := h.reportingService.ExportRankings(c.Request.Context(), actor.UserID, testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// TeacherOverview aggregates per-test averages for the calling teacher.
func (h *ReportingHandler) TeacherOverview(c *gin.Context) {
	actor, _ := currentActor(c)

	overview, err := h.reportingService.TeacherOverview(c.Request.Context(), actor.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// CompletedTests lists the calling student's scored submissions.
func (h *ReportingHandler) CompletedTests(c *gin.Context) {
	actor, _ := currentActor(c)

	entries, err := h.reportingService.CompletedTests(c.Request.Context(), actor.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": entries})
}
