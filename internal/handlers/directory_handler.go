package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

// DirectoryHandler exposes organization, teacher and student account routes.
type DirectoryHandler struct {
	BaseHandler
	directoryService services.DirectoryService
}

func NewDirectoryHandler(directoryService services.DirectoryService, logger utils.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		BaseHandler:      NewBaseHandler(logger),
		directoryService: directoryService,
	}
}

// ===== ORGANIZATIONS =====

func (h *DirectoryHandler) RegisterOrganization(c *gin.Context) {
	var req services.RegisterOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	h.LogRequest(c, "registering organization", "org_code", req.OrgCode)

	org, err := h.directoryService.RegisterOrganization(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (h *DirectoryHandler) GetOrganization(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	org, err := h.directoryService.GetOrganization(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// GetOrganizationByCode looks an organization up by its join code, used by
// the registration flow before an account exists.
func (h *DirectoryHandler) GetOrganizationByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid code", nil))
		return
	}

	org, err := h.directoryService.GetOrganizationByCode(c.Request.Context(), code)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

func (h *DirectoryHandler) UpdateOrganization(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	actor, _ := currentActor(c)
	org, err := h.directoryService.UpdateOrganization(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// ===== ACCOUNTS =====

func (h *DirectoryHandler) RegisterTeacher(c *gin.Context) {
	var req services.RegisterTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	teacher, err := h.directoryService.RegisterTeacher(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, teacher)
}

func (h *DirectoryHandler) RegisterStudent(c *gin.Context) {
	var req services.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	student, err := h.directoryService.RegisterStudent(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *DirectoryHandler) GetTeacher(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	teacher, err := h.directoryService.GetTeacher(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, teacher)
}

func (h *DirectoryHandler) GetStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	student, err := h.directoryService.GetStudent(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// ListTeachers returns the teachers in the caller's organization.
func (h *DirectoryHandler) ListTeachers(c *gin.Context) {
	actor, _ := currentActor(c)

	teachers, err := h.directoryService.ListTeachers(c.Request.Context(), actor.OrgID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teachers": teachers})
}

// ListStudents returns the students in the caller's organization.
func (h *DirectoryHandler) ListStudents(c *gin.Context) {
	actor, _ := currentActor(c)

	students, err := h.directoryService.ListStudents(c.Request.Context(), actor.OrgID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// ===== REGISTRATION INVITES =====

// InviteStudents invites a batch of email addresses to register. Each address
// is reported individually, so one bad address never sinks the batch.
func (h *DirectoryHandler) InviteStudents(c *gin.Context) {
	var req services.InviteStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	actor, _ := currentActor(c)
	h.LogRequest(c, "inviting students", "teacher_id", actor.UserID, "count", len(req.Emails))

	results, err := h.directoryService.InviteStudents(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListStudentInvites returns the caller's registration invites with a
// registered flag per address.
func (h *DirectoryHandler) ListStudentInvites(c *gin.Context) {
	actor, _ := currentActor(c)

	invites, err := h.directoryService.ListStudentInvites(c.Request.Context(), actor.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}
