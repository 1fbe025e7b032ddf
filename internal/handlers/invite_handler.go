package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

// InviteHandler exposes the time-boxed test invite routes.
type InviteHandler struct {
	BaseHandler
	inviteService services.InviteService
}

func NewInviteHandler(inviteService services.InviteService, logger utils.Logger) *InviteHandler {
	return &InviteHandler{
		BaseHandler:   NewBaseHandler(logger),
		inviteService: inviteService,
	}
}

// IssueInvites creates one invite per student email. The batch is atomic: any
// duplicate rejects the whole request and the response names the collisions.
func (h *InviteHandler) IssueInvites(c *gin.Context) {
	var req services.IssueInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid request payload", err.Error()))
		return
	}

	actor, _ := currentActor(c)
	h.LogRequest(c, "issuing invites", "teacher_id", actor.UserID, "count", len(req.StudentEmails))

	resp, err := h.inviteService.IssueInvites(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMyInvites returns the caller's invites with expiry and activity flags.
// ?added=true narrows to acknowledged invites, ?added=false to pending ones.
func (h *InviteHandler) ListMyInvites(c *gin.Context) {
	actor, _ := currentActor(c)

	var added *bool
	if raw := c.Query("added"); raw != "" {
		value := raw == "true"
		added = &value
	}

	invites, err := h.inviteService.ListForStudent(c.Request.Context(), actor.Email, added)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (h *InviteHandler) GetInvite(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, _ := currentActor(c)
	invite, err := h.inviteService.GetInvite(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invite)
}

// MarkAdded acknowledges that the student has pulled the invite into their
// test list.
func (h *InviteHandler) MarkAdded(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actor, _ := currentActor(c)
	if err := h.inviteService.MarkAdded(c.Request.Context(), id, actor.Email); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Invite acknowledged"})
}
