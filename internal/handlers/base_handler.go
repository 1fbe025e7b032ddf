package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

// ===== RESPONSE ENVELOPES =====

type ErrorResponse struct {
	Error     string      `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func newErrorResponse(code, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// BaseHandler carries the shared plumbing every handler embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, newErrorResponse("bad_request", "Invalid "+param, nil))
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError maps the service error classification onto HTTP status
// codes. Internal errors are logged but never echoed to the client.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		utils.LoggerFromContext(c, h.logger).Error("unclassified error", "error", err)
		c.JSON(http.StatusInternalServerError, newErrorResponse("internal_error", "Internal server error", nil))
		return
	}

	switch se.Kind {
	case services.KindValidation:
		details := se.Details
		if details == nil && se.Field != "" {
			details = gin.H{"field": se.Field}
		}
		c.JSON(http.StatusBadRequest, newErrorResponse("validation_error", se.Message, details))
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, newErrorResponse("not_found", se.Message, nil))
	case services.KindConflict:
		c.JSON(http.StatusConflict, newErrorResponse("conflict", se.Message, se.Details))
	case services.KindAccessDenied:
		c.JSON(http.StatusForbidden, newErrorResponse("access_denied", se.Message, nil))
	default:
		utils.LoggerFromContext(c, h.logger).Error("service error", "error", err)
		c.JSON(http.StatusInternalServerError, newErrorResponse("internal_error", "Internal server error", nil))
	}
}
