package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/services"
	"github.com/studytrails/trails-service/internal/utils"
	"github.com/studytrails/trails-service/internal/validator"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

// BaseHandler carries the logger and the shared request helpers every
// domain handler embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	logger := h.logger
	if requestID := c.GetString("request_id"); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	logger := h.logger
	if requestID := c.GetString("request_id"); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	logger.Error(msg, append(args, "error", err)...)
}

// parseIDParam parses a numeric path parameter. It writes the 400
// response itself and returns 0 so callers can bail with a bare return.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid " + param,
		})
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

// parsePagination returns (limit, offset) from ?page and ?size.
func (h *BaseHandler) parsePagination(c *gin.Context) (int, int) {
	p := models.PaginationRequest{
		Page: h.parseIntQuery(c, "page", 1),
		Size: h.parseIntQuery(c, "size", 20),
	}
	p.Normalize()
	return p.Size, p.Offset()
}

// ParseStringIDParam parses a string path parameter, writing the 400
// response when it is missing.
func ParseStringIDParam(c *gin.Context, param string) string {
	value := c.Param(param)
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: param + " is required",
		})
	}
	return value
}

func paginatedResponse[T any](items []T, total int64, limit, offset int) models.PaginatedResponse[T] {
	size := max(limit, 1)
	return models.PaginatedResponse[T]{
		Items:      items,
		Total:      total,
		Page:       (offset / size) + 1,
		Size:       size,
		TotalPages: (int(total) + size - 1) / size,
	}
}

// handleServiceError maps service errors to HTTP status codes in one
// place.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: validationError.Message,
			Details: map[string]interface{}{
				"field": validationError.Field,
				"value": validationError.Value,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrTrailNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Trail not found"})
	case errors.Is(err, services.ErrModuleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Module not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Question not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Attempt not found"})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Submission not found"})
	case errors.Is(err, services.ErrCertificateNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Certificate not found"})
	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not enrolled in this trail"})
	case errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Already enrolled in this trail"})
	case errors.Is(err, services.ErrTrailNotPublished):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Trail is not published"})
	case errors.Is(err, services.ErrModuleLocked):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Module prerequisites are not completed"})
	case errors.Is(err, services.ErrNotAQuizModule):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Module is not a quiz"})
	case errors.Is(err, services.ErrNotAProjectModule):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Module is not a project"})
	case errors.Is(err, services.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Attempt is not in progress"})
	case errors.Is(err, services.ErrAttemptTimeExpired):
		c.JSON(http.StatusGone, ErrorResponse{Error: "Attempt time has expired"})
	case errors.Is(err, services.ErrMaxAttemptsReached):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Maximum attempts reached"})
	case errors.Is(err, services.ErrSubmissionClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Submission was already reviewed"})
	case errors.Is(err, services.ErrPrerequisiteCycle):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Module prerequisites form a cycle"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
