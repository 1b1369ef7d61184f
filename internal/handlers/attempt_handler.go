package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/services"
	"github.com/studytrails/trails-service/internal/utils"
	"github.com/studytrails/trails-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt starts or resumes a quiz attempt
// @Summary Start quiz attempt
// @Description Starts a new attempt on a quiz module, or resumes the active one
// @Tags attempts
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 201 {object} services.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /modules/{module_id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Starting quiz attempt", "module_id", moduleID, "student_id", userID)

	attempt, err := h.attemptService.Start(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// GetAttempt retrieves an attempt by ID
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// SubmitAnswer saves one answer within an active attempt
// @Summary Submit answer
// @Description Saves an answer for one question; resubmitting overwrites the previous answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /attempts/{id}/answers [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Submitting answer", "attempt_id", attemptID)

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.attemptService.SubmitAnswer(c.Request.Context(), attemptID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer submitted successfully"})
}

// SubmitAttempt finalizes and grades an attempt
// @Summary Submit attempt
// @Description Finalizes the attempt, grades every question and returns the result
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptResultResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID, "student_id", userID)

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleTimeout times out an attempt
// @Summary Handle attempt timeout
// @Description Marks an expired attempt as timed out and grades what was answered
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/timeout [post]
func (h *AttemptHandler) HandleTimeout(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Handling attempt timeout", "attempt_id", id)

	if err := h.attemptService.HandleTimeout(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Timeout handled successfully"})
}

// ListMyAttempts lists the current student's attempts
// @Summary List my attempts
// @Tags attempts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param status query string false "Attempt status"
// @Success 200 {object} models.PaginatedResponse[services.AttemptResponse]
// @Router /students/me/attempts [get]
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Listing student attempts", "student_id", userID)

	filters := h.parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(attempts, total, filters.Limit, filters.Offset))
}

// ListModuleAttempts lists attempts on a module (staff only)
// @Summary List module attempts
// @Tags attempts
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param status query string false "Attempt status"
// @Param student_id query string false "Filter by student"
// @Success 200 {object} models.PaginatedResponse[services.AttemptResponse]
// @Failure 403 {object} ErrorResponse
// @Router /modules/{module_id}/attempts/all [get]
func (h *AttemptHandler) ListModuleAttempts(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Listing module attempts", "module_id", moduleID)

	filters := h.parseAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByModule(c.Request.Context(), moduleID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(attempts, total, filters.Limit, filters.Offset))
}

// ===== HELPERS =====

func (h *AttemptHandler) parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.AttemptFilters{
		Limit:  limit,
		Offset: offset,
	}

	if status := c.Query("status"); status != "" {
		attemptStatus := models.AttemptStatus(status)
		filters.Status = &attemptStatus
	}
	if studentID := strings.TrimSpace(c.Query("student_id")); studentID != "" {
		filters.StudentID = &studentID
	}

	return filters
}
