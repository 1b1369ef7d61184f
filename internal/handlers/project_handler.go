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

type ProjectHandler struct {
	BaseHandler
	projectService services.ProjectService
	validator      *validator.Validator
}

func NewProjectHandler(
	projectService services.ProjectService,
	validator *validator.Validator,
	logger utils.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    NewBaseHandler(logger),
		projectService: projectService,
		validator:      validator,
	}
}

// SubmitProject submits a repository for review
// @Summary Submit project
// @Description Submits a repository URL for a project module; resubmission opens a new revision
// @Tags projects
// @Accept json
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param submission body services.SubmitProjectRequest true "Submission data"
// @Success 201 {object} services.SubmissionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /modules/{module_id}/submissions [post]
func (h *ProjectHandler) SubmitProject(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Submitting project", "module_id", moduleID)

	var req services.SubmitProjectRequest
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

	submission, err := h.projectService.Submit(c.Request.Context(), moduleID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// ReviewSubmission reviews a pending submission
// @Summary Review submission
// @Description Approves or requests changes on a pending submission
// @Tags projects
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param review body services.ReviewProjectRequest true "Review data"
// @Success 200 {object} services.SubmissionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/review [post]
func (h *ProjectHandler) ReviewSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Reviewing submission", "submission_id", id)

	var req services.ReviewProjectRequest
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

	submission, err := h.projectService.Review(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetSubmission retrieves a submission by ID
// @Summary Get submission
// @Tags projects
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.SubmissionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *ProjectHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	submission, err := h.projectService.GetSubmission(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListModuleSubmissions lists submissions on a module (staff only)
// @Summary List module submissions
// @Tags projects
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param status query string false "Submission status"
// @Success 200 {object} models.PaginatedResponse[services.SubmissionResponse]
// @Failure 403 {object} ErrorResponse
// @Router /modules/{module_id}/submissions/all [get]
func (h *ProjectHandler) ListModuleSubmissions(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Listing module submissions", "module_id", moduleID)

	filters := h.parseSubmissionFilters(c)
	submissions, total, err := h.projectService.ListByModule(c.Request.Context(), moduleID, filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(submissions, total, filters.Limit, filters.Offset))
}

// ListMySubmissions lists the current student's submissions
// @Summary List my submissions
// @Tags projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param status query string false "Submission status"
// @Success 200 {object} models.PaginatedResponse[services.SubmissionResponse]
// @Router /students/me/submissions [get]
func (h *ProjectHandler) ListMySubmissions(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Listing student submissions", "student_id", userID)

	filters := h.parseSubmissionFilters(c)
	submissions, total, err := h.projectService.ListByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(submissions, total, filters.Limit, filters.Offset))
}

// ===== HELPERS =====

func (h *ProjectHandler) parseSubmissionFilters(c *gin.Context) repositories.SubmissionFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.SubmissionFilters{
		Limit:  limit,
		Offset: offset,
	}

	if status := c.Query("status"); status != "" {
		submissionStatus := models.SubmissionStatus(status)
		filters.Status = &submissionStatus
	}
	if studentID := strings.TrimSpace(c.Query("student_id")); studentID != "" {
		filters.StudentID = &studentID
	}

	return filters
}
