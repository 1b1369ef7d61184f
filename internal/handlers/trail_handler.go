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

type TrailHandler struct {
	BaseHandler
	trailService services.TrailService
	validator    *validator.Validator
}

func NewTrailHandler(trailService services.TrailService, validator *validator.Validator, logger utils.Logger) *TrailHandler {
	return &TrailHandler{
		BaseHandler:  NewBaseHandler(logger),
		trailService: trailService,
		validator:    validator,
	}
}

// CreateTrail creates a new trail
// @Summary Create trail
// @Description Creates a new learning trail in draft status
// @Tags trails
// @Accept json
// @Produce json
// @Param trail body services.CreateTrailRequest true "Trail data"
// @Success 201 {object} services.TrailResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /trails [post]
func (h *TrailHandler) CreateTrail(c *gin.Context) {
	h.LogRequest(c, "Creating trail")

	var req services.CreateTrailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	trail, err := h.trailService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trail)
}

// GetTrail retrieves a trail by ID
// @Summary Get trail
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} services.TrailResponse
// @Failure 404 {object} ErrorResponse
// @Router /trails/{id} [get]
func (h *TrailHandler) GetTrail(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	trail, err := h.trailService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trail)
}

// UpdateTrail updates trail metadata
// @Summary Update trail
// @Tags trails
// @Accept json
// @Produce json
// @Param id path uint true "Trail ID"
// @Param trail body services.UpdateTrailRequest true "Trail data"
// @Success 200 {object} services.TrailResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /trails/{id} [put]
func (h *TrailHandler) UpdateTrail(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating trail", "trail_id", id)

	var req services.UpdateTrailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	trail, err := h.trailService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trail)
}

// DeleteTrail soft-deletes a trail
// @Summary Delete trail
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /trails/{id} [delete]
func (h *TrailHandler) DeleteTrail(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting trail", "trail_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.trailService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Trail deleted successfully"})
}

// ListTrails lists trails with filters
// @Summary List trails
// @Tags trails
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param status query string false "Trail status"
// @Param search query string false "Title search"
// @Success 200 {object} services.TrailListResponse
// @Router /trails [get]
func (h *TrailHandler) ListTrails(c *gin.Context) {
	h.LogRequest(c, "Listing trails")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	trails, err := h.trailService.List(c.Request.Context(), h.parseTrailFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trails)
}

// GetTrailStats retrieves aggregate statistics for a trail
// @Summary Get trail statistics
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} repositories.TrailStats
// @Failure 403 {object} ErrorResponse
// @Router /trails/{id}/stats [get]
func (h *TrailHandler) GetTrailStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	stats, err := h.trailService.GetStats(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// PublishTrail moves a trail from draft to published
// @Summary Publish trail
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /trails/{id}/publish [post]
func (h *TrailHandler) PublishTrail(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Publishing trail", "trail_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.trailService.Publish(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Trail published successfully"})
}

// ArchiveTrail archives a published trail
// @Summary Archive trail
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /trails/{id}/archive [post]
func (h *TrailHandler) ArchiveTrail(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Archiving trail", "trail_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.trailService.Archive(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Trail archived successfully"})
}

// ===== MODULES =====

// AddModule adds a module to a trail
// @Summary Add module
// @Tags trails
// @Accept json
// @Produce json
// @Param id path uint true "Trail ID"
// @Param module body services.CreateModuleRequest true "Module data"
// @Success 201 {object} models.TrailModule
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /trails/{id}/modules [post]
func (h *TrailHandler) AddModule(c *gin.Context) {
	trailID := h.parseIDParam(c, "id")
	if trailID == 0 {
		return
	}

	h.LogRequest(c, "Adding module", "trail_id", trailID)

	var req services.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	module, err := h.trailService.AddModule(c.Request.Context(), trailID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// UpdateModule updates a module
// @Summary Update module
// @Tags trails
// @Accept json
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param module body services.UpdateModuleRequest true "Module data"
// @Success 200 {object} models.TrailModule
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /modules/{module_id} [put]
func (h *TrailHandler) UpdateModule(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Updating module", "module_id", moduleID)

	var req services.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	module, err := h.trailService.UpdateModule(c.Request.Context(), moduleID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// RemoveModule removes a module from its trail
// @Summary Remove module
// @Tags trails
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /modules/{module_id} [delete]
func (h *TrailHandler) RemoveModule(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Removing module", "module_id", moduleID)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.trailService.RemoveModule(c.Request.Context(), moduleID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Module removed successfully"})
}

// ListModules lists a trail's modules in authoring order
// @Summary List modules
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} SuccessResponse{data=[]models.TrailModule}
// @Router /trails/{id}/modules [get]
func (h *TrailHandler) ListModules(c *gin.Context) {
	trailID := h.parseIDParam(c, "id")
	if trailID == 0 {
		return
	}

	modules, err := h.trailService.ListModules(c.Request.Context(), trailID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Modules retrieved successfully",
		Data:    modules,
	})
}

// GetUnlockOrder returns module ids in prerequisite order
// @Summary Get module unlock order
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} SuccessResponse{data=[]uint}
// @Failure 422 {object} ErrorResponse
// @Router /trails/{id}/unlock-order [get]
func (h *TrailHandler) GetUnlockOrder(c *gin.Context) {
	trailID := h.parseIDParam(c, "id")
	if trailID == 0 {
		return
	}

	order, err := h.trailService.UnlockOrder(c.Request.Context(), trailID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Unlock order computed successfully",
		Data:    order,
	})
}

// ===== ENROLLMENT =====

// Enroll enrolls the current student in a trail
// @Summary Enroll in trail
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 201 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /trails/{id}/enroll [post]
func (h *TrailHandler) Enroll(c *gin.Context) {
	trailID := h.parseIDParam(c, "id")
	if trailID == 0 {
		return
	}

	h.LogRequest(c, "Enrolling in trail", "trail_id", trailID)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	enrollment, err := h.trailService.Enroll(c.Request.Context(), trailID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// GetMyEnrollment returns the current student's enrollment in a trail
// @Summary Get my enrollment
// @Tags trails
// @Produce json
// @Param id path uint true "Trail ID"
// @Success 200 {object} models.Enrollment
// @Failure 404 {object} ErrorResponse
// @Router /trails/{id}/enrollment [get]
func (h *TrailHandler) GetMyEnrollment(c *gin.Context) {
	trailID := h.parseIDParam(c, "id")
	if trailID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	enrollment, err := h.trailService.GetEnrollment(c.Request.Context(), trailID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ListMyTrails lists the current student's enrollments
// @Summary List my trails
// @Tags trails
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Enrollment}
// @Router /students/me/trails [get]
func (h *TrailHandler) ListMyTrails(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Listing student trails", "student_id", userID)

	enrollments, err := h.trailService.ListStudentTrails(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Enrollments retrieved successfully",
		Data:    enrollments,
	})
}

// ===== HELPERS =====

func (h *TrailHandler) parseTrailFilters(c *gin.Context) repositories.TrailFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.TrailFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		trailStatus := models.TrailStatus(status)
		filters.Status = &trailStatus
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filters.Search = &search
	}
	if createdBy := strings.TrimSpace(c.Query("created_by")); createdBy != "" {
		filters.CreatedBy = &createdBy
	}

	return filters
}
