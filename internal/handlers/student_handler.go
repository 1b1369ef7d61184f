package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/services"
	"github.com/studytrails/trails-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewStudentHandler(progressService services.ProgressService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// GetMyProfile returns the current student's XP, level and achievements
// @Summary Get my profile
// @Tags students
// @Produce json
// @Success 200 {object} models.ProfileResponse
// @Router /students/me/profile [get]
func (h *StudentHandler) GetMyProfile(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Getting student profile", "student_id", userID)

	profile, err := h.progressService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetProfile returns another student's profile (staff only)
// @Summary Get student profile
// @Tags students
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} models.ProfileResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{student_id}/profile [get]
func (h *StudentHandler) GetProfile(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Getting student profile", "student_id", studentID)

	profile, err := h.progressService.GetProfile(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Leaderboard returns the top students by XP
// @Summary Get leaderboard
// @Tags students
// @Produce json
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} SuccessResponse{data=[]models.StudentProfile}
// @Router /students/leaderboard [get]
func (h *StudentHandler) Leaderboard(c *gin.Context) {
	limit := h.parseIntQuery(c, "limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	h.LogRequest(c, "Getting leaderboard", "limit", limit)

	profiles, err := h.progressService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Leaderboard retrieved successfully",
		Data:    profiles,
	})
}

// ListMyCertificates lists the current student's certificates
// @Summary List my certificates
// @Tags students
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Certificate}
// @Router /students/me/certificates [get]
func (h *StudentHandler) ListMyCertificates(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Listing certificates", "student_id", userID)

	certificates, err := h.progressService.ListCertificates(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Certificates retrieved successfully",
		Data:    certificates,
	})
}

// VerifyCertificate verifies a certificate by its serial (public)
// @Summary Verify certificate
// @Description Public verification of a certificate by its serial number
// @Tags students
// @Produce json
// @Param serial path string true "Certificate serial"
// @Success 200 {object} models.Certificate
// @Failure 404 {object} ErrorResponse
// @Router /certificates/{serial} [get]
func (h *StudentHandler) VerifyCertificate(c *gin.Context) {
	serial := ParseStringIDParam(c, "serial")
	if serial == "" {
		return
	}

	h.LogRequest(c, "Verifying certificate", "serial", serial)

	certificate, err := h.progressService.VerifyCertificate(c.Request.Context(), serial)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}

// ListMyNotifications lists the current user's notifications
// @Summary List my notifications
// @Tags students
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param unread query bool false "Unread only"
// @Success 200 {object} models.PaginatedResponse[models.Notification]
// @Router /students/me/notifications [get]
func (h *StudentHandler) ListMyNotifications(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.NotificationFilters{
		UnreadOnly: c.Query("unread") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	notifications, total, err := h.progressService.ListNotifications(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginatedResponse(notifications, total, limit, offset))
}

// MarkNotificationRead marks one notification as read
// @Summary Mark notification read
// @Tags students
// @Produce json
// @Param id path uint true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/me/notifications/{id}/read [post]
func (h *StudentHandler) MarkNotificationRead(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.progressService.MarkNotificationRead(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}
