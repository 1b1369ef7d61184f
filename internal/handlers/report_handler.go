package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studytrails/trails-service/internal/services"
	"github.com/studytrails/trails-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
	}
}

// ExportGradebook downloads a trail's gradebook as an xlsx workbook
// @Summary Export gradebook
// @Description Exports one row per student/module pair as an xlsx workbook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Trail ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /trails/{id}/gradebook [get]
func (h *ReportHandler) ExportGradebook(c *gin.Context) {
	trailID := h.parseIDParam(c, "id")
	if trailID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Exporting gradebook", "trail_id", trailID)

	workbook, err := h.reportService.ExportGradebook(c.Request.Context(), trailID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("gradebook-trail-%d.xlsx", trailID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, xlsxContentType, workbook)
}
