package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
	}
}

var gradebookHeaders = []string{
	"Student ID", "Student", "Module", "Best Score", "Percentage", "Passed", "Attempts", "Last Attempt",
}

// ExportGradebook builds an xlsx workbook with one row per
// student/module pair of the trail.
func (s *reportService) ExportGradebook(ctx context.Context, trailID uint, userID string) ([]byte, error) {
	s.logger.Info("Exporting gradebook", "trail_id", trailID, "user_id", userID)

	trail, err := s.repo.Trail().GetByID(ctx, trailID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrailNotFound
		}
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}
	if err := s.checkExportPermission(ctx, trail, userID); err != nil {
		return nil, err
	}

	rows, err := s.repo.Attempt().GradebookByTrail(ctx, trailID)
	if err != nil {
		return nil, fmt.Errorf("failed to build gradebook: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Gradebook"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range gradebookHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.StudentID,
			row.StudentName,
			row.ModuleTitle,
			row.BestScore,
			row.Percentage,
			row.Passed,
			row.Attempts,
		}
		if row.LastAttempt != nil {
			values = append(values, row.LastAttempt.Format("2006-01-02 15:04"))
		} else {
			values = append(values, "")
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Gradebook exported",
		"trail_id", trailID,
		"rows", len(rows),
		"bytes", buf.Len())

	return buf.Bytes(), nil
}

func (s *reportService) checkExportPermission(ctx context.Context, trail *models.Trail, userID string) error {
	if trail.CreatedBy == userID {
		return nil
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role == models.RoleAdmin {
		return nil
	}
	return NewPermissionError(userID, trail.ID, "trail", "export_gradebook", "not owner or insufficient permissions")
}
