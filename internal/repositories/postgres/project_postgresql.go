package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

type ProjectPostgreSQL struct {
	db *gorm.DB
}

func NewProjectPostgreSQL(db *gorm.DB) repositories.ProjectRepository {
	return &ProjectPostgreSQL{db: db}
}

func (r *ProjectPostgreSQL) CreateSubmission(ctx context.Context, submission *models.ProjectSubmission) error {
	submission.SubmittedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (r *ProjectPostgreSQL) GetSubmissionByID(ctx context.Context, id uint) (*models.ProjectSubmission, error) {
	var submission models.ProjectSubmission
	err := r.db.WithContext(ctx).
		Preload("Review").
		First(&submission, id).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *ProjectPostgreSQL) UpdateSubmission(ctx context.Context, submission *models.ProjectSubmission) error {
	if err := r.db.WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return nil
}

func (r *ProjectPostgreSQL) CountRevisions(ctx context.Context, moduleID uint, studentID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectSubmission{}).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return int(count), nil
}

func (r *ProjectPostgreSQL) GetLatestSubmission(ctx context.Context, moduleID uint, studentID string) (*models.ProjectSubmission, error) {
	var submission models.ProjectSubmission
	err := r.db.WithContext(ctx).
		Preload("Review").
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Order("revision DESC").
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *ProjectPostgreSQL) ListByModule(ctx context.Context, moduleID uint, filters repositories.SubmissionFilters) ([]*models.ProjectSubmission, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProjectSubmission{}).
		Where("module_id = ?", moduleID)
	return r.listSubmissions(query, filters)
}

func (r *ProjectPostgreSQL) ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*models.ProjectSubmission, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProjectSubmission{}).
		Where("student_id = ?", studentID)
	return r.listSubmissions(query, filters)
}

func (r *ProjectPostgreSQL) listSubmissions(query *gorm.DB, filters repositories.SubmissionFilters) ([]*models.ProjectSubmission, int64, error) {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	var submissions []*models.ProjectSubmission
	query = applyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Preload("Review").Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, total, nil
}

func (r *ProjectPostgreSQL) CreateReview(ctx context.Context, review *models.ProjectReview) error {
	review.ReviewedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *ProjectPostgreSQL) GetReviewBySubmission(ctx context.Context, submissionID uint) (*models.ProjectReview, error) {
	var review models.ProjectReview
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}
