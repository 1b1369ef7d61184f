package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (r *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.ModuleAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ModuleAttempt, error) {
	var attempt models.ModuleAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, id uint) (*models.ModuleAttempt, error) {
	var attempt models.ModuleAttempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.ModuleAttempt) error {
	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) GetActive(ctx context.Context, moduleID uint, studentID string) (*models.ModuleAttempt, error) {
	var attempt models.ModuleAttempt
	err := r.db.WithContext(ctx).
		Where("module_id = ? AND student_id = ? AND status = ?", moduleID, studentID, models.AttemptInProgress).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) CountByStudent(ctx context.Context, moduleID uint, studentID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ModuleAttempt{}).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return int(count), nil
}

func (r *AttemptPostgreSQL) GetBestScore(ctx context.Context, moduleID uint, studentID string) (float64, error) {
	var best *float64
	err := r.db.WithContext(ctx).
		Model(&models.ModuleAttempt{}).
		Select("MAX(percentage)").
		Where("module_id = ? AND student_id = ? AND status = ?", moduleID, studentID, models.AttemptCompleted).
		Scan(&best).Error
	if err != nil {
		return 0, fmt.Errorf("best score: %w", err)
	}
	if best == nil {
		return 0, nil
	}
	return *best, nil
}

func (r *AttemptPostgreSQL) ListByModule(ctx context.Context, moduleID uint, filters repositories.AttemptFilters) ([]*models.ModuleAttempt, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ModuleAttempt{}).
		Where("module_id = ?", moduleID)
	return r.listAttempts(query, filters)
}

func (r *AttemptPostgreSQL) ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*models.ModuleAttempt, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ModuleAttempt{}).
		Where("student_id = ?", studentID)
	return r.listAttempts(query, filters)
}

func (r *AttemptPostgreSQL) listAttempts(query *gorm.DB, filters repositories.AttemptFilters) ([]*models.ModuleAttempt, int64, error) {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count attempts: %w", err)
	}

	var attempts []*models.ModuleAttempt
	query = applyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, total, nil
}

// SaveAnswer upserts the student's answer for a question within an
// attempt; re-answering overwrites the previous payload.
func (r *AttemptPostgreSQL) SaveAnswer(ctx context.Context, answer *models.StudentAnswer) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer", "score", "max_score", "is_correct", "feedback", "updated_at",
			}),
		}).
		Create(answer).Error
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) GetAnswers(ctx context.Context, attemptID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	return answers, nil
}

func (r *AttemptPostgreSQL) GradebookByTrail(ctx context.Context, trailID uint) ([]*repositories.GradebookRow, error) {
	var rows []*repositories.GradebookRow
	err := r.db.WithContext(ctx).
		Model(&models.ModuleAttempt{}).
		Select(`module_attempts.student_id,
			users.full_name AS student_name,
			module_attempts.module_id,
			trail_modules.title AS module_title,
			MAX(module_attempts.score) AS best_score,
			MAX(module_attempts.percentage) AS percentage,
			BOOL_OR(module_attempts.passed) AS passed,
			COUNT(*) AS attempts,
			MAX(module_attempts.completed_at) AS last_attempt`).
		Joins("JOIN trail_modules ON trail_modules.id = module_attempts.module_id").
		Joins("LEFT JOIN users ON users.id = module_attempts.student_id").
		Where("trail_modules.trail_id = ? AND module_attempts.status = ?", trailID, models.AttemptCompleted).
		Group("module_attempts.student_id, users.full_name, module_attempts.module_id, trail_modules.title, trail_modules.position").
		Order("module_attempts.student_id, trail_modules.position").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gradebook query: %w", err)
	}
	return rows, nil
}
