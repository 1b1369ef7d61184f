package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/studytrails/trails-service/internal/cache"
	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
	cm *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cm *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db, cm: cm}
}

func (r *QuestionPostgreSQL) Create(ctx context.Context, question *models.QuizQuestion) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	cache.InvalidateModuleQuizCache(ctx, r.cm, question.ModuleID)
	return nil
}

func (r *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionPostgreSQL) Update(ctx context.Context, question *models.QuizQuestion) error {
	if err := r.db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	cache.InvalidateModuleQuizCache(ctx, r.cm, question.ModuleID)
	return nil
}

func (r *QuestionPostgreSQL) Delete(ctx context.Context, id uint) error {
	var question models.QuizQuestion
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&question).Error; err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	cache.InvalidateModuleQuizCache(ctx, r.cm, question.ModuleID)
	return nil
}

// ListByModule returns the module's questions in authoring order, via
// the quiz cache. The cached set is the canonical order; per-student
// permutations are derived from it at render time.
func (r *QuestionPostgreSQL) ListByModule(ctx context.Context, moduleID uint) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	key := fmt.Sprintf("module:%d:questions", moduleID)
	err := r.cm.Quiz.CacheOrExecute(ctx, key, &questions, cache.QuizCacheConfig.TTL, func() (interface{}, error) {
		var qs []*models.QuizQuestion
		err := r.db.WithContext(ctx).
			Where("module_id = ?", moduleID).
			Order("position ASC, id ASC").
			Find(&qs).Error
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionPostgreSQL) CountByModule(ctx context.Context, moduleID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Where("module_id = ?", moduleID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return int(count), nil
}

func (r *QuestionPostgreSQL) TotalPointsByModule(ctx context.Context, moduleID uint) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.QuizQuestion{}).
		Select("SUM(points)").
		Where("module_id = ?", moduleID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum question points: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
