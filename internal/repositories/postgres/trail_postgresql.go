package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/studytrails/trails-service/internal/cache"
	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

type TrailPostgreSQL struct {
	db *gorm.DB
	cm *cache.CacheManager
}

func NewTrailPostgreSQL(db *gorm.DB, cm *cache.CacheManager) repositories.TrailRepository {
	return &TrailPostgreSQL{db: db, cm: cm}
}

func (r *TrailPostgreSQL) Create(ctx context.Context, trail *models.Trail) error {
	if err := r.db.WithContext(ctx).Create(trail).Error; err != nil {
		return fmt.Errorf("create trail: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cm.Trail, "list:*")
	return nil
}

func (r *TrailPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Trail, error) {
	var trail models.Trail
	err := r.cm.Trail.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &trail, cache.TrailCacheConfig.TTL, func() (interface{}, error) {
		var t models.Trail
		if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
			return nil, err
		}
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	return &trail, nil
}

func (r *TrailPostgreSQL) GetByIDWithModules(ctx context.Context, id uint) (*models.Trail, error) {
	var trail models.Trail
	err := r.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&trail, id).Error
	if err != nil {
		return nil, err
	}
	return &trail, nil
}

func (r *TrailPostgreSQL) Update(ctx context.Context, trail *models.Trail) error {
	if err := r.db.WithContext(ctx).Save(trail).Error; err != nil {
		return fmt.Errorf("update trail: %w", err)
	}
	cache.InvalidateTrailCache(ctx, r.cm, trail.ID, trail.CreatedBy)
	return nil
}

func (r *TrailPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.TrailStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Trail{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update trail status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.SafeDelete(ctx, r.cm.Trail, fmt.Sprintf("id:%d", id))
	cache.SafeInvalidatePattern(ctx, r.cm.Trail, "list:*")
	return nil
}

func (r *TrailPostgreSQL) Delete(ctx context.Context, id uint) error {
	var trail models.Trail
	if err := r.db.WithContext(ctx).First(&trail, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&trail).Error; err != nil {
		return fmt.Errorf("delete trail: %w", err)
	}
	cache.InvalidateTrailCache(ctx, r.cm, id, trail.CreatedBy)
	return nil
}

func (r *TrailPostgreSQL) List(ctx context.Context, filters repositories.TrailFilters) ([]*models.Trail, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Trail{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+*filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count trails: %w", err)
	}

	var trails []*models.Trail
	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&trails).Error; err != nil {
		return nil, 0, fmt.Errorf("list trails: %w", err)
	}
	return trails, total, nil
}

func (r *TrailPostgreSQL) GetStats(ctx context.Context, trailID uint) (*repositories.TrailStats, error) {
	stats := &repositories.TrailStats{}

	var enrolled, completed int64
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("trail_id = ?", trailID).
		Count(&enrolled).Error; err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("trail_id = ? AND completed_at IS NOT NULL", trailID).
		Count(&completed).Error; err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}
	stats.EnrolledCount = int(enrolled)
	stats.CompletedCount = int(completed)

	moduleCount, err := r.CountModules(ctx, trailID)
	if err != nil {
		return nil, err
	}
	stats.ModuleCount = moduleCount

	var avg *float64
	err = r.db.WithContext(ctx).
		Model(&models.ModuleAttempt{}).
		Select("AVG(module_attempts.percentage)").
		Joins("JOIN trail_modules ON trail_modules.id = module_attempts.module_id").
		Where("trail_modules.trail_id = ? AND module_attempts.status = ?", trailID, models.AttemptCompleted).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("average score: %w", err)
	}
	if avg != nil {
		stats.AverageScore = *avg
	}
	return stats, nil
}

// ===== MODULES =====

func (r *TrailPostgreSQL) CreateModule(ctx context.Context, module *models.TrailModule) error {
	if err := r.db.WithContext(ctx).Create(module).Error; err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cm.Trail, fmt.Sprintf("modules:%d:*", module.TrailID))
	return nil
}

func (r *TrailPostgreSQL) GetModuleByID(ctx context.Context, id uint) (*models.TrailModule, error) {
	var module models.TrailModule
	if err := r.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *TrailPostgreSQL) UpdateModule(ctx context.Context, module *models.TrailModule) error {
	if err := r.db.WithContext(ctx).Save(module).Error; err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cm.Trail, fmt.Sprintf("modules:%d:*", module.TrailID))
	cache.InvalidateModuleQuizCache(ctx, r.cm, module.ID)
	return nil
}

func (r *TrailPostgreSQL) DeleteModule(ctx context.Context, id uint) error {
	var module models.TrailModule
	if err := r.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&module).Error; err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cm.Trail, fmt.Sprintf("modules:%d:*", module.TrailID))
	cache.InvalidateModuleQuizCache(ctx, r.cm, id)
	return nil
}

func (r *TrailPostgreSQL) ListModules(ctx context.Context, trailID uint) ([]*models.TrailModule, error) {
	var modules []*models.TrailModule
	err := r.db.WithContext(ctx).
		Where("trail_id = ?", trailID).
		Order("position ASC").
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

func (r *TrailPostgreSQL) CountModules(ctx context.Context, trailID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TrailModule{}).
		Where("trail_id = ?", trailID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return int(count), nil
}

// ===== ENROLLMENT =====

func (r *TrailPostgreSQL) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.EnrolledAt = time.Now()
	if err := r.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (r *TrailPostgreSQL) GetEnrollment(ctx context.Context, trailID uint, userID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("trail_id = ? AND user_id = ?", trailID, userID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *TrailPostgreSQL) UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if err := r.db.WithContext(ctx).Save(enrollment).Error; err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

func (r *TrailPostgreSQL) CountEnrollments(ctx context.Context, trailID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("trail_id = ?", trailID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return int(count), nil
}

func (r *TrailPostgreSQL) ListEnrollmentsByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Trail").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
