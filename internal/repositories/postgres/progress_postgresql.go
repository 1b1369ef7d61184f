package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studytrails/trails-service/internal/cache"
	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *ProgressPostgreSQL) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	cacheKey := fmt.Sprintf("profile:%s", userID)

	var profile models.StudentProfile
	err := r.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &profile, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		var p models.StudentProfile
		if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProgressPostgreSQL) SaveProfile(ctx context.Context, profile *models.StudentProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"xp", "level", "quizzes_passed", "projects_approved",
			"trails_completed", "perfect_score_count", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	cache.InvalidateProgressCache(ctx, r.cacheManager, profile.UserID)
	return nil
}

func (r *ProgressPostgreSQL) Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error) {
	if limit <= 0 {
		limit = 10
	}
	var profiles []*models.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("xp DESC").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return profiles, nil
}

func (r *ProgressPostgreSQL) GetAchievementByCode(ctx context.Context, code models.AchievementCode) (*models.Achievement, error) {
	var achievement models.Achievement
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&achievement).Error
	if err != nil {
		return nil, err
	}
	return &achievement, nil
}

// SeedAchievements inserts the built-in achievement catalog, skipping
// codes that already exist.
func (r *ProgressPostgreSQL) SeedAchievements(ctx context.Context, achievements []models.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&achievements).Error
	if err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	return nil
}

func (r *ProgressPostgreSQL) GrantAchievement(ctx context.Context, userID string, achievementID uint) (bool, error) {
	grant := models.StudentAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      time.Now(),
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&grant)
	if result.Error != nil {
		return false, fmt.Errorf("grant achievement: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ProgressPostgreSQL) ListStudentAchievements(ctx context.Context, userID string) ([]*models.StudentAchievement, error) {
	var achievements []*models.StudentAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&achievements).Error
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}

func (r *ProgressPostgreSQL) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	cert.IssuedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(cert).Error; err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

func (r *ProgressPostgreSQL) GetCertificateBySerial(ctx context.Context, serial string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.WithContext(ctx).
		Preload("Trail").
		Where("serial = ?", serial).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *ProgressPostgreSQL) ListCertificates(ctx context.Context, userID string) ([]*models.Certificate, error) {
	var certs []*models.Certificate
	err := r.db.WithContext(ctx).
		Preload("Trail").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certs).Error
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

func (r *ProgressPostgreSQL) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *ProgressPostgreSQL) ListNotifications(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID)
	if filters.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var notifications []*models.Notification
	query = applyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *ProgressPostgreSQL) MarkNotificationRead(ctx context.Context, id uint, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
