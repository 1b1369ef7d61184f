package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studytrails/trails-service/internal/events"
	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

// XP awarded on top of the module reward.
const (
	perfectScoreBonus    = 25
	trailCompletionBonus = 200
)

type progressService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	notifier  NotificationEventService
	publisher events.EventPublisher
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger, notifier NotificationEventService, publisher events.EventPublisher) ProgressService {
	return &progressService{
		repo:      repo,
		logger:    logger,
		notifier:  notifier,
		publisher: publisher,
	}
}

// ===== PROFILE =====

func (s *progressService) GetProfile(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	profile, err := s.repo.Progress().GetProfile(ctx, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		// A student with no recorded activity yet.
		profile = &models.StudentProfile{UserID: userID, Level: 1}
	}

	earned, err := s.repo.Progress().ListStudentAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	achievements := make([]models.AchievementResponse, len(earned))
	for i, sa := range earned {
		achievements[i] = models.AchievementResponse{
			Code:        sa.Achievement.Code,
			Title:       sa.Achievement.Title,
			Description: sa.Achievement.Description,
			XPBonus:     sa.Achievement.XPBonus,
			EarnedAt:    sa.EarnedAt,
		}
	}

	return &models.ProfileResponse{
		UserID:          profile.UserID,
		XP:              profile.XP,
		Level:           profile.Level,
		NextLevelXP:     xpForLevel(profile.Level + 1),
		QuizzesPassed:   profile.QuizzesPassed,
		TrailsCompleted: profile.TrailsCompleted,
		Achievements:    achievements,
	}, nil
}

func (s *progressService) Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error) {
	profiles, err := s.repo.Progress().Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return profiles, nil
}

// ===== PROGRESS HOOKS =====

// RecordQuizResult awards XP for the first passing attempt of a
// module. Re-passing a quiz never awards twice.
func (s *progressService) RecordQuizResult(ctx context.Context, studentID string, module *models.TrailModule, result *AttemptGradingResult) error {
	if !result.Passed {
		return nil
	}

	firstPass, err := s.isFirstPass(ctx, module.ID, studentID)
	if err != nil {
		return err
	}
	if !firstPass {
		s.logger.Debug("Quiz re-passed, no XP awarded",
			"module_id", module.ID,
			"student_id", studentID)
		return nil
	}

	s.logger.Info("Recording quiz pass",
		"module_id", module.ID,
		"student_id", studentID,
		"percentage", result.Percentage)

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := s.loadOrInitProfile(ctx, tx, studentID)
		if err != nil {
			return err
		}

		xp := module.XPReward
		profile.QuizzesPassed++
		if result.Percentage >= 100 {
			profile.PerfectScoreCount++
			xp += perfectScoreBonus
		}
		profile.XP += xp

		if err := s.grantEarnedAchievements(ctx, tx, profile, result); err != nil {
			return err
		}
		if err := s.saveWithLevel(ctx, tx, profile); err != nil {
			return err
		}

		s.publish(ctx, events.EventModuleCompleted, events.ModuleCompletedPayload{
			TrailID:   module.TrailID,
			ModuleID:  module.ID,
			StudentID: studentID,
			XPAwarded: xp,
		})
		return nil
	})
	if err != nil {
		return err
	}

	return s.updateEnrollmentProgress(ctx, studentID, module.TrailID)
}

func (s *progressService) RecordProjectApproval(ctx context.Context, studentID string, module *models.TrailModule) error {
	s.logger.Info("Recording project approval",
		"module_id", module.ID,
		"student_id", studentID)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := s.loadOrInitProfile(ctx, tx, studentID)
		if err != nil {
			return err
		}

		profile.ProjectsApproved++
		profile.XP += module.XPReward

		if profile.ProjectsApproved == 1 {
			if err := s.grant(ctx, tx, profile, models.AchievementFirstProject); err != nil {
				return err
			}
		}
		if err := s.saveWithLevel(ctx, tx, profile); err != nil {
			return err
		}

		s.publish(ctx, events.EventModuleCompleted, events.ModuleCompletedPayload{
			TrailID:   module.TrailID,
			ModuleID:  module.ID,
			StudentID: studentID,
			XPAwarded: module.XPReward,
		})
		return nil
	})
	if err != nil {
		return err
	}

	return s.updateEnrollmentProgress(ctx, studentID, module.TrailID)
}

// RecordTrailCompletion issues the certificate and the completion
// bonus. The unique (user, trail) index on certificates makes a repeat
// call a no-op at the database level; the completed enrollment check
// above keeps it from being reached twice anyway.
func (s *progressService) RecordTrailCompletion(ctx context.Context, studentID string, trail *models.Trail) error {
	s.logger.Info("Recording trail completion",
		"trail_id", trail.ID,
		"student_id", studentID)

	cert := &models.Certificate{
		Serial:  uuid.NewString(),
		UserID:  studentID,
		TrailID: trail.ID,
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Progress().CreateCertificate(ctx, cert); err != nil {
			return fmt.Errorf("failed to create certificate: %w", err)
		}

		profile, err := s.loadOrInitProfile(ctx, tx, studentID)
		if err != nil {
			return err
		}
		profile.TrailsCompleted++
		profile.XP += trailCompletionBonus

		if err := s.grant(ctx, tx, profile, models.AchievementTrailComplete); err != nil {
			return err
		}
		return s.saveWithLevel(ctx, tx, profile)
	})
	if err != nil {
		return err
	}

	if err := s.notifier.NotifyCertificateIssued(ctx, cert); err != nil {
		s.logger.Warn("Failed to publish certificate notification",
			"serial", cert.Serial,
			"error", err)
	}
	return nil
}

// ===== CERTIFICATES =====

func (s *progressService) VerifyCertificate(ctx context.Context, serial string) (*models.Certificate, error) {
	cert, err := s.repo.Progress().GetCertificateBySerial(ctx, serial)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return cert, nil
}

func (s *progressService) ListCertificates(ctx context.Context, userID string) ([]*models.Certificate, error) {
	certs, err := s.repo.Progress().ListCertificates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certs, nil
}

// ===== NOTIFICATIONS =====

func (s *progressService) ListNotifications(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	notifications, total, err := s.repo.Progress().ListNotifications(ctx, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *progressService) MarkNotificationRead(ctx context.Context, id uint, userID string) error {
	if err := s.repo.Progress().MarkNotificationRead(ctx, id, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("id", "notification not found", id)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// ===== HELPERS =====

// isFirstPass reports whether the student's only passed attempt at the
// module is the one just graded.
func (s *progressService) isFirstPass(ctx context.Context, moduleID uint, studentID string) (bool, error) {
	attempts, _, err := s.repo.Attempt().ListByModule(ctx, moduleID, repositories.AttemptFilters{
		StudentID: &studentID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to list attempts: %w", err)
	}

	passed := 0
	for _, a := range attempts {
		if a.Passed {
			passed++
		}
	}
	return passed <= 1, nil
}

func (s *progressService) loadOrInitProfile(ctx context.Context, tx repositories.Repository, studentID string) (*models.StudentProfile, error) {
	profile, err := tx.Progress().GetProfile(ctx, studentID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
		profile = &models.StudentProfile{UserID: studentID, Level: 1}
	}
	return profile, nil
}

// saveWithLevel recomputes the level from total XP and persists the
// profile, announcing a level-up when the level moved.
func (s *progressService) saveWithLevel(ctx context.Context, tx repositories.Repository, profile *models.StudentProfile) error {
	newLevel := levelForXP(profile.XP)
	leveledUp := newLevel > profile.Level
	profile.Level = newLevel

	if err := tx.Progress().SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	if leveledUp {
		s.logger.Info("Student leveled up",
			"student_id", profile.UserID,
			"level", newLevel,
			"xp", profile.XP)
		s.publish(ctx, events.EventLevelUp, events.LevelUpPayload{
			StudentID: profile.UserID,
			Level:     newLevel,
			XP:        profile.XP,
		})

		if newLevel >= 10 {
			if err := s.grant(ctx, tx, profile, models.AchievementLevelTen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *progressService) grantEarnedAchievements(ctx context.Context, tx repositories.Repository, profile *models.StudentProfile, result *AttemptGradingResult) error {
	if profile.QuizzesPassed == 1 {
		if err := s.grant(ctx, tx, profile, models.AchievementFirstQuiz); err != nil {
			return err
		}
	}
	if profile.QuizzesPassed == 5 {
		if err := s.grant(ctx, tx, profile, models.AchievementFiveQuizzes); err != nil {
			return err
		}
	}
	if result.Percentage >= 100 {
		if err := s.grant(ctx, tx, profile, models.AchievementPerfectScore); err != nil {
			return err
		}
	}
	return nil
}

// grant is idempotent. The XP bonus is added to the in-memory profile
// only when the grant was new; the caller persists it.
func (s *progressService) grant(ctx context.Context, tx repositories.Repository, profile *models.StudentProfile, code models.AchievementCode) error {
	achievement, err := tx.Progress().GetAchievementByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Achievement not seeded", "code", code)
			return nil
		}
		return fmt.Errorf("failed to get achievement: %w", err)
	}

	granted, err := tx.Progress().GrantAchievement(ctx, profile.UserID, achievement.ID)
	if err != nil {
		return fmt.Errorf("failed to grant achievement: %w", err)
	}
	if !granted {
		return nil
	}

	profile.XP += achievement.XPBonus

	s.logger.Info("Achievement earned",
		"student_id", profile.UserID,
		"code", code,
		"xp_bonus", achievement.XPBonus)

	if err := s.notifier.NotifyAchievementEarned(ctx, profile.UserID, achievement); err != nil {
		s.logger.Warn("Failed to publish achievement notification",
			"code", code,
			"error", err)
	}
	return nil
}

// updateEnrollmentProgress recomputes completion over the trail's quiz
// and project modules, and triggers trail completion when all of them
// are done. Lessons carry no completion state and do not count.
func (s *progressService) updateEnrollmentProgress(ctx context.Context, studentID string, trailID uint) error {
	enrollment, err := s.repo.Trail().GetEnrollment(ctx, trailID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}
	if enrollment.CompletedAt != nil {
		return nil
	}

	modules, err := s.repo.Trail().ListModules(ctx, trailID)
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}

	tracked := 0
	completed := 0
	for _, m := range modules {
		if m.Kind == models.ModuleLesson {
			continue
		}
		tracked++
		done, err := moduleCompleted(ctx, s.repo, m, studentID)
		if err != nil {
			return err
		}
		if done {
			completed++
		}
	}
	if tracked == 0 {
		return nil
	}

	enrollment.Progress = float64(completed) / float64(tracked) * 100
	allDone := completed == tracked
	if allDone {
		now := time.Now()
		enrollment.CompletedAt = &now
	}
	if err := s.repo.Trail().UpdateEnrollment(ctx, enrollment); err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}

	if allDone {
		trail, err := s.repo.Trail().GetByID(ctx, trailID)
		if err != nil {
			return fmt.Errorf("failed to get trail: %w", err)
		}
		return s.RecordTrailCompletion(ctx, studentID, trail)
	}
	return nil
}

func (s *progressService) publish(ctx context.Context, eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
	}
}

// ===== LEVEL CURVE =====

// xpForLevel is the total XP needed to reach a level: 0, 100, 400,
// 900, ... (quadratic, so each level costs more than the last).
func xpForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return n * n * 100
}

func levelForXP(xp int) int {
	level := 1
	for xp >= xpForLevel(level+1) {
		level++
	}
	return level
}
