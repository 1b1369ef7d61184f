package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/studytrails/trails-service/internal/events"
	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

// notificationEventService is the single place domain happenings fan
// out from: each Notify* publishes the typed event to the bus and
// writes the student-facing notification record. Publishing failures
// surface to the caller; record failures do too, so callers treat any
// error here as non-fatal.
type notificationEventService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewNotificationEventService(repo repositories.Repository, eventPublisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *notificationEventService) NotifyTrailPublished(ctx context.Context, trail *models.Trail) error {
	return s.publish(ctx, events.EventTrailPublished, events.TrailPublishedPayload{
		TrailID: trail.ID,
		Title:   trail.Title,
		OwnerID: trail.CreatedBy,
	})
}

func (s *notificationEventService) NotifyQuizGraded(ctx context.Context, studentID string, module *models.TrailModule, result *AttemptGradingResult) error {
	if err := s.publish(ctx, events.EventAttemptCompleted, events.AttemptCompletedPayload{
		AttemptID:  result.AttemptID,
		ModuleID:   module.ID,
		StudentID:  studentID,
		Score:      result.TotalScore,
		Percentage: result.Percentage,
		Passed:     result.Passed,
	}); err != nil {
		return err
	}

	message := fmt.Sprintf("You scored %.0f%% (%s) on %q.", result.Percentage, result.Grade, module.Title)
	if result.Passed {
		message += " Passed!"
	}
	return s.record(ctx, studentID, models.NotificationQuizGraded, "Quiz graded", message, map[string]any{
		"attempt_id": result.AttemptID,
		"module_id":  module.ID,
		"percentage": result.Percentage,
		"passed":     result.Passed,
	})
}

func (s *notificationEventService) NotifyProjectReviewed(ctx context.Context, submission *models.ProjectSubmission, review *models.ProjectReview) error {
	if err := s.publish(ctx, events.EventProjectReviewed, events.ProjectReviewedPayload{
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		ReviewerID:   review.ReviewerID,
		Score:        review.Score,
		Approved:     review.Approved,
	}); err != nil {
		return err
	}

	title := "Project approved"
	message := fmt.Sprintf("Your project submission (revision %d) was approved with score %.0f.", submission.Revision, review.Score)
	if !review.Approved {
		title = "Project needs changes"
		message = fmt.Sprintf("Your project submission (revision %d) needs changes. Check the review comments.", submission.Revision)
	}
	return s.record(ctx, submission.StudentID, models.NotificationProjectReviewed, title, message, map[string]any{
		"submission_id": submission.ID,
		"module_id":     submission.ModuleID,
		"approved":      review.Approved,
		"score":         review.Score,
	})
}

func (s *notificationEventService) NotifyAchievementEarned(ctx context.Context, studentID string, achievement *models.Achievement) error {
	if err := s.publish(ctx, events.EventAchievementEarned, events.AchievementEarnedPayload{
		StudentID:       studentID,
		AchievementCode: string(achievement.Code),
		XPBonus:         achievement.XPBonus,
	}); err != nil {
		return err
	}

	message := achievement.Description
	if achievement.XPBonus > 0 {
		message = fmt.Sprintf("%s (+%d XP)", achievement.Description, achievement.XPBonus)
	}
	return s.record(ctx, studentID, models.NotificationAchievement, fmt.Sprintf("Achievement: %s", achievement.Title), message, map[string]any{
		"code":     achievement.Code,
		"xp_bonus": achievement.XPBonus,
	})
}

func (s *notificationEventService) NotifyCertificateIssued(ctx context.Context, cert *models.Certificate) error {
	if err := s.publish(ctx, events.EventCertificateIssued, events.CertificateIssuedPayload{
		StudentID: cert.UserID,
		TrailID:   cert.TrailID,
		Serial:    cert.Serial,
	}); err != nil {
		return err
	}

	return s.record(ctx, cert.UserID, models.NotificationCertificate, "Certificate issued",
		fmt.Sprintf("You completed the trail. Certificate serial: %s", cert.Serial),
		map[string]any{
			"trail_id": cert.TrailID,
			"serial":   cert.Serial,
		})
}

func (s *notificationEventService) publish(ctx context.Context, eventType string, payload interface{}) error {
	if s.eventPublisher == nil {
		return nil
	}
	if err := s.eventPublisher.Publish(ctx, eventType, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

func (s *notificationEventService) record(ctx context.Context, userID string, nType models.NotificationType, title, message string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    nType,
		Title:   title,
		Message: message,
		Data:    datatypes.JSON(raw),
	}
	if err := s.repo.Progress().CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	s.logger.Debug("Notification recorded",
		"user_id", userID,
		"type", nType,
		"title", title)
	return nil
}
