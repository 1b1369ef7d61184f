package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/validator"
)

type projectService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	progress  ProgressService
	notifier  NotificationEventService
}

func NewProjectService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, progress ProgressService, notifier NotificationEventService) ProjectService {
	return &projectService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		progress:  progress,
		notifier:  notifier,
	}
}

// ===== SUBMISSION =====

// Submit hands in a project. A new revision is only possible while the
// latest one is rejected, withdrawn, or sent back for changes.
func (s *projectService) Submit(ctx context.Context, moduleID uint, req *SubmitProjectRequest, studentID string) (*SubmissionResponse, error) {
	s.logger.Info("Submitting project", "module_id", moduleID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module.Kind != models.ModuleProject {
		return nil, ErrNotAProjectModule
	}

	if _, err := s.repo.Trail().GetEnrollment(ctx, module.TrailID, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	latest, err := s.repo.Project().GetLatestSubmission(ctx, moduleID, studentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get latest submission: %w", err)
	}
	if latest != nil {
		switch latest.Status {
		case models.SubmissionPending:
			return nil, NewValidationError("module_id", "previous submission is still awaiting review", moduleID)
		case models.SubmissionApproved:
			return nil, NewValidationError("module_id", "project was already approved", moduleID)
		}
	}

	var submission *models.ProjectSubmission
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		revisions, err := tx.Project().CountRevisions(ctx, moduleID, studentID)
		if err != nil {
			return fmt.Errorf("failed to count revisions: %w", err)
		}

		submission = &models.ProjectSubmission{
			ModuleID:    moduleID,
			StudentID:   studentID,
			RepoURL:     req.RepoURL,
			Description: req.Description,
			Revision:    revisions + 1,
			Status:      models.SubmissionPending,
			SubmittedAt: time.Now(),
		}
		if err := tx.Project().CreateSubmission(ctx, submission); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project submitted",
		"submission_id", submission.ID,
		"module_id", moduleID,
		"student_id", studentID,
		"revision", submission.Revision)

	return &SubmissionResponse{ProjectSubmission: submission}, nil
}

// ===== REVIEW =====

func (s *projectService) Review(ctx context.Context, submissionID uint, req *ReviewProjectRequest, reviewerID string) (*SubmissionResponse, error) {
	s.logger.Info("Reviewing submission",
		"submission_id", submissionID,
		"reviewer_id", reviewerID,
		"approved", req.Approved)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	submission, err := s.repo.Project().GetSubmissionByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.Status != models.SubmissionPending {
		return nil, ErrSubmissionClosed
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, submission.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkReviewPermission(ctx, module, reviewerID); err != nil {
		return nil, err
	}

	review := &models.ProjectReview{
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Score:        req.Score,
		Approved:     req.Approved,
		Comments:     req.Comments,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Project().CreateReview(ctx, review); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		if req.Approved {
			submission.Status = models.SubmissionApproved
		} else {
			submission.Status = models.SubmissionResubmit
		}
		if err := tx.Project().UpdateSubmission(ctx, submission); err != nil {
			return fmt.Errorf("failed to update submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	submission.Review = review

	// XP and notifications happen after the review is committed; their
	// failure must not undo the review itself.
	if req.Approved {
		if err := s.progress.RecordProjectApproval(ctx, submission.StudentID, module); err != nil {
			s.logger.Error("Failed to record project approval",
				"submission_id", submissionID,
				"student_id", submission.StudentID,
				"error", err)
		}
	}
	if err := s.notifier.NotifyProjectReviewed(ctx, submission, review); err != nil {
		s.logger.Warn("Failed to publish project review notification",
			"submission_id", submissionID,
			"error", err)
	}

	s.logger.Info("Submission reviewed",
		"submission_id", submissionID,
		"status", submission.Status)

	return &SubmissionResponse{ProjectSubmission: submission}, nil
}

// ===== READS =====

func (s *projectService) GetSubmission(ctx context.Context, id uint, userID string) (*SubmissionResponse, error) {
	submission, err := s.repo.Project().GetSubmissionByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	canReview := false
	if submission.StudentID != userID {
		module, err := s.repo.Trail().GetModuleByID(ctx, submission.ModuleID)
		if err != nil {
			return nil, fmt.Errorf("failed to get module: %w", err)
		}
		if err := s.checkReviewPermission(ctx, module, userID); err != nil {
			return nil, err
		}
		canReview = submission.Status == models.SubmissionPending
	}

	return &SubmissionResponse{
		ProjectSubmission: submission,
		CanReview:         canReview,
		CanResubmit:       submission.StudentID == userID && canResubmit(submission.Status),
	}, nil
}

func (s *projectService) ListByModule(ctx context.Context, moduleID uint, filters repositories.SubmissionFilters, userID string) ([]*SubmissionResponse, int64, error) {
	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrModuleNotFound
		}
		return nil, 0, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkReviewPermission(ctx, module, userID); err != nil {
		return nil, 0, err
	}

	submissions, total, err := s.repo.Project().ListByModule(ctx, moduleID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	responses := make([]*SubmissionResponse, len(submissions))
	for i, sub := range submissions {
		responses[i] = &SubmissionResponse{
			ProjectSubmission: sub,
			CanReview:         sub.Status == models.SubmissionPending,
		}
	}
	return responses, total, nil
}

func (s *projectService) ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*SubmissionResponse, int64, error) {
	submissions, total, err := s.repo.Project().ListByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	responses := make([]*SubmissionResponse, len(submissions))
	for i, sub := range submissions {
		responses[i] = &SubmissionResponse{
			ProjectSubmission: sub,
			CanResubmit:       canResubmit(sub.Status),
		}
	}
	return responses, total, nil
}

// ===== HELPERS =====

func canResubmit(status models.SubmissionStatus) bool {
	switch status {
	case models.SubmissionRejected, models.SubmissionResubmit, models.SubmissionWithdrawn:
		return true
	default:
		return false
	}
}

func (s *projectService) checkReviewPermission(ctx context.Context, module *models.TrailModule, userID string) error {
	trail, err := s.repo.Trail().GetByID(ctx, module.TrailID)
	if err != nil {
		return fmt.Errorf("failed to get trail: %w", err)
	}
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
	return NewPermissionError(userID, module.ID, "submission", "review", "not owner or insufficient permissions")
}
