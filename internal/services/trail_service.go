package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/validator"
)

type trailService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	notifier  NotificationEventService
}

func NewTrailService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, notifier NotificationEventService) TrailService {
	return &trailService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		notifier:  notifier,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *trailService) Create(ctx context.Context, req *CreateTrailRequest, creatorID string) (*TrailResponse, error) {
	s.logger.Info("Creating trail", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	canCreate, err := s.isTeacherOrAdmin(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canCreate {
		return nil, NewPermissionError(creatorID, 0, "trail", "create", "insufficient role permissions")
	}

	trail := &models.Trail{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TrailDraft,
		CreatedBy:   creatorID,
	}
	if len(req.Tags) > 0 {
		tags, err := json.Marshal(req.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		trail.Tags = tags
	}

	if err := s.repo.Trail().Create(ctx, trail); err != nil {
		return nil, fmt.Errorf("failed to create trail: %w", err)
	}

	s.logger.Info("Trail created successfully", "trail_id", trail.ID)
	return s.buildTrailResponse(ctx, trail, creatorID), nil
}

func (s *trailService) GetByID(ctx context.Context, id uint, userID string) (*TrailResponse, error) {
	trail, err := s.repo.Trail().GetByIDWithModules(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrailNotFound
		}
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}

	// Draft and archived trails are only visible to staff and the owner.
	if trail.Status != models.TrailPublished {
		canView, err := s.canEditTrail(ctx, trail, userID)
		if err != nil {
			return nil, err
		}
		if !canView {
			return nil, ErrTrailNotFound
		}
	}

	return s.buildTrailResponse(ctx, trail, userID), nil
}

func (s *trailService) Update(ctx context.Context, id uint, req *UpdateTrailRequest, userID string) (*TrailResponse, error) {
	s.logger.Info("Updating trail", "trail_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	trail, err := s.repo.Trail().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrailNotFound
		}
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}

	canEdit, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, id, "trail", "update", "not owner or insufficient permissions")
	}

	if req.Title != nil {
		trail.Title = *req.Title
	}
	if req.Description != nil {
		trail.Description = req.Description
	}
	if req.Tags != nil {
		tags, err := json.Marshal(req.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		trail.Tags = tags
	}

	if err := s.repo.Trail().Update(ctx, trail); err != nil {
		return nil, fmt.Errorf("failed to update trail: %w", err)
	}

	s.logger.Info("Trail updated successfully", "trail_id", id)
	return s.buildTrailResponse(ctx, trail, userID), nil
}

func (s *trailService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting trail", "trail_id", id, "user_id", userID)

	trail, err := s.repo.Trail().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTrailNotFound
		}
		return fmt.Errorf("failed to get trail: %w", err)
	}

	canEdit, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, id, "trail", "delete", "not owner or insufficient permissions")
	}

	enrolled, err := s.repo.Trail().CountEnrollments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	if enrolled > 0 {
		return NewPermissionError(userID, id, "trail", "delete", "trail has enrolled students")
	}

	if err := s.repo.Trail().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete trail: %w", err)
	}

	s.logger.Info("Trail deleted successfully", "trail_id", id)
	return nil
}

func (s *trailService) List(ctx context.Context, filters repositories.TrailFilters, userID string) (*TrailListResponse, error) {
	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleStudent:
		published := models.TrailPublished
		filters.Status = &published
	case models.RoleTeacher:
		filters.CreatedBy = &userID
	case models.RoleAdmin:
		// no additional filtering
	default:
		return &TrailListResponse{Trails: []*TrailResponse{}, Page: 1, Size: filters.Limit}, nil
	}

	trails, total, err := s.repo.Trail().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list trails: %w", err)
	}

	response := &TrailListResponse{
		Trails: make([]*TrailResponse, len(trails)),
		Total:  total,
		Page:   (filters.Offset / max(filters.Limit, 1)) + 1,
		Size:   filters.Limit,
	}
	for i, trail := range trails {
		response.Trails[i] = s.buildTrailResponse(ctx, trail, userID)
	}
	return response, nil
}

func (s *trailService) GetStats(ctx context.Context, id uint, userID string) (*repositories.TrailStats, error) {
	trail, err := s.repo.Trail().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrailNotFound
		}
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}

	canView, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return nil, err
	}
	if !canView {
		return nil, NewPermissionError(userID, id, "trail", "view_stats", "not owner or insufficient permissions")
	}

	return s.repo.Trail().GetStats(ctx, id)
}

// ===== STATUS MANAGEMENT =====

func (s *trailService) Publish(ctx context.Context, id uint, userID string) error {
	return s.transition(ctx, id, models.TrailPublished, userID)
}

func (s *trailService) Archive(ctx context.Context, id uint, userID string) error {
	return s.transition(ctx, id, models.TrailArchived, userID)
}

func (s *trailService) transition(ctx context.Context, id uint, next models.TrailStatus, userID string) error {
	s.logger.Info("Updating trail status", "trail_id", id, "new_status", next, "user_id", userID)

	trail, err := s.repo.Trail().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTrailNotFound
		}
		return fmt.Errorf("failed to get trail: %w", err)
	}

	canEdit, err := s.canEditTrail(ctx, trail, userID)
	if err != nil {
		return err
	}
	if !canEdit {
		return NewPermissionError(userID, id, "trail", "update_status", "not owner or insufficient permissions")
	}

	moduleCount, err := s.repo.Trail().CountModules(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count modules: %w", err)
	}
	enrolledCount, err := s.repo.Trail().CountEnrollments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}

	if errs := s.validator.GetBusinessValidator().ValidateTrailStatusTransition(trail.Status, next, moduleCount, enrolledCount); errs.HasErrors() {
		return errs
	}

	// Publishing also requires a consistent prerequisite graph.
	if next == models.TrailPublished {
		if _, err := s.UnlockOrder(ctx, id); err != nil {
			return err
		}
	}

	if err := s.repo.Trail().UpdateStatus(ctx, id, next); err != nil {
		return fmt.Errorf("failed to update trail status: %w", err)
	}

	if next == models.TrailPublished && s.notifier != nil {
		trail.Status = next
		if err := s.notifier.NotifyTrailPublished(ctx, trail); err != nil {
			s.logger.Warn("Failed to publish trail event", "trail_id", id, "error", err)
		}
	}

	s.logger.Info("Trail status updated successfully", "trail_id", id, "new_status", next)
	return nil
}

// ===== ENROLLMENT =====

func (s *trailService) Enroll(ctx context.Context, trailID uint, studentID string) (*models.Enrollment, error) {
	s.logger.Info("Enrolling student", "trail_id", trailID, "student_id", studentID)

	trail, err := s.repo.Trail().GetByID(ctx, trailID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTrailNotFound
		}
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}
	if trail.Status != models.TrailPublished {
		return nil, ErrTrailNotPublished
	}

	if existing, err := s.repo.Trail().GetEnrollment(ctx, trailID, studentID); err == nil && existing != nil {
		return nil, ErrAlreadyEnrolled
	} else if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	enrollment := &models.Enrollment{
		TrailID:    trailID,
		UserID:     studentID,
		EnrolledAt: time.Now(),
	}
	if err := s.repo.Trail().Enroll(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	s.logger.Info("Student enrolled successfully", "trail_id", trailID, "student_id", studentID)
	return enrollment, nil
}

func (s *trailService) GetEnrollment(ctx context.Context, trailID uint, studentID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Trail().GetEnrollment(ctx, trailID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *trailService) ListStudentTrails(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	enrollments, err := s.repo.Trail().ListEnrollmentsByUser(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
