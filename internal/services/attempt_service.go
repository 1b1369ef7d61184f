package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	grading   GradingService
	progress  ProgressService
	notifier  NotificationEventService
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, grading GradingService, progress ProgressService, notifier NotificationEventService) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		grading:   grading,
		progress:  progress,
		notifier:  notifier,
	}
}

// ===== LIFECYCLE =====

// Start opens a new attempt, or resumes the active one when the student
// still has time on it. An expired active attempt is timed out first
// and does not block the new one beyond the attempt cap.
func (s *attemptService) Start(ctx context.Context, moduleID uint, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting attempt", "module_id", moduleID, "student_id", studentID)

	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if module.Kind != models.ModuleQuiz {
		return nil, ErrNotAQuizModule
	}

	trail, err := s.repo.Trail().GetByID(ctx, module.TrailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trail: %w", err)
	}

	if _, err := s.repo.Trail().GetEnrollment(ctx, module.TrailID, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if err := s.checkModuleUnlocked(ctx, module, studentID); err != nil {
		return nil, err
	}

	active, err := s.repo.Attempt().GetActive(ctx, moduleID, studentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	if active != nil {
		if s.isExpired(active, module) {
			if err := s.HandleTimeout(ctx, active.ID); err != nil {
				return nil, fmt.Errorf("failed to close expired attempt: %w", err)
			}
		} else {
			s.logger.Info("Resuming active attempt", "attempt_id", active.ID, "student_id", studentID)
			return s.buildAttemptResponse(active, module), nil
		}
	}

	attemptCount, err := s.repo.Attempt().CountByStudent(ctx, moduleID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if errs := s.validator.GetBusinessValidator().ValidateAttemptStart(trail.Status, module.Kind, attemptCount, module.Settings.MaxAttempts); errs.HasErrors() {
		return nil, errs
	}

	var attempt *models.ModuleAttempt
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		// Recount inside the transaction so two concurrent starts
		// cannot both slip under the cap.
		count, err := tx.Attempt().CountByStudent(ctx, moduleID, studentID)
		if err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}
		if count >= module.Settings.MaxAttempts {
			return ErrMaxAttemptsReached
		}

		attempt = &models.ModuleAttempt{
			ModuleID:      moduleID,
			StudentID:     studentID,
			AttemptNumber: count + 1,
			Status:        models.AttemptInProgress,
			StartedAt:     time.Now(),
		}
		if err := tx.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"module_id", moduleID,
		"student_id", studentID,
		"attempt_number", attempt.AttemptNumber)

	return s.buildAttemptResponse(attempt, module), nil
}

func (s *attemptService) GetByID(ctx context.Context, id uint, userID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, attempt.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	if attempt.StudentID != userID {
		if err := s.checkStaffAccess(ctx, module, userID, "read_attempt"); err != nil {
			return nil, err
		}
	}

	return s.buildAttemptResponse(attempt, module), nil
}

// ===== ANSWERING =====

func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, studentID string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return NewPermissionError(studentID, attemptID, "attempt", "answer", "attempt belongs to another student")
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptNotActive
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, attempt.ModuleID)
	if err != nil {
		return fmt.Errorf("failed to get module: %w", err)
	}
	if s.isExpired(attempt, module) {
		if err := s.HandleTimeout(ctx, attemptID); err != nil {
			s.logger.Error("Failed to time out expired attempt", "attempt_id", attemptID, "error", err)
		}
		return ErrAttemptTimeExpired
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.ModuleID != attempt.ModuleID {
		return NewValidationError("question_id", "question does not belong to the attempted module", req.QuestionID)
	}

	answer := &models.StudentAnswer{
		AttemptID:  attemptID,
		QuestionID: req.QuestionID,
		Answer:     datatypes.JSON(req.Answer),
	}
	if err := s.repo.Attempt().SaveAnswer(ctx, answer); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	s.logger.Debug("Answer saved",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"student_id", studentID)
	return nil
}

// ===== COMPLETION =====

func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*models.AttemptResultResponse, error) {
	s.logger.Info("Submitting attempt", "attempt_id", attemptID, "student_id", studentID)

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "submit", "attempt belongs to another student")
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, attempt.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	status := models.AttemptCompleted
	if s.isExpired(attempt, module) {
		status = models.AttemptTimedOut
	}

	result, err := s.finalize(ctx, attempt, module, status)
	if err != nil {
		return nil, err
	}

	return s.buildResultResponse(result, module), nil
}

// HandleTimeout closes an attempt whose time limit ran out. Answers
// saved before the deadline still count.
func (s *attemptService) HandleTimeout(ctx context.Context, attemptID uint) error {
	s.logger.Info("Timing out attempt", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Status != models.AttemptInProgress {
		return nil
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, attempt.ModuleID)
	if err != nil {
		return fmt.Errorf("failed to get module: %w", err)
	}

	_, err = s.finalize(ctx, attempt, module, models.AttemptTimedOut)
	return err
}

// finalize closes the attempt, grades it, and fires progress and
// notification hooks. Hook failures are logged, not propagated: the
// grade is already committed at that point.
func (s *attemptService) finalize(ctx context.Context, attempt *models.ModuleAttempt, module *models.TrailModule, status models.AttemptStatus) (*AttemptGradingResult, error) {
	now := time.Now()
	attempt.Status = status
	attempt.CompletedAt = &now
	attempt.TimeSpent = int(now.Sub(attempt.StartedAt).Seconds())

	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to update attempt: %w", err)
	}

	result, err := s.grading.GradeAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to grade attempt: %w", err)
	}

	if err := s.progress.RecordQuizResult(ctx, attempt.StudentID, module, result); err != nil {
		s.logger.Error("Failed to record quiz result",
			"attempt_id", attempt.ID,
			"student_id", attempt.StudentID,
			"error", err)
	}
	if err := s.notifier.NotifyQuizGraded(ctx, attempt.StudentID, module, result); err != nil {
		s.logger.Warn("Failed to publish quiz graded notification",
			"attempt_id", attempt.ID,
			"error", err)
	}

	s.logger.Info("Attempt finalized",
		"attempt_id", attempt.ID,
		"status", status,
		"percentage", result.Percentage,
		"passed", result.Passed)

	return result, nil
}

// ===== LISTING =====

func (s *attemptService) ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*AttemptResponse, int64, error) {
	attempts, total, err := s.repo.Attempt().ListByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	responses := make([]*AttemptResponse, len(attempts))
	for i, a := range attempts {
		responses[i] = &AttemptResponse{ModuleAttempt: a}
	}
	return responses, total, nil
}

func (s *attemptService) ListByModule(ctx context.Context, moduleID uint, filters repositories.AttemptFilters, userID string) ([]*AttemptResponse, int64, error) {
	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrModuleNotFound
		}
		return nil, 0, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkStaffAccess(ctx, module, userID, "list_attempts"); err != nil {
		return nil, 0, err
	}

	attempts, total, err := s.repo.Attempt().ListByModule(ctx, moduleID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	responses := make([]*AttemptResponse, len(attempts))
	for i, a := range attempts {
		responses[i] = &AttemptResponse{ModuleAttempt: a}
	}
	return responses, total, nil
}

// ===== HELPERS =====

func (s *attemptService) isExpired(attempt *models.ModuleAttempt, module *models.TrailModule) bool {
	if module.Settings.TimeLimitMinutes == nil {
		return false
	}
	deadline := attempt.StartedAt.Add(time.Duration(*module.Settings.TimeLimitMinutes) * time.Minute)
	return time.Now().After(deadline)
}

func (s *attemptService) buildAttemptResponse(attempt *models.ModuleAttempt, module *models.TrailModule) *AttemptResponse {
	resp := &AttemptResponse{
		ModuleAttempt: attempt,
		CanSubmit:     attempt.Status == models.AttemptInProgress,
	}
	if attempt.Status == models.AttemptInProgress && module.Settings.TimeLimitMinutes != nil {
		deadline := attempt.StartedAt.Add(time.Duration(*module.Settings.TimeLimitMinutes) * time.Minute)
		remaining := int(time.Until(deadline).Seconds())
		if remaining < 0 {
			remaining = 0
			resp.CanSubmit = false
		}
		resp.TimeRemainingSeconds = &remaining
	}
	return resp
}

// buildResultResponse honors the module's ShowResults flag: the summary
// always goes back, the per-question breakdown only when the author
// allows it.
func (s *attemptService) buildResultResponse(result *AttemptGradingResult, module *models.TrailModule) *models.AttemptResultResponse {
	resp := &models.AttemptResultResponse{
		AttemptID:  result.AttemptID,
		Score:      result.TotalScore,
		MaxScore:   int(result.MaxScore),
		Percentage: result.Percentage,
		Passed:     result.Passed,
		Grade:      result.Grade,
	}
	if !module.Settings.ShowResults {
		return resp
	}

	resp.Answers = make([]models.AnswerOutcome, len(result.Questions))
	for i, q := range result.Questions {
		isCorrect := q.IsCorrect
		resp.Answers[i] = models.AnswerOutcome{
			QuestionID: q.QuestionID,
			Score:      q.Score,
			MaxScore:   int(q.MaxScore),
			IsCorrect:  &isCorrect,
			Feedback:   q.Feedback,
		}
	}
	return resp
}

// checkModuleUnlocked verifies every prerequisite module is completed.
// Quizzes count once passed, projects once approved; lessons carry no
// completion tracking and never block.
func (s *attemptService) checkModuleUnlocked(ctx context.Context, module *models.TrailModule, studentID string) error {
	for _, prereqID := range decodePrerequisites(module.Prerequisites) {
		prereq, err := s.repo.Trail().GetModuleByID(ctx, prereqID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return fmt.Errorf("failed to get prerequisite module: %w", err)
		}

		done, err := moduleCompleted(ctx, s.repo, prereq, studentID)
		if err != nil {
			return err
		}
		if !done {
			return ErrModuleLocked
		}
	}
	return nil
}

func moduleCompleted(ctx context.Context, repo repositories.Repository, module *models.TrailModule, studentID string) (bool, error) {
	switch module.Kind {
	case models.ModuleQuiz:
		best, err := repo.Attempt().GetBestScore(ctx, module.ID, studentID)
		if err != nil {
			return false, fmt.Errorf("failed to get best score: %w", err)
		}
		return best >= module.Settings.PassingScore, nil
	case models.ModuleProject:
		latest, err := repo.Project().GetLatestSubmission(ctx, module.ID, studentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to get latest submission: %w", err)
		}
		return latest.Status == models.SubmissionApproved, nil
	default:
		return true, nil
	}
}

func (s *attemptService) checkStaffAccess(ctx context.Context, module *models.TrailModule, userID, action string) error {
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
	return NewPermissionError(userID, module.ID, "module", action, "not owner or insufficient permissions")
}
