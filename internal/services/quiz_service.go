package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *quizService) CreateQuestion(ctx context.Context, moduleID uint, req *CreateQuestionRequest, userID string) (*models.QuizQuestion, error) {
	s.logger.Info("Creating question", "module_id", moduleID, "type", req.Type, "user_id", userID)

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
	if module.Kind != models.ModuleQuiz {
		return nil, ErrNotAQuizModule
	}

	if err := s.checkModuleEditPermission(ctx, module, userID, "create_question"); err != nil {
		return nil, err
	}

	// Content is validated against the schema for its question type.
	// Malformed content is rejected here, never inside the renderer.
	if errs := s.validator.GetBusinessValidator().ValidateQuestionContent(req.Type, req.Content); errs.HasErrors() {
		return nil, errs
	}

	question := &models.QuizQuestion{
		ModuleID:    moduleID,
		Type:        req.Type,
		Text:        req.Text,
		Points:      req.Points,
		Position:    req.Position,
		Content:     datatypes.JSON(req.Content),
		Explanation: req.Explanation,
		CreatedBy:   userID,
	}
	if question.Points == 0 {
		question.Points = 10
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created successfully", "question_id", question.ID, "module_id", moduleID)
	return question, nil
}

func (s *quizService) GetQuestion(ctx context.Context, id uint, userID string) (*models.QuizQuestion, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	// Full question content (including answers) is staff-only.
	module, err := s.repo.Trail().GetModuleByID(ctx, question.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkModuleEditPermission(ctx, module, userID, "read_question"); err != nil {
		return nil, err
	}

	return question, nil
}

func (s *quizService) UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.QuizQuestion, error) {
	s.logger.Info("Updating question", "question_id", id, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, question.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkModuleEditPermission(ctx, module, userID, "update_question"); err != nil {
		return nil, err
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Position != nil {
		question.Position = *req.Position
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}
	if req.Content != nil {
		if errs := s.validator.GetBusinessValidator().ValidateQuestionContent(question.Type, req.Content); errs.HasErrors() {
			return nil, errs
		}
		question.Content = datatypes.JSON(req.Content)
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated successfully", "question_id", id)
	return question, nil
}

func (s *quizService) DeleteQuestion(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	module, err := s.repo.Trail().GetModuleByID(ctx, question.ModuleID)
	if err != nil {
		return fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkModuleEditPermission(ctx, module, userID, "delete_question"); err != nil {
		return err
	}

	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted successfully", "question_id", id)
	return nil
}

func (s *quizService) ListQuestions(ctx context.Context, moduleID uint, userID string) ([]*models.QuizQuestion, error) {
	module, err := s.repo.Trail().GetModuleByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	if err := s.checkModuleEditPermission(ctx, module, userID, "list_questions"); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListByModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (s *quizService) checkModuleEditPermission(ctx context.Context, module *models.TrailModule, userID, action string) error {
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
