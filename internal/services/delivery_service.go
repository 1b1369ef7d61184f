package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/randomize"
	"github.com/studytrails/trails-service/internal/repositories"
)

// deliveryService assembles the quiz a student actually sees. The
// rendered order is a pure function of (student, content) and is
// recomputed on every request; it is never stored, so a module edit
// simply changes what the next render derives from.
type deliveryService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewDeliveryService(repo repositories.Repository, logger *slog.Logger) DeliveryService {
	return &deliveryService{
		repo:   repo,
		logger: logger,
	}
}

func (s *deliveryService) RenderModuleQuiz(ctx context.Context, moduleID uint, studentID string) (*models.RenderedQuiz, error) {
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

	if err := s.checkAccess(ctx, module, studentID); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListByModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	ordered := make([]models.QuizQuestion, len(questions))
	for i, q := range questions {
		ordered[i] = *q
	}
	if module.Settings.RandomizeQuestions {
		moduleSeed := randomize.ModuleSeed(studentID, strconv.FormatUint(uint64(moduleID), 10))
		ordered = randomize.Questions(ordered, moduleSeed)
	}

	rendered := make([]models.RenderedQuestion, 0, len(ordered))
	for _, q := range ordered {
		content := json.RawMessage(q.Content)
		if module.Settings.RandomizeOptions {
			seed := randomize.QuestionSeed(studentID, strconv.FormatUint(uint64(q.ID), 10))
			content, err = shuffleContent(q.Type, content, seed)
			if err != nil {
				return nil, fmt.Errorf("failed to shuffle question %d: %w", q.ID, err)
			}
		}

		stripped, err := stripContent(q.Type, content)
		if err != nil {
			return nil, fmt.Errorf("failed to strip question %d: %w", q.ID, err)
		}

		rendered = append(rendered, models.RenderedQuestion{
			ID:      q.ID,
			Type:    q.Type,
			Text:    q.Text,
			Points:  q.Points,
			Content: stripped,
		})
	}

	totalPoints, err := s.repo.Question().TotalPointsByModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum points: %w", err)
	}

	s.logger.Debug("Rendered module quiz",
		"module_id", moduleID,
		"student_id", studentID,
		"questions", len(rendered))

	return &models.RenderedQuiz{
		ModuleID:         moduleID,
		Title:            module.Title,
		TimeLimitMinutes: module.Settings.TimeLimitMinutes,
		TotalPoints:      totalPoints,
		Questions:        rendered,
	}, nil
}

// checkAccess lets enrolled students and trail staff through.
func (s *deliveryService) checkAccess(ctx context.Context, module *models.TrailModule, userID string) error {
	trail, err := s.repo.Trail().GetByID(ctx, module.TrailID)
	if err != nil {
		return fmt.Errorf("failed to get trail: %w", err)
	}
	if trail.CreatedBy == userID {
		return nil
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err == nil && user.Role == models.RoleAdmin {
		return nil
	}

	if _, err := s.repo.Trail().GetEnrollment(ctx, module.TrailID, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}
	return nil
}

// shuffleContent applies the per-type deterministic shuffle. All six
// adapters share the seed contract: same seed, same permutation.
func shuffleContent(qType models.QuestionType, raw json.RawMessage, seed uint32) (json.RawMessage, error) {
	switch qType {
	case models.SingleChoice:
		var c models.SingleChoiceContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(randomize.SingleChoice(c, seed))
	case models.TrueFalse:
		var c models.TrueFalseContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(randomize.TrueFalse(c, seed))
	case models.Matching:
		var c models.MatchingContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(randomize.Matching(c, seed))
	case models.Ordering:
		var c models.OrderingContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(randomize.Ordering(c, seed))
	case models.FillBlank:
		var c models.FillBlankContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(randomize.FillBlank(c, seed))
	case models.CaseAnalysis:
		var c models.CaseAnalysisContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(randomize.CaseAnalysis(c, seed))
	default:
		return nil, fmt.Errorf("unknown question type: %s", qType)
	}
}

// Student-facing content schemas. Everything that would give away the
// answer is absent rather than zeroed, so a payload diff cannot leak it.
type renderedSingleChoice struct {
	Options []string `json:"options"`
}

type renderedTrueFalse struct {
	Statements []renderedStatement `json:"statements"`
}

type renderedStatement struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type renderedMatching struct {
	LeftItems  []models.MatchItem `json:"left_items"`
	RightItems []models.MatchItem `json:"right_items"`
}

type renderedOrdering struct {
	Items []models.OrderItem `json:"items"`
}

type renderedFillBlank struct {
	Template string          `json:"template"`
	Blanks   []renderedBlank `json:"blanks"`
}

type renderedBlank struct {
	ID      string   `json:"id"`
	Options []string `json:"options"`
}

type renderedCaseAnalysis struct {
	Scenario string              `json:"scenario"`
	Options  []models.CaseOption `json:"options"`
}

func stripContent(qType models.QuestionType, raw json.RawMessage) (json.RawMessage, error) {
	switch qType {
	case models.SingleChoice:
		var c models.SingleChoiceContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(renderedSingleChoice{Options: c.Options})
	case models.TrueFalse:
		var c models.TrueFalseContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		statements := make([]renderedStatement, len(c.Statements))
		for i, st := range c.Statements {
			statements[i] = renderedStatement{ID: st.ID, Text: st.Text}
		}
		return json.Marshal(renderedTrueFalse{Statements: statements})
	case models.Matching:
		var c models.MatchingContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(renderedMatching{LeftItems: c.LeftItems, RightItems: c.RightItems})
	case models.Ordering:
		var c models.OrderingContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(renderedOrdering{Items: c.Items})
	case models.FillBlank:
		var c models.FillBlankContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		blanks := make([]renderedBlank, len(c.Blanks))
		for i, b := range c.Blanks {
			blanks[i] = renderedBlank{ID: b.ID, Options: b.Options}
		}
		return json.Marshal(renderedFillBlank{Template: c.Template, Blanks: blanks})
	case models.CaseAnalysis:
		var c models.CaseAnalysisContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return json.Marshal(renderedCaseAnalysis{Scenario: c.Scenario, Options: c.Options})
	default:
		return nil, fmt.Errorf("unknown question type: %s", qType)
	}
}
