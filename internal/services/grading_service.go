package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/randomize"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/validator"
)

type gradingService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewGradingService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== ATTEMPT GRADING =====

// GradeAttempt scores every question of the attempt's module, including
// the ones the student never answered, and writes the final result back
// in one transaction.
func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint) (*AttemptGradingResult, error) {
	s.logger.Info("Grading attempt", "attempt_id", attemptID)

	var result *AttemptGradingResult
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := tx.Attempt().GetByID(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}

		module, err := tx.Trail().GetModuleByID(ctx, attempt.ModuleID)
		if err != nil {
			return fmt.Errorf("failed to get module: %w", err)
		}

		questions, err := tx.Question().ListByModule(ctx, attempt.ModuleID)
		if err != nil {
			return fmt.Errorf("failed to list questions: %w", err)
		}

		answers, err := tx.Attempt().GetAnswers(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to get answers: %w", err)
		}
		answerByQuestion := make(map[uint]*models.StudentAnswer, len(answers))
		for _, a := range answers {
			answerByQuestion[a.QuestionID] = a
		}

		questionResults := make([]AnswerGradingResult, 0, len(questions))
		totalScore := 0.0
		maxTotalScore := 0.0

		for _, question := range questions {
			maxScore := float64(question.Points)
			maxTotalScore += maxScore

			answer, answered := answerByQuestion[question.ID]
			if !answered || len(answer.Answer) == 0 {
				questionResults = append(questionResults, AnswerGradingResult{
					QuestionID: question.ID,
					Score:      0,
					MaxScore:   maxScore,
					IsCorrect:  false,
				})
				if answered {
					if err := s.writeGrade(ctx, tx, answer, question, 0, false); err != nil {
						return err
					}
				}
				continue
			}

			var fraction float64
			var isCorrect bool
			content, err := contentForGrading(question, module.Settings, attempt.StudentID)
			if err == nil {
				fraction, isCorrect, err = s.CalculateScore(question.Type,
					content,
					json.RawMessage(answer.Answer))
			}
			if err != nil {
				s.logger.Warn("Failed to calculate score, marking as 0",
					"attempt_id", attemptID,
					"question_id", question.ID,
					"question_type", question.Type,
					"error", err)
				fraction, isCorrect = 0, false
			}

			score := fraction * maxScore
			totalScore += score

			feedback := s.buildFeedback(question, isCorrect)
			if err := s.writeGrade(ctx, tx, answer, question, score, isCorrect); err != nil {
				return err
			}

			questionResults = append(questionResults, AnswerGradingResult{
				QuestionID:    question.ID,
				Score:         score,
				MaxScore:      maxScore,
				IsCorrect:     isCorrect,
				PartialCredit: fraction > 0 && fraction < 1.0,
				Feedback:      feedback,
			})
		}

		percentage := 0.0
		if maxTotalScore > 0 {
			percentage = (totalScore / maxTotalScore) * 100
		}
		passed := percentage >= module.Settings.PassingScore

		attempt.Score = totalScore
		attempt.MaxScore = int(maxTotalScore)
		attempt.Percentage = percentage
		attempt.Passed = passed
		attempt.IsGraded = true
		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt grade: %w", err)
		}

		result = &AttemptGradingResult{
			AttemptID:  attemptID,
			TotalScore: totalScore,
			MaxScore:   maxTotalScore,
			Percentage: percentage,
			Passed:     passed,
			Grade:      letterGrade(percentage),
			Questions:  questionResults,
			GradedAt:   time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt graded successfully",
		"attempt_id", attemptID,
		"total_score", result.TotalScore,
		"percentage", result.Percentage,
		"passed", result.Passed)

	return result, nil
}

func (s *gradingService) writeGrade(ctx context.Context, tx repositories.Repository, answer *models.StudentAnswer, question *models.QuizQuestion, score float64, isCorrect bool) error {
	answer.Score = score
	answer.MaxScore = question.Points
	answer.IsCorrect = &isCorrect
	answer.Feedback = s.buildFeedback(question, isCorrect)

	if err := tx.Attempt().SaveAnswer(ctx, answer); err != nil {
		return fmt.Errorf("failed to save graded answer %d: %w", answer.ID, err)
	}
	return nil
}

// buildFeedback surfaces the author's explanation on a wrong answer.
// Correct answers get no feedback text.
func (s *gradingService) buildFeedback(question *models.QuizQuestion, isCorrect bool) *string {
	if isCorrect || question.Explanation == nil || *question.Explanation == "" {
		return nil
	}
	return question.Explanation
}

// ===== QUESTION TYPE SPECIFIC SCORING =====

// CalculateScore compares an answer payload against the stored content
// for its question type. Scoring is keyed by item ids wherever the
// content has ids, so it is independent of any delivery-time shuffle.
// The returned fraction is in 0..1.
func (s *gradingService) CalculateScore(questionType models.QuestionType, content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	if len(answer) == 0 {
		return 0, false, nil
	}

	switch questionType {
	case models.SingleChoice:
		return s.gradeSingleChoice(content, answer)
	case models.TrueFalse:
		return s.gradeTrueFalse(content, answer)
	case models.Matching:
		return s.gradeMatching(content, answer)
	case models.Ordering:
		return s.gradeOrdering(content, answer)
	case models.FillBlank:
		return s.gradeFillBlank(content, answer)
	case models.CaseAnalysis:
		return s.gradeCaseAnalysis(content, answer)
	default:
		return 0, false, fmt.Errorf("unsupported question type: %s", questionType)
	}
}

// contentForGrading returns the question content in the option order
// the student was shown. Single choice is the only type graded by
// position, so only it needs the per-student shuffle replayed; every
// other type is id-keyed and grades the same in any order.
func contentForGrading(question *models.QuizQuestion, settings models.ModuleSettings, studentID string) (json.RawMessage, error) {
	content := json.RawMessage(question.Content)
	if question.Type != models.SingleChoice || !settings.RandomizeOptions {
		return content, nil
	}
	seed := randomize.QuestionSeed(studentID, strconv.FormatUint(uint64(question.ID), 10))
	return shuffleContent(question.Type, content, seed)
}

// Single choice is all-or-nothing. SelectedIndex refers to the option
// order the student was shown; when options are randomized the caller
// replays the same shuffle first, so CorrectAnswer here is already the
// remapped index.
func (s *gradingService) gradeSingleChoice(content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	var c models.SingleChoiceContent
	if err := json.Unmarshal(content, &c); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal question content: %w", err)
	}
	var a models.SingleChoiceAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	if a.SelectedIndex == c.CorrectAnswer {
		return 1.0, true, nil
	}
	return 0, false, nil
}

func (s *gradingService) gradeTrueFalse(content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	var c models.TrueFalseContent
	if err := json.Unmarshal(content, &c); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal question content: %w", err)
	}
	var a models.TrueFalseAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	if len(c.Statements) == 0 {
		return 0, false, nil
	}

	correct := 0
	for _, st := range c.Statements {
		if choice, ok := a.Choices[st.ID]; ok && choice == st.IsTrue {
			correct++
		}
	}

	fraction := float64(correct) / float64(len(c.Statements))
	return fraction, correct == len(c.Statements), nil
}

func (s *gradingService) gradeMatching(content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	var c models.MatchingContent
	if err := json.Unmarshal(content, &c); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal question content: %w", err)
	}
	var a models.MatchingAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	if len(c.CorrectPairs) == 0 {
		return 0, false, nil
	}

	correct := 0
	for _, pair := range c.CorrectPairs {
		if right, ok := a.Pairs[pair.LeftID]; ok && right == pair.RightID {
			correct++
		}
	}

	fraction := float64(correct) / float64(len(c.CorrectPairs))
	return fraction, correct == len(c.CorrectPairs), nil
}

// Ordering gives credit per position: item ids in the right slot count,
// everything else does not.
func (s *gradingService) gradeOrdering(content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	var c models.OrderingContent
	if err := json.Unmarshal(content, &c); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal question content: %w", err)
	}
	var a models.OrderingAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	if len(c.CorrectOrder) == 0 {
		return 0, false, nil
	}

	correct := 0
	for i, id := range a.Order {
		if i < len(c.CorrectOrder) && id == c.CorrectOrder[i] {
			correct++
		}
	}

	fraction := float64(correct) / float64(len(c.CorrectOrder))
	return fraction, correct == len(c.CorrectOrder) && len(a.Order) == len(c.CorrectOrder), nil
}

func (s *gradingService) gradeFillBlank(content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	var c models.FillBlankContent
	if err := json.Unmarshal(content, &c); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal question content: %w", err)
	}
	var a models.FillBlankAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	if len(c.Blanks) == 0 {
		return 0, false, nil
	}

	correct := 0
	for _, blank := range c.Blanks {
		if value, ok := a.Values[blank.ID]; ok && value == blank.Answer {
			correct++
		}
	}

	fraction := float64(correct) / float64(len(c.Blanks))
	return fraction, correct == len(c.Blanks), nil
}

// Case analysis penalizes wrong selections: score is (correct picks -
// wrong picks) / expected, floored at zero.
func (s *gradingService) gradeCaseAnalysis(content json.RawMessage, answer json.RawMessage) (float64, bool, error) {
	var c models.CaseAnalysisContent
	if err := json.Unmarshal(content, &c); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal question content: %w", err)
	}
	var a models.CaseAnalysisAnswer
	if err := json.Unmarshal(answer, &a); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal student answer: %w", err)
	}

	if len(c.CorrectIDs) == 0 {
		return 0, false, nil
	}

	correctSet := make(map[string]bool, len(c.CorrectIDs))
	for _, id := range c.CorrectIDs {
		correctSet[id] = true
	}

	correct := 0
	wrong := 0
	for _, id := range a.SelectedIDs {
		if correctSet[id] {
			correct++
		} else {
			wrong++
		}
	}

	fraction := float64(correct-wrong) / float64(len(c.CorrectIDs))
	if fraction < 0 {
		fraction = 0
	}
	return fraction, correct == len(c.CorrectIDs) && wrong == 0, nil
}

// ===== GRADE SCALE =====

func letterGrade(percentage float64) string {
	switch {
	case percentage >= 97:
		return "A+"
	case percentage >= 93:
		return "A"
	case percentage >= 90:
		return "A-"
	case percentage >= 87:
		return "B+"
	case percentage >= 83:
		return "B"
	case percentage >= 80:
		return "B-"
	case percentage >= 77:
		return "C+"
	case percentage >= 73:
		return "C"
	case percentage >= 70:
		return "C-"
	case percentage >= 67:
		return "D+"
	case percentage >= 63:
		return "D"
	case percentage >= 60:
		return "D-"
	default:
		return "F"
	}
}
