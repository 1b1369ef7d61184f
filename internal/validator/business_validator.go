package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/studytrails/trails-service/internal/models"
)

// BusinessValidator handles rules that struct tags cannot express.
type BusinessValidator struct {
	validate *playground.Validate
}

func NewBusinessValidator() *BusinessValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	bv := &BusinessValidator{validate: v}
	bv.registerBusinessRules()
	return bv
}

func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuestionContent checks the JSONB content payload against the
// schema for its question type. Correctness metadata must be coherent
// before a question is saved; the shuffle adapters downstream trust it
// blindly and degrade to sentinels otherwise.
func (bv *BusinessValidator) ValidateQuestionContent(qType models.QuestionType, raw json.RawMessage) ValidationErrors {
	switch qType {
	case models.SingleChoice:
		var c models.SingleChoiceContent
		if errs := bv.unmarshalContent(raw, &c); errs != nil {
			return errs
		}
		if c.CorrectAnswer < 0 || c.CorrectAnswer >= len(c.Options) {
			return ValidationErrors{{
				Field:   "content.correct_answer",
				Message: fmt.Sprintf("index %d outside option range [0, %d)", c.CorrectAnswer, len(c.Options)),
				Value:   c.CorrectAnswer,
				Rule:    "business_logic",
			}}
		}
		return nil

	case models.TrueFalse:
		var c models.TrueFalseContent
		if errs := bv.unmarshalContent(raw, &c); errs != nil {
			return errs
		}
		return requireUniqueIDs("content.statements", tfIDs(c.Statements))

	case models.Matching:
		var c models.MatchingContent
		if errs := bv.unmarshalContent(raw, &c); errs != nil {
			return errs
		}
		return bv.validateMatching(c)

	case models.Ordering:
		var c models.OrderingContent
		if errs := bv.unmarshalContent(raw, &c); errs != nil {
			return errs
		}
		return bv.validateOrdering(c)

	case models.FillBlank:
		var c models.FillBlankContent
		if errs := bv.unmarshalContent(raw, &c); errs != nil {
			return errs
		}
		return bv.validateFillBlank(c)

	case models.CaseAnalysis:
		var c models.CaseAnalysisContent
		if errs := bv.unmarshalContent(raw, &c); errs != nil {
			return errs
		}
		return bv.validateCaseAnalysis(c)

	default:
		return ValidationErrors{{
			Field:   "type",
			Message: fmt.Sprintf("unknown question type %q", qType),
			Value:   qType,
			Rule:    "question_type",
		}}
	}
}

func (bv *BusinessValidator) unmarshalContent(raw json.RawMessage, dest interface{}) ValidationErrors {
	if err := json.Unmarshal(raw, dest); err != nil {
		return ValidationErrors{{
			Field:   "content",
			Message: "malformed content payload",
			Rule:    "json",
		}}
	}
	if errs := bv.Validate(dest); errs != nil {
		return errs
	}
	return nil
}

func (bv *BusinessValidator) validateMatching(c models.MatchingContent) ValidationErrors {
	var errs ValidationErrors

	left := map[string]bool{}
	for _, it := range c.LeftItems {
		left[it.ID] = true
	}
	right := map[string]bool{}
	for _, it := range c.RightItems {
		right[it.ID] = true
	}
	if len(left) != len(c.LeftItems) || len(right) != len(c.RightItems) {
		errs = append(errs, ValidationError{
			Field:   "content.items",
			Message: "item ids must be unique within their side",
			Rule:    "business_logic",
		})
	}

	for i, p := range c.CorrectPairs {
		if !left[p.LeftID] || !right[p.RightID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.correct_pairs[%d]", i),
				Message: "pair references an unknown item id",
				Value:   p,
				Rule:    "business_logic",
			})
		}
	}
	return errs
}

func (bv *BusinessValidator) validateOrdering(c models.OrderingContent) ValidationErrors {
	ids := map[string]bool{}
	for _, it := range c.Items {
		ids[it.ID] = true
	}
	if len(ids) != len(c.Items) {
		return ValidationErrors{{
			Field:   "content.items",
			Message: "item ids must be unique",
			Rule:    "business_logic",
		}}
	}
	if len(c.CorrectOrder) != len(c.Items) {
		return ValidationErrors{{
			Field:   "content.correct_order",
			Message: "must list every item id exactly once",
			Rule:    "business_logic",
		}}
	}
	for i, id := range c.CorrectOrder {
		if !ids[id] {
			return ValidationErrors{{
				Field:   fmt.Sprintf("content.correct_order[%d]", i),
				Message: fmt.Sprintf("unknown item id %q", id),
				Value:   id,
				Rule:    "business_logic",
			}}
		}
	}
	return nil
}

func (bv *BusinessValidator) validateFillBlank(c models.FillBlankContent) ValidationErrors {
	var errs ValidationErrors

	seen := map[string]bool{}
	for i, b := range c.Blanks {
		if seen[b.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.blanks[%d]", i),
				Message: fmt.Sprintf("duplicate blank id %q", b.ID),
				Value:   b.ID,
				Rule:    "business_logic",
			})
		}
		seen[b.ID] = true

		if !strings.Contains(c.Template, "{"+b.ID+"}") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.blanks[%d]", i),
				Message: fmt.Sprintf("template has no placeholder for blank %q", b.ID),
				Value:   b.ID,
				Rule:    "business_logic",
			})
		}

		found := false
		for _, opt := range b.Options {
			if opt == b.Answer {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.blanks[%d].answer", i),
				Message: "answer must be one of the blank's options",
				Value:   b.Answer,
				Rule:    "business_logic",
			})
		}
	}
	return errs
}

func (bv *BusinessValidator) validateCaseAnalysis(c models.CaseAnalysisContent) ValidationErrors {
	ids := map[string]bool{}
	for _, o := range c.Options {
		ids[o.ID] = true
	}
	var errs ValidationErrors
	for i, id := range c.CorrectIDs {
		if !ids[id] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.correct_ids[%d]", i),
				Message: fmt.Sprintf("unknown option id %q", id),
				Value:   id,
				Rule:    "business_logic",
			})
		}
	}
	return errs
}

// ValidateAttemptStart checks the conditions for opening a new quiz
// attempt.
func (bv *BusinessValidator) ValidateAttemptStart(trailStatus models.TrailStatus, moduleKind models.ModuleKind, attemptCount, maxAttempts int) ValidationErrors {
	var errs ValidationErrors

	if trailStatus != models.TrailPublished {
		errs = append(errs, ValidationError{
			Field:   "trail_status",
			Message: "trail is not published",
			Value:   trailStatus,
			Rule:    "business_logic",
		})
	}
	if moduleKind != models.ModuleQuiz {
		errs = append(errs, ValidationError{
			Field:   "module_kind",
			Message: "module is not a quiz",
			Value:   moduleKind,
			Rule:    "business_logic",
		})
	}
	if attemptCount >= maxAttempts {
		errs = append(errs, ValidationError{
			Field:   "attempts",
			Message: "maximum attempts exceeded",
			Value:   attemptCount,
			Rule:    "business_logic",
		})
	}
	return errs
}

// ValidateTrailStatusTransition enforces the trail lifecycle:
// draft -> published -> archived, with published able to fall back to
// draft while nobody is enrolled.
func (bv *BusinessValidator) ValidateTrailStatusTransition(current, next models.TrailStatus, moduleCount int, enrolledCount int) ValidationErrors {
	allowed := map[models.TrailStatus][]models.TrailStatus{
		models.TrailDraft:     {models.TrailPublished, models.TrailArchived},
		models.TrailPublished: {models.TrailDraft, models.TrailArchived},
		models.TrailArchived:  {},
	}

	var errs ValidationErrors
	ok := false
	for _, s := range allowed[current] {
		if s == next {
			ok = true
			break
		}
	}
	if !ok {
		errs = append(errs, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
			Value:   next,
			Rule:    "status_transition",
		})
	}

	if next == models.TrailPublished && moduleCount == 0 {
		errs = append(errs, ValidationError{
			Field:   "modules",
			Message: "trail must have at least one module before publishing",
			Value:   moduleCount,
			Rule:    "business_logic",
		})
	}
	if current == models.TrailPublished && next == models.TrailDraft && enrolledCount > 0 {
		errs = append(errs, ValidationError{
			Field:   "status",
			Message: "cannot unpublish a trail with enrolled students",
			Value:   enrolledCount,
			Rule:    "business_logic",
		})
	}
	return errs
}

func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("module_kind", func(fl playground.FieldLevel) bool {
		switch models.ModuleKind(fl.Field().String()) {
		case models.ModuleLesson, models.ModuleQuiz, models.ModuleProject:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("question_type", func(fl playground.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.SingleChoice, models.TrueFalse, models.Matching,
			models.Ordering, models.FillBlank, models.CaseAnalysis:
			return true
		}
		return false
	})

	bv.validate.RegisterValidation("trail_title", func(fl playground.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 255
	})
}

func tfIDs(statements []models.TFStatement) []string {
	ids := make([]string, len(statements))
	for i, s := range statements {
		ids[i] = s.ID
	}
	return ids
}

func requireUniqueIDs(field string, ids []string) ValidationErrors {
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			return ValidationErrors{{
				Field:   field,
				Message: fmt.Sprintf("duplicate id %q", id),
				Value:   id,
				Rule:    "business_logic",
			}}
		}
		seen[id] = true
	}
	return nil
}
