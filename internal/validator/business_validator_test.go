package validator

import (
	"encoding/json"
	"testing"

	"github.com/studytrails/trails-service/internal/models"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

func TestValidateQuestionContent(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		qType   models.QuestionType
		content any
		wantErr bool
	}{
		{
			name:  "valid single choice",
			qType: models.SingleChoice,
			content: models.SingleChoiceContent{
				Options:       []string{"a", "b", "c"},
				CorrectAnswer: 1,
			},
		},
		{
			name:  "single choice index out of range",
			qType: models.SingleChoice,
			content: models.SingleChoiceContent{
				Options:       []string{"a", "b"},
				CorrectAnswer: 5,
			},
			wantErr: true,
		},
		{
			name:  "valid matching",
			qType: models.Matching,
			content: models.MatchingContent{
				LeftItems:    []models.MatchItem{{ID: "l1", Text: "Go"}, {ID: "l2", Text: "SQL"}},
				RightItems:   []models.MatchItem{{ID: "r1", Text: "code"}, {ID: "r2", Text: "query"}},
				CorrectPairs: []models.MatchPair{{LeftID: "l1", RightID: "r1"}},
			},
		},
		{
			name:  "matching pair references unknown id",
			qType: models.Matching,
			content: models.MatchingContent{
				LeftItems:    []models.MatchItem{{ID: "l1", Text: "Go"}, {ID: "l2", Text: "SQL"}},
				RightItems:   []models.MatchItem{{ID: "r1", Text: "code"}, {ID: "r2", Text: "query"}},
				CorrectPairs: []models.MatchPair{{LeftID: "l1", RightID: "nope"}},
			},
			wantErr: true,
		},
		{
			name:  "ordering answer key must cover all items",
			qType: models.Ordering,
			content: models.OrderingContent{
				Items:        []models.OrderItem{{ID: "s1", Text: "one"}, {ID: "s2", Text: "two"}},
				CorrectOrder: []string{"s1"},
			},
			wantErr: true,
		},
		{
			name:  "valid ordering",
			qType: models.Ordering,
			content: models.OrderingContent{
				Items:        []models.OrderItem{{ID: "s1", Text: "one"}, {ID: "s2", Text: "two"}},
				CorrectOrder: []string{"s2", "s1"},
			},
		},
		{
			name:  "fill blank answer outside options",
			qType: models.FillBlank,
			content: models.FillBlankContent{
				Template: "pick {b1}",
				Blanks:   []models.Blank{{ID: "b1", Options: []string{"x", "y"}, Answer: "z"}},
			},
			wantErr: true,
		},
		{
			name:  "fill blank missing placeholder",
			qType: models.FillBlank,
			content: models.FillBlankContent{
				Template: "no placeholders here",
				Blanks:   []models.Blank{{ID: "b1", Options: []string{"x", "y"}, Answer: "x"}},
			},
			wantErr: true,
		},
		{
			name:  "valid fill blank",
			qType: models.FillBlank,
			content: models.FillBlankContent{
				Template: "choose {b1} then {b2}",
				Blanks: []models.Blank{
					{ID: "b1", Options: []string{"x", "y"}, Answer: "x"},
					{ID: "b2", Options: []string{"p", "q"}, Answer: "q"},
				},
			},
		},
		{
			name:  "case analysis unknown correct id",
			qType: models.CaseAnalysis,
			content: models.CaseAnalysisContent{
				Scenario:   "service is slow",
				Options:    []models.CaseOption{{ID: "c1", Text: "add cache"}, {ID: "c2", Text: "add index"}},
				CorrectIDs: []string{"c9"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateQuestionContent(tt.qType, mustJSON(t, tt.content))
			if tt.wantErr && !errs.HasErrors() {
				t.Error("expected validation errors, got none")
			}
			if !tt.wantErr && errs.HasErrors() {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateQuestionContentMalformedJSON(t *testing.T) {
	bv := NewBusinessValidator()
	errs := bv.ValidateQuestionContent(models.SingleChoice, json.RawMessage(`{not json`))
	if !errs.HasErrors() {
		t.Error("malformed payload accepted")
	}
}

func TestValidateAttemptStart(t *testing.T) {
	bv := NewBusinessValidator()

	if errs := bv.ValidateAttemptStart(models.TrailPublished, models.ModuleQuiz, 0, 3); errs.HasErrors() {
		t.Errorf("valid start rejected: %v", errs)
	}
	if errs := bv.ValidateAttemptStart(models.TrailDraft, models.ModuleQuiz, 0, 3); !errs.HasErrors() {
		t.Error("draft trail accepted")
	}
	if errs := bv.ValidateAttemptStart(models.TrailPublished, models.ModuleLesson, 0, 3); !errs.HasErrors() {
		t.Error("lesson module accepted for quiz attempt")
	}
	if errs := bv.ValidateAttemptStart(models.TrailPublished, models.ModuleQuiz, 3, 3); !errs.HasErrors() {
		t.Error("exhausted attempts accepted")
	}
}

func TestValidateTrailStatusTransition(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name     string
		current  models.TrailStatus
		next     models.TrailStatus
		modules  int
		enrolled int
		wantErr  bool
	}{
		{"publish draft", models.TrailDraft, models.TrailPublished, 3, 0, false},
		{"publish empty trail", models.TrailDraft, models.TrailPublished, 0, 0, true},
		{"archive published", models.TrailPublished, models.TrailArchived, 3, 10, false},
		{"unpublish with students", models.TrailPublished, models.TrailDraft, 3, 5, true},
		{"unpublish without students", models.TrailPublished, models.TrailDraft, 3, 0, false},
		{"revive archived", models.TrailArchived, models.TrailPublished, 3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateTrailStatusTransition(tt.current, tt.next, tt.modules, tt.enrolled)
			if tt.wantErr != errs.HasErrors() {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, errs)
			}
		})
	}
}
