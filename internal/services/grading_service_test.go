package services

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"testing"

	"gorm.io/datatypes"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/randomize"
)

func newTestGradingService() *gradingService {
	return &gradingService{
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func TestCalculateScore_SingleChoice(t *testing.T) {
	s := newTestGradingService()
	content := json.RawMessage(`{"options":["a","b","c","d"],"correct_answer":2}`)

	tests := []struct {
		name        string
		answer      string
		wantScore   float64
		wantCorrect bool
	}{
		{name: "correct index", answer: `{"selected_index":2}`, wantScore: 1, wantCorrect: true},
		{name: "wrong index", answer: `{"selected_index":0}`, wantScore: 0, wantCorrect: false},
		{name: "nothing selected", answer: `{"selected_index":-1}`, wantScore: 0, wantCorrect: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, correct, err := s.CalculateScore(models.SingleChoice, content, json.RawMessage(tt.answer))
			if err != nil {
				t.Fatalf("CalculateScore() error = %v", err)
			}
			if score != tt.wantScore || correct != tt.wantCorrect {
				t.Errorf("CalculateScore() = (%v, %v), want (%v, %v)", score, correct, tt.wantScore, tt.wantCorrect)
			}
		})
	}
}

func TestGradeSingleChoice_ShuffledDeliveryRoundTrip(t *testing.T) {
	s := newTestGradingService()
	original := models.SingleChoiceContent{
		Options:       []string{"alpha", "beta", "gamma", "delta"},
		CorrectAnswer: 2,
	}
	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	question := &models.QuizQuestion{ID: 41, Type: models.SingleChoice, Content: datatypes.JSON(raw)}
	settings := models.ModuleSettings{RandomizeOptions: true}

	for _, studentID := range []string{"student-1", "student-2", "student-3"} {
		// The order the student saw: delivery shuffles with the same
		// per-student seed before stripping the answer key.
		shown := randomize.SingleChoice(original, randomize.QuestionSeed(studentID, "41"))
		picked := -1
		for i, opt := range shown.Options {
			if opt == "gamma" {
				picked = i
				break
			}
		}
		if picked < 0 {
			t.Fatalf("student %s: correct option missing from shuffled list", studentID)
		}

		content, err := contentForGrading(question, settings, studentID)
		if err != nil {
			t.Fatalf("student %s: contentForGrading() error = %v", studentID, err)
		}

		answer, _ := json.Marshal(models.SingleChoiceAnswer{SelectedIndex: picked})
		score, correct, err := s.CalculateScore(models.SingleChoice, content, answer)
		if err != nil {
			t.Fatalf("student %s: CalculateScore() error = %v", studentID, err)
		}
		if score != 1 || !correct {
			t.Errorf("student %s picked the shown correct option at %d, graded (%v, %v), want (1, true)",
				studentID, picked, score, correct)
		}

		wrong, _ := json.Marshal(models.SingleChoiceAnswer{SelectedIndex: (picked + 1) % len(shown.Options)})
		score, correct, err = s.CalculateScore(models.SingleChoice, content, wrong)
		if err != nil {
			t.Fatalf("student %s: CalculateScore() error = %v", studentID, err)
		}
		if score != 0 || correct {
			t.Errorf("student %s wrong pick graded (%v, %v), want (0, false)", studentID, score, correct)
		}
	}

	// Randomization off: the submitted index refers to the stored order
	// and the content passes through untouched.
	content, err := contentForGrading(question, models.ModuleSettings{}, "student-1")
	if err != nil {
		t.Fatalf("contentForGrading() error = %v", err)
	}
	answer, _ := json.Marshal(models.SingleChoiceAnswer{SelectedIndex: 2})
	score, correct, err := s.CalculateScore(models.SingleChoice, content, answer)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if score != 1 || !correct {
		t.Errorf("unshuffled grade = (%v, %v), want (1, true)", score, correct)
	}
}

func TestCalculateScore_TrueFalse_PartialCredit(t *testing.T) {
	s := newTestGradingService()
	content := json.RawMessage(`{"statements":[
		{"id":"s1","text":"one","is_true":true},
		{"id":"s2","text":"two","is_true":false},
		{"id":"s3","text":"three","is_true":true},
		{"id":"s4","text":"four","is_true":false}]}`)

	answer := json.RawMessage(`{"choices":{"s1":true,"s2":true,"s3":true,"s4":false}}`)
	score, correct, err := s.CalculateScore(models.TrueFalse, content, answer)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if correct {
		t.Error("expected not fully correct with one wrong choice")
	}
	if score != 0.75 {
		t.Errorf("score = %v, want 0.75", score)
	}

	// Statements without a choice count as wrong, not as errors.
	partial := json.RawMessage(`{"choices":{"s1":true}}`)
	score, _, err = s.CalculateScore(models.TrueFalse, content, partial)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if score != 0.25 {
		t.Errorf("score = %v, want 0.25", score)
	}
}

func TestCalculateScore_Matching(t *testing.T) {
	s := newTestGradingService()
	content := json.RawMessage(`{
		"left_items":[{"id":"l1","text":"TCP"},{"id":"l2","text":"UDP"}],
		"right_items":[{"id":"r1","text":"reliable"},{"id":"r2","text":"datagram"}],
		"correct_pairs":[{"left_id":"l1","right_id":"r1"},{"left_id":"l2","right_id":"r2"}]}`)

	full := json.RawMessage(`{"pairs":{"l1":"r1","l2":"r2"}}`)
	score, correct, err := s.CalculateScore(models.Matching, content, full)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if score != 1 || !correct {
		t.Errorf("CalculateScore() = (%v, %v), want (1, true)", score, correct)
	}

	swapped := json.RawMessage(`{"pairs":{"l1":"r2","l2":"r1"}}`)
	score, correct, err = s.CalculateScore(models.Matching, content, swapped)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if score != 0 || correct {
		t.Errorf("CalculateScore() = (%v, %v), want (0, false)", score, correct)
	}
}

func TestCalculateScore_Ordering(t *testing.T) {
	s := newTestGradingService()
	content := json.RawMessage(`{
		"items":[{"id":"i1","text":"one"},{"id":"i2","text":"two"},{"id":"i3","text":"three"}],
		"correct_order":["i1","i2","i3"]}`)

	tests := []struct {
		name        string
		answer      string
		wantScore   float64
		wantCorrect bool
	}{
		{name: "exact order", answer: `{"order":["i1","i2","i3"]}`, wantScore: 1, wantCorrect: true},
		{name: "one slot right", answer: `{"order":["i1","i3","i2"]}`, wantScore: 1.0 / 3.0, wantCorrect: false},
		{name: "truncated answer not fully correct", answer: `{"order":["i1","i2"]}`, wantScore: 2.0 / 3.0, wantCorrect: false},
		{name: "reversed", answer: `{"order":["i3","i2","i1"]}`, wantScore: 1.0 / 3.0, wantCorrect: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, correct, err := s.CalculateScore(models.Ordering, content, json.RawMessage(tt.answer))
			if err != nil {
				t.Fatalf("CalculateScore() error = %v", err)
			}
			if math.Abs(score-tt.wantScore) > 1e-9 || correct != tt.wantCorrect {
				t.Errorf("CalculateScore() = (%v, %v), want (%v, %v)", score, correct, tt.wantScore, tt.wantCorrect)
			}
		})
	}
}

func TestCalculateScore_FillBlank(t *testing.T) {
	s := newTestGradingService()
	content := json.RawMessage(`{
		"template":"The {{b1}} layer sits below the {{b2}} layer",
		"blanks":[
			{"id":"b1","options":["transport","session"],"answer":"transport"},
			{"id":"b2","options":["session","physical"],"answer":"session"}]}`)

	score, correct, err := s.CalculateScore(models.FillBlank, content, json.RawMessage(`{"values":{"b1":"transport","b2":"physical"}}`))
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if score != 0.5 || correct {
		t.Errorf("CalculateScore() = (%v, %v), want (0.5, false)", score, correct)
	}
}

func TestCalculateScore_CaseAnalysis_WrongPicksPenalized(t *testing.T) {
	s := newTestGradingService()
	content := json.RawMessage(`{
		"scenario":"service is leaking goroutines",
		"options":[{"id":"o1","text":"a"},{"id":"o2","text":"b"},{"id":"o3","text":"c"},{"id":"o4","text":"d"}],
		"correct_ids":["o1","o3"]}`)

	tests := []struct {
		name        string
		answer      string
		wantScore   float64
		wantCorrect bool
	}{
		{name: "all correct", answer: `{"selected_ids":["o1","o3"]}`, wantScore: 1, wantCorrect: true},
		{name: "one correct one wrong cancels", answer: `{"selected_ids":["o1","o2"]}`, wantScore: 0, wantCorrect: false},
		{name: "extra wrong pick drops below full", answer: `{"selected_ids":["o1","o3","o2"]}`, wantScore: 0.5, wantCorrect: false},
		{name: "floored at zero", answer: `{"selected_ids":["o2","o4"]}`, wantScore: 0, wantCorrect: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, correct, err := s.CalculateScore(models.CaseAnalysis, content, json.RawMessage(tt.answer))
			if err != nil {
				t.Fatalf("CalculateScore() error = %v", err)
			}
			if score != tt.wantScore || correct != tt.wantCorrect {
				t.Errorf("CalculateScore() = (%v, %v), want (%v, %v)", score, correct, tt.wantScore, tt.wantCorrect)
			}
		})
	}
}

func TestCalculateScore_EmptyAnswer(t *testing.T) {
	s := newTestGradingService()
	score, correct, err := s.CalculateScore(models.SingleChoice, json.RawMessage(`{"options":["a"],"correct_answer":0}`), nil)
	if err != nil {
		t.Fatalf("CalculateScore() error = %v", err)
	}
	if score != 0 || correct {
		t.Errorf("CalculateScore() = (%v, %v), want (0, false)", score, correct)
	}
}

func TestCalculateScore_UnsupportedType(t *testing.T) {
	s := newTestGradingService()
	_, _, err := s.CalculateScore(models.QuestionType("essay"), json.RawMessage(`{}`), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error for unsupported question type")
	}
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, "A+"},
		{97, "A+"},
		{95, "A"},
		{90, "A-"},
		{88, "B+"},
		{85, "B"},
		{80, "B-"},
		{77, "C+"},
		{73, "C"},
		{70, "C-"},
		{65, "D"},
		{59.9, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := letterGrade(tt.percentage); got != tt.want {
			t.Errorf("letterGrade(%v) = %q, want %q", tt.percentage, got, tt.want)
		}
	}
}
