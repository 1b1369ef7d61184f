package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	TrueFalse    QuestionType = "true_false"
	Matching     QuestionType = "matching"
	Ordering     QuestionType = "ordering"
	FillBlank    QuestionType = "fill_blank"
	CaseAnalysis QuestionType = "case_analysis"
)

// QuizQuestion belongs to a quiz module. Content carries the
// type-specific payload as JSONB; the schemas below define its shape
// per question type. Correctness metadata lives inside Content and is
// stripped before a question is sent to a student.
type QuizQuestion struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	ModuleID uint         `json:"module_id" gorm:"not null;index"`
	Type     QuestionType `json:"type" gorm:"not null;index"`
	Text     string       `json:"text" gorm:"type:text;not null" validate:"required"`
	Points   int          `json:"points" gorm:"default:10" validate:"min=1,max=100"`
	Position int          `json:"position" gorm:"default:0"`

	Content datatypes.JSON `json:"content" gorm:"type:jsonb"`

	Explanation *string   `json:"explanation" gorm:"type:text"`
	CreatedBy   string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Module  TrailModule `json:"module" gorm:"foreignKey:ModuleID"`
	Creator User        `json:"creator" gorm:"foreignKey:CreatedBy"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// ===== QUESTION CONTENT SCHEMAS =====

// SingleChoiceContent: CorrectAnswer is an index into Options. When
// options are shuffled for delivery the index is remapped to follow
// the moved option.
type SingleChoiceContent struct {
	Options       []string `json:"options" validate:"min=2,max=10"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0"`
}

type TrueFalseContent struct {
	Statements []TFStatement `json:"statements" validate:"min=1,max=10"`
}

type TFStatement struct {
	ID     string `json:"id" validate:"required"`
	Text   string `json:"text" validate:"required"`
	IsTrue bool   `json:"is_true"`
}

// MatchingContent: correctness is keyed by item ids, never by
// position, so either side can be reordered freely.
type MatchingContent struct {
	LeftItems    []MatchItem `json:"left_items" validate:"min=2,max=10"`
	RightItems   []MatchItem `json:"right_items" validate:"min=2,max=10"`
	CorrectPairs []MatchPair `json:"correct_pairs" validate:"min=1"`
}

type MatchItem struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type MatchPair struct {
	LeftID  string `json:"left_id"`
	RightID string `json:"right_id"`
}

// OrderingContent: Items is the displayed list; CorrectOrder is the
// expected sequence of item ids and is never shuffled.
type OrderingContent struct {
	Items        []OrderItem `json:"items" validate:"min=2,max=10"`
	CorrectOrder []string    `json:"correct_order" validate:"min=2"`
}

type OrderItem struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

// FillBlankContent: Template references blanks as {b1}, {b2}, ... and
// each blank has its own option list shuffled independently of its
// siblings.
type FillBlankContent struct {
	Template string  `json:"template" validate:"required"`
	Blanks   []Blank `json:"blanks" validate:"min=1,max=10"`
}

type Blank struct {
	ID      string   `json:"id" validate:"required"`
	Options []string `json:"options" validate:"min=2,max=10"`
	Answer  string   `json:"answer" validate:"required"`
}

// CaseAnalysisContent: a scenario with one or more correct options,
// selected by id.
type CaseAnalysisContent struct {
	Scenario   string       `json:"scenario" validate:"required"`
	Options    []CaseOption `json:"options" validate:"min=2,max=10"`
	CorrectIDs []string     `json:"correct_ids" validate:"min=1"`
}

type CaseOption struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}
