package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

// ModuleAttempt is one run of a student through a quiz module. The
// question and option order a student saw is never stored here: it is
// recomputed deterministically from (student id, module id) on every
// render.
type ModuleAttempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ModuleID      uint          `json:"module_id" gorm:"not null;index"`
	StudentID     string        `json:"student_id" gorm:"not null;index;size:255"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null"`
	Status        AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	// Timing
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	TimeSpent   int        `json:"time_spent"` // seconds

	// Scoring
	Score      float64 `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	IsGraded   bool    `json:"is_graded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Module  TrailModule     `json:"module" gorm:"foreignKey:ModuleID"`
	Student User            `json:"student" gorm:"foreignKey:StudentID"`
	Answers []StudentAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

func (ModuleAttempt) TableName() string {
	return "module_attempts"
}

type StudentAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`

	// Polymorphic payload, shape depends on the question type.
	Answer datatypes.JSON `json:"answer" gorm:"type:jsonb"`

	// Grading
	Score     float64 `json:"score"`
	MaxScore  int     `json:"max_score"`
	IsCorrect *bool   `json:"is_correct"`
	Feedback  *string `json:"feedback" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt  ModuleAttempt `json:"attempt" gorm:"foreignKey:AttemptID"`
	Question QuizQuestion  `json:"question" gorm:"foreignKey:QuestionID"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}

// ===== ANSWER PAYLOAD SCHEMAS =====

// Answer payloads reference content by id (or, for single choice, by
// index into the option order the student was shown; grading replays
// the same shuffle so the index lines up).

type SingleChoiceAnswer struct {
	SelectedIndex int `json:"selected_index"`
}

type TrueFalseAnswer struct {
	// statement id -> student's true/false choice
	Choices map[string]bool `json:"choices"`
}

type MatchingAnswer struct {
	// left id -> right id as matched by the student
	Pairs map[string]string `json:"pairs"`
}

type OrderingAnswer struct {
	// item ids in the order the student arranged them
	Order []string `json:"order"`
}

type FillBlankAnswer struct {
	// blank id -> selected option
	Values map[string]string `json:"values"`
}

type CaseAnalysisAnswer struct {
	SelectedIDs []string `json:"selected_ids"`
}
