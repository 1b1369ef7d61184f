package models

import (
	"encoding/json"
	"time"
)

// ===== TRAIL REQUESTS =====

type TrailCreateRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=10"`
}

type TrailUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=10"`
}

type ModuleCreateRequest struct {
	Title         string                 `json:"title" validate:"required,min=1,max=255"`
	Kind          ModuleKind             `json:"kind" validate:"required,oneof=lesson quiz project"`
	Position      int                    `json:"position" validate:"min=0"`
	XPReward      int                    `json:"xp_reward" validate:"min=0,max=1000"`
	Body          *string                `json:"body"`
	Prerequisites []uint                 `json:"prerequisites"`
	Settings      *ModuleSettingsRequest `json:"settings"`
}

type ModuleUpdateRequest struct {
	Title         *string                `json:"title" validate:"omitempty,min=1,max=255"`
	Position      *int                   `json:"position" validate:"omitempty,min=0"`
	XPReward      *int                   `json:"xp_reward" validate:"omitempty,min=0,max=1000"`
	Body          *string                `json:"body"`
	Prerequisites []uint                 `json:"prerequisites"`
	Settings      *ModuleSettingsRequest `json:"settings"`
}

type ModuleSettingsRequest struct {
	RandomizeQuestions *bool    `json:"randomize_questions"`
	RandomizeOptions   *bool    `json:"randomize_options"`
	TimeLimitMinutes   *int     `json:"time_limit_minutes" validate:"omitempty,min=1,max=480"`
	MaxAttempts        *int     `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	PassingScore       *float64 `json:"passing_score" validate:"omitempty,min=0,max=100"`
	ShowResults        *bool    `json:"show_results"`
}

// ===== QUESTION REQUESTS =====

type QuestionCreateRequest struct {
	Type        QuestionType    `json:"type" validate:"required,oneof=single_choice true_false matching ordering fill_blank case_analysis"`
	Text        string          `json:"text" validate:"required"`
	Points      int             `json:"points" validate:"min=1,max=100"`
	Position    int             `json:"position" validate:"min=0"`
	Content     json.RawMessage `json:"content" validate:"required"`
	Explanation *string         `json:"explanation"`
}

type QuestionUpdateRequest struct {
	Text        *string         `json:"text" validate:"omitempty,min=1"`
	Points      *int            `json:"points" validate:"omitempty,min=1,max=100"`
	Position    *int            `json:"position" validate:"omitempty,min=0"`
	Content     json.RawMessage `json:"content"`
	Explanation *string         `json:"explanation"`
}

// ===== ATTEMPT REQUESTS =====

type SubmitAnswerRequest struct {
	QuestionID uint            `json:"question_id" validate:"required"`
	Answer     json.RawMessage `json:"answer" validate:"required"`
}

// ===== PROJECT REQUESTS =====

type ProjectSubmitRequest struct {
	RepoURL     string  `json:"repo_url" validate:"required,url,max=500"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type ProjectReviewRequest struct {
	Score    float64 `json:"score" validate:"min=0,max=100"`
	Approved bool    `json:"approved"`
	Comments string  `json:"comments" validate:"required,max=5000"`
}

// ===== DELIVERY RESPONSES =====

// RenderedQuiz is what a student receives when opening a quiz module.
// Question and option order is already shuffled per student and all
// correctness metadata has been stripped.
type RenderedQuiz struct {
	ModuleID         uint               `json:"module_id"`
	Title            string             `json:"title"`
	TimeLimitMinutes *int               `json:"time_limit_minutes"`
	TotalPoints      int                `json:"total_points"`
	Questions        []RenderedQuestion `json:"questions"`
}

type RenderedQuestion struct {
	ID      uint            `json:"id"`
	Type    QuestionType    `json:"type"`
	Text    string          `json:"text"`
	Points  int             `json:"points"`
	Content json.RawMessage `json:"content"`
}

// ===== GENERIC RESPONSES =====

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type PaginationRequest struct {
	Page int `json:"page" form:"page" validate:"min=1"`
	Size int `json:"size" form:"size" validate:"min=1,max=100"`
}

func (p *PaginationRequest) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 || p.Size > 100 {
		p.Size = 20
	}
}

func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// ===== PROGRESS RESPONSES =====

type ProfileResponse struct {
	UserID          string                `json:"user_id"`
	XP              int                   `json:"xp"`
	Level           int                   `json:"level"`
	NextLevelXP     int                   `json:"next_level_xp"`
	QuizzesPassed   int                   `json:"quizzes_passed"`
	TrailsCompleted int                   `json:"trails_completed"`
	Achievements    []AchievementResponse `json:"achievements"`
}

type AchievementResponse struct {
	Code        AchievementCode `json:"code"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	XPBonus     int             `json:"xp_bonus"`
	EarnedAt    time.Time       `json:"earned_at"`
}

type AttemptResultResponse struct {
	AttemptID  uint            `json:"attempt_id"`
	Score      float64         `json:"score"`
	MaxScore   int             `json:"max_score"`
	Percentage float64         `json:"percentage"`
	Passed     bool            `json:"passed"`
	Grade      string          `json:"grade"`
	Answers    []AnswerOutcome `json:"answers,omitempty"`
}

type AnswerOutcome struct {
	QuestionID uint    `json:"question_id"`
	Score      float64 `json:"score"`
	MaxScore   int     `json:"max_score"`
	IsCorrect  *bool   `json:"is_correct"`
	Feedback   *string `json:"feedback,omitempty"`
}
