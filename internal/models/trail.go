package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TrailStatus string

const (
	TrailDraft     TrailStatus = "draft"
	TrailPublished TrailStatus = "published"
	TrailArchived  TrailStatus = "archived"
)

type ModuleKind string

const (
	ModuleLesson  ModuleKind = "lesson"
	ModuleQuiz    ModuleKind = "quiz"
	ModuleProject ModuleKind = "project"
)

// Trail is a course: an ordered set of modules students work through.
type Trail struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Description *string     `json:"description" gorm:"type:text"`
	Status      TrailStatus `json:"status" gorm:"default:draft;index"`
	Tags        datatypes.JSON `json:"tags" gorm:"type:jsonb"` // []string

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Modules []TrailModule `json:"modules" gorm:"foreignKey:TrailID"`
	Creator User          `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Statistics (computed)
	EnrolledCount int `json:"enrolled_count" gorm:"-"`
	ModuleCount   int `json:"module_count" gorm:"-"`
}

func (Trail) TableName() string {
	return "trails"
}

// TrailModule is one unit of a trail: a lesson, a quiz, or a project.
// Prerequisites holds module ids that must be completed first; the
// trail service keeps the resulting graph acyclic.
type TrailModule struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	TrailID  uint       `json:"trail_id" gorm:"not null;index"`
	Title    string     `json:"title" gorm:"not null;size:255" validate:"required,max=255"`
	Kind     ModuleKind `json:"kind" gorm:"not null;index"`
	Position int        `json:"position" gorm:"not null"`
	XPReward int        `json:"xp_reward" gorm:"default:50" validate:"min=0,max=1000"`

	Body          *string        `json:"body" gorm:"type:text"` // lesson markdown / project brief
	Prerequisites datatypes.JSON `json:"prerequisites" gorm:"type:jsonb"` // []uint of module ids

	Settings ModuleSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Trail     Trail          `json:"trail" gorm:"foreignKey:TrailID"`
	Questions []QuizQuestion `json:"questions" gorm:"foreignKey:ModuleID"`
}

func (TrailModule) TableName() string {
	return "trail_modules"
}

// ModuleSettings controls quiz delivery for quiz modules. The two
// Randomize flags drive the per-student deterministic shuffles.
type ModuleSettings struct {
	RandomizeQuestions bool    `json:"randomize_questions" gorm:"default:false"`
	RandomizeOptions   bool    `json:"randomize_options" gorm:"default:false"`
	TimeLimitMinutes   *int    `json:"time_limit_minutes" validate:"omitempty,min=1,max=480"`
	MaxAttempts        int     `json:"max_attempts" gorm:"default:3" validate:"min=1,max=10"`
	PassingScore       float64 `json:"passing_score" gorm:"default:70" validate:"min=0,max=100"`
	ShowResults        bool    `json:"show_results" gorm:"default:true"`
}

type Enrollment struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	TrailID uint   `json:"trail_id" gorm:"not null;index;uniqueIndex:idx_trail_student"`
	UserID  string `json:"user_id" gorm:"not null;index;size:255;uniqueIndex:idx_trail_student"`

	Progress    float64    `json:"progress"` // 0..100, completed modules / total
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Trail   Trail `json:"trail" gorm:"foreignKey:TrailID"`
	Student User  `json:"student" gorm:"foreignKey:UserID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
