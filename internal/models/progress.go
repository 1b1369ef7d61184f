package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentProfile accumulates XP across all trails. Level is derived
// from XP by the progress service and denormalized here for cheap
// leaderboard queries.
type StudentProfile struct {
	UserID string `json:"user_id" gorm:"primaryKey;size:255"`
	XP     int    `json:"xp" gorm:"default:0"`
	Level  int    `json:"level" gorm:"default:1"`

	QuizzesPassed     int `json:"quizzes_passed" gorm:"default:0"`
	ProjectsApproved  int `json:"projects_approved" gorm:"default:0"`
	TrailsCompleted   int `json:"trails_completed" gorm:"default:0"`
	PerfectScoreCount int `json:"perfect_score_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

type AchievementCode string

const (
	AchievementFirstQuiz      AchievementCode = "first_quiz"
	AchievementPerfectScore   AchievementCode = "perfect_score"
	AchievementTrailComplete  AchievementCode = "trail_complete"
	AchievementFirstProject   AchievementCode = "first_project"
	AchievementFiveQuizzes    AchievementCode = "five_quizzes"
	AchievementLevelTen       AchievementCode = "level_ten"
)

type Achievement struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Code        AchievementCode `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Title       string          `json:"title" gorm:"not null;size:100"`
	Description string          `json:"description" gorm:"type:text"`
	XPBonus     int             `json:"xp_bonus" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// DefaultAchievements returns the built-in achievement catalog that is
// seeded at startup.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{Code: AchievementFirstQuiz, Title: "First Steps", Description: "Pass your first quiz", XPBonus: 50},
		{Code: AchievementPerfectScore, Title: "Flawless", Description: "Score 100% on a quiz", XPBonus: 100},
		{Code: AchievementTrailComplete, Title: "Trailblazer", Description: "Complete an entire trail", XPBonus: 250},
		{Code: AchievementFirstProject, Title: "Shipped It", Description: "Get your first project approved", XPBonus: 75},
		{Code: AchievementFiveQuizzes, Title: "On a Roll", Description: "Pass five quizzes", XPBonus: 150},
		{Code: AchievementLevelTen, Title: "Double Digits", Description: "Reach level 10", XPBonus: 200},
	}
}

type StudentAchievement struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	UserID        string `json:"user_id" gorm:"not null;index;size:255;uniqueIndex:idx_user_achievement"`
	AchievementID uint   `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	EarnedAt      time.Time `json:"earned_at"`

	// Relations
	Achievement Achievement `json:"achievement" gorm:"foreignKey:AchievementID"`
}

func (StudentAchievement) TableName() string {
	return "student_achievements"
}

// Certificate is issued once per completed trail. Serial is a uuid
// string used for public verification.
type Certificate struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Serial  string `json:"serial" gorm:"uniqueIndex;not null;size:36"`
	UserID  string `json:"user_id" gorm:"not null;index;size:255;uniqueIndex:idx_user_trail_cert"`
	TrailID uint   `json:"trail_id" gorm:"not null;uniqueIndex:idx_user_trail_cert"`

	IssuedAt time.Time `json:"issued_at"`

	// Relations
	Trail   Trail `json:"trail" gorm:"foreignKey:TrailID"`
	Student User  `json:"student" gorm:"foreignKey:UserID"`
}

func (Certificate) TableName() string {
	return "certificates"
}

type NotificationType string

const (
	NotificationQuizGraded      NotificationType = "quiz_graded"
	NotificationProjectReviewed NotificationType = "project_reviewed"
	NotificationAchievement     NotificationType = "achievement_earned"
	NotificationCertificate     NotificationType = "certificate_issued"
	NotificationTrailPublished  NotificationType = "trail_published"
)

type Notification struct {
	ID     uint             `json:"id" gorm:"primaryKey"`
	UserID string           `json:"user_id" gorm:"not null;index;size:255"`
	Type   NotificationType `json:"type" gorm:"not null;size:50"`

	Title   string         `json:"title" gorm:"not null;size:255"`
	Message string         `json:"message" gorm:"type:text"`
	Data    datatypes.JSON `json:"data" gorm:"type:jsonb"`

	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
