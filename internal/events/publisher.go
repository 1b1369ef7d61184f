package events

import (
	"context"
	"time"
)

// Event types published to the learning platform topic.
const (
	EventTrailPublished    = "trail.published"
	EventStudentEnrolled   = "trail.student_enrolled"
	EventAttemptCompleted  = "quiz.attempt_completed"
	EventProjectSubmitted  = "project.submitted"
	EventProjectReviewed   = "project.reviewed"
	EventModuleCompleted   = "progress.module_completed"
	EventAchievementEarned = "progress.achievement_earned"
	EventCertificateIssued = "progress.certificate_issued"
	EventLevelUp           = "progress.level_up"
)

// Event is the envelope every published message uses. Payload carries
// the type-specific body.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Source     string      `json:"source"`
	Version    string      `json:"version"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

const (
	eventSource  = "trails-service"
	eventVersion = "1.0"
)

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close() error
}

// ===== PAYLOADS =====

type TrailPublishedPayload struct {
	TrailID uint   `json:"trail_id"`
	Title   string `json:"title"`
	OwnerID string `json:"owner_id"`
}

type StudentEnrolledPayload struct {
	TrailID   uint   `json:"trail_id"`
	StudentID string `json:"student_id"`
}

type AttemptCompletedPayload struct {
	AttemptID  uint    `json:"attempt_id"`
	ModuleID   uint    `json:"module_id"`
	StudentID  string  `json:"student_id"`
	Score      float64 `json:"score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

type ProjectSubmittedPayload struct {
	SubmissionID uint   `json:"submission_id"`
	ModuleID     uint   `json:"module_id"`
	StudentID    string `json:"student_id"`
	Revision     int    `json:"revision"`
}

type ProjectReviewedPayload struct {
	SubmissionID uint    `json:"submission_id"`
	StudentID    string  `json:"student_id"`
	ReviewerID   string  `json:"reviewer_id"`
	Score        float64 `json:"score"`
	Approved     bool    `json:"approved"`
}

type ModuleCompletedPayload struct {
	TrailID   uint   `json:"trail_id"`
	ModuleID  uint   `json:"module_id"`
	StudentID string `json:"student_id"`
	XPAwarded int    `json:"xp_awarded"`
}

type AchievementEarnedPayload struct {
	StudentID       string `json:"student_id"`
	AchievementCode string `json:"achievement_code"`
	XPBonus         int    `json:"xp_bonus"`
}

type CertificateIssuedPayload struct {
	StudentID string `json:"student_id"`
	TrailID   uint   `json:"trail_id"`
	Serial    string `json:"serial"`
}

type LevelUpPayload struct {
	StudentID string `json:"student_id"`
	Level     int    `json:"level"`
	XP        int    `json:"xp"`
}
