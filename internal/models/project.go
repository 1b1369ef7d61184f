package models

import "time"

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
	SubmissionResubmit  SubmissionStatus = "needs_changes"
	SubmissionWithdrawn SubmissionStatus = "withdrawn"
)

// ProjectSubmission is a student's handin for a project module. A
// rejected or needs_changes submission can be superseded by a new one;
// Revision counts handins for the same module by the same student.
type ProjectSubmission struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ModuleID  uint   `json:"module_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	RepoURL     string  `json:"repo_url" gorm:"not null;size:500" validate:"required,url"`
	Description *string `json:"description" gorm:"type:text"`
	Revision    int     `json:"revision" gorm:"default:1"`

	Status      SubmissionStatus `json:"status" gorm:"default:pending;index"`
	SubmittedAt time.Time        `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Module  TrailModule    `json:"module" gorm:"foreignKey:ModuleID"`
	Student User           `json:"student" gorm:"foreignKey:StudentID"`
	Review  *ProjectReview `json:"review" gorm:"foreignKey:SubmissionID"`
}

func (ProjectSubmission) TableName() string {
	return "project_submissions"
}

type ProjectReview struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	SubmissionID uint   `json:"submission_id" gorm:"not null;uniqueIndex"`
	ReviewerID   string `json:"reviewer_id" gorm:"not null;index;size:255"`

	Score    float64 `json:"score" validate:"min=0,max=100"`
	Approved bool    `json:"approved"`
	Comments string  `json:"comments" gorm:"type:text"`

	ReviewedAt time.Time `json:"reviewed_at"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Submission ProjectSubmission `json:"submission" gorm:"foreignKey:SubmissionID"`
	Reviewer   User              `json:"reviewer" gorm:"foreignKey:ReviewerID"`
}

func (ProjectReview) TableName() string {
	return "project_reviews"
}
