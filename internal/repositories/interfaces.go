package repositories

import (
	"context"
	"time"

	"github.com/studytrails/trails-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TrailFilters struct {
	Status    *models.TrailStatus `json:"status"`
	CreatedBy *string             `json:"created_by"`
	Search    *string             `json:"search"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`    // "created_at", "title"
	SortOrder string              `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type SubmissionFilters struct {
	Status    *models.SubmissionStatus `json:"status"`
	StudentID *string                  `json:"student_id"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

type UserFilters struct {
	Query  string
	Limit  int
	Offset int
}

// ===== SHARED STATISTICS STRUCTS =====

type TrailStats struct {
	EnrolledCount  int     `json:"enrolled_count"`
	CompletedCount int     `json:"completed_count"`
	ModuleCount    int     `json:"module_count"`
	AverageScore   float64 `json:"average_score"`
}

// GradebookRow is one student/module cell for trail exports.
type GradebookRow struct {
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	ModuleID    uint       `json:"module_id"`
	ModuleTitle string     `json:"module_title"`
	BestScore   float64    `json:"best_score"`
	Percentage  float64    `json:"percentage"`
	Passed      bool       `json:"passed"`
	Attempts    int        `json:"attempts"`
	LastAttempt *time.Time `json:"last_attempt"`
}

// ===== REPOSITORY INTERFACES =====

type TrailRepository interface {
	Create(ctx context.Context, trail *models.Trail) error
	GetByID(ctx context.Context, id uint) (*models.Trail, error)
	GetByIDWithModules(ctx context.Context, id uint) (*models.Trail, error)
	Update(ctx context.Context, trail *models.Trail) error
	UpdateStatus(ctx context.Context, id uint, status models.TrailStatus) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters TrailFilters) ([]*models.Trail, int64, error)
	GetStats(ctx context.Context, trailID uint) (*TrailStats, error)

	// Modules
	CreateModule(ctx context.Context, module *models.TrailModule) error
	GetModuleByID(ctx context.Context, id uint) (*models.TrailModule, error)
	UpdateModule(ctx context.Context, module *models.TrailModule) error
	DeleteModule(ctx context.Context, id uint) error
	ListModules(ctx context.Context, trailID uint) ([]*models.TrailModule, error)
	CountModules(ctx context.Context, trailID uint) (int, error)

	// Enrollment
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	GetEnrollment(ctx context.Context, trailID uint, userID string) (*models.Enrollment, error)
	UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	CountEnrollments(ctx context.Context, trailID uint) (int, error)
	ListEnrollmentsByUser(ctx context.Context, userID string) ([]*models.Enrollment, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.QuizQuestion) error
	GetByID(ctx context.Context, id uint) (*models.QuizQuestion, error)
	Update(ctx context.Context, question *models.QuizQuestion) error
	Delete(ctx context.Context, id uint) error

	// ListByModule returns questions in authoring (position) order.
	// Per-student ordering is computed at render time, never here.
	ListByModule(ctx context.Context, moduleID uint) ([]*models.QuizQuestion, error)
	CountByModule(ctx context.Context, moduleID uint) (int, error)
	TotalPointsByModule(ctx context.Context, moduleID uint) (int, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ModuleAttempt) error
	GetByID(ctx context.Context, id uint) (*models.ModuleAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.ModuleAttempt, error)
	Update(ctx context.Context, attempt *models.ModuleAttempt) error
	GetActive(ctx context.Context, moduleID uint, studentID string) (*models.ModuleAttempt, error)
	CountByStudent(ctx context.Context, moduleID uint, studentID string) (int, error)
	GetBestScore(ctx context.Context, moduleID uint, studentID string) (float64, error)
	ListByModule(ctx context.Context, moduleID uint, filters AttemptFilters) ([]*models.ModuleAttempt, int64, error)
	ListByStudent(ctx context.Context, studentID string, filters AttemptFilters) ([]*models.ModuleAttempt, int64, error)

	// Answers
	SaveAnswer(ctx context.Context, answer *models.StudentAnswer) error
	GetAnswers(ctx context.Context, attemptID uint) ([]*models.StudentAnswer, error)

	// Gradebook exports one row per student/module pair of a trail.
	GradebookByTrail(ctx context.Context, trailID uint) ([]*GradebookRow, error)
}

type ProjectRepository interface {
	CreateSubmission(ctx context.Context, submission *models.ProjectSubmission) error
	GetSubmissionByID(ctx context.Context, id uint) (*models.ProjectSubmission, error)
	UpdateSubmission(ctx context.Context, submission *models.ProjectSubmission) error
	CountRevisions(ctx context.Context, moduleID uint, studentID string) (int, error)
	GetLatestSubmission(ctx context.Context, moduleID uint, studentID string) (*models.ProjectSubmission, error)
	ListByModule(ctx context.Context, moduleID uint, filters SubmissionFilters) ([]*models.ProjectSubmission, int64, error)
	ListByStudent(ctx context.Context, studentID string, filters SubmissionFilters) ([]*models.ProjectSubmission, int64, error)

	CreateReview(ctx context.Context, review *models.ProjectReview) error
	GetReviewBySubmission(ctx context.Context, submissionID uint) (*models.ProjectReview, error)
}

type ProgressRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	SaveProfile(ctx context.Context, profile *models.StudentProfile) error
	Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error)

	// Achievements
	GetAchievementByCode(ctx context.Context, code models.AchievementCode) (*models.Achievement, error)
	SeedAchievements(ctx context.Context, achievements []models.Achievement) error
	// GrantAchievement is idempotent; it reports whether the grant was
	// new.
	GrantAchievement(ctx context.Context, userID string, achievementID uint) (bool, error)
	ListStudentAchievements(ctx context.Context, userID string) ([]*models.StudentAchievement, error)

	// Certificates
	CreateCertificate(ctx context.Context, cert *models.Certificate) error
	GetCertificateBySerial(ctx context.Context, serial string) (*models.Certificate, error)
	ListCertificates(ctx context.Context, userID string) ([]*models.Certificate, error)

	// Notifications
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id uint, userID string) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
