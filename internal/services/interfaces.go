package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
)

// ===== REQUEST/RESPONSE DTOs =====

// Request shapes live in models; services alias them so handlers only
// import one package for the service surface.
type CreateTrailRequest = models.TrailCreateRequest
type UpdateTrailRequest = models.TrailUpdateRequest
type CreateModuleRequest = models.ModuleCreateRequest
type UpdateModuleRequest = models.ModuleUpdateRequest
type CreateQuestionRequest = models.QuestionCreateRequest
type UpdateQuestionRequest = models.QuestionUpdateRequest
type SubmitAnswerRequest = models.SubmitAnswerRequest
type SubmitProjectRequest = models.ProjectSubmitRequest
type ReviewProjectRequest = models.ProjectReviewRequest

type TrailResponse struct {
	*models.Trail
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	Enrolled  bool `json:"enrolled"`
}

type TrailListResponse struct {
	Trails []*TrailResponse `json:"trails"`
	Total  int64            `json:"total"`
	Page   int              `json:"page"`
	Size   int              `json:"size"`
}

type AttemptResponse struct {
	*models.ModuleAttempt
	CanSubmit            bool `json:"can_submit"`
	TimeRemainingSeconds *int `json:"time_remaining_seconds,omitempty"`
}

type SubmissionResponse struct {
	*models.ProjectSubmission
	CanReview   bool `json:"can_review"`
	CanResubmit bool `json:"can_resubmit"`
}

// ===== GRADING DTOs =====

type AnswerGradingResult struct {
	QuestionID    uint    `json:"question_id"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	IsCorrect     bool    `json:"is_correct"`
	PartialCredit bool    `json:"partial_credit"`
	Feedback      *string `json:"feedback"`
}

type AttemptGradingResult struct {
	AttemptID  uint                  `json:"attempt_id"`
	TotalScore float64               `json:"total_score"`
	MaxScore   float64               `json:"max_score"`
	Percentage float64               `json:"percentage"`
	Passed     bool                  `json:"passed"`
	Grade      string                `json:"grade"`
	Questions  []AnswerGradingResult `json:"questions"`
	GradedAt   time.Time             `json:"graded_at"`
}

// ===== SERVICE INTERFACES =====

type TrailService interface {
	Create(ctx context.Context, req *CreateTrailRequest, creatorID string) (*TrailResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*TrailResponse, error)
	Update(ctx context.Context, id uint, req *UpdateTrailRequest, userID string) (*TrailResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.TrailFilters, userID string) (*TrailListResponse, error)
	GetStats(ctx context.Context, id uint, userID string) (*repositories.TrailStats, error)

	// Status management
	Publish(ctx context.Context, id uint, userID string) error
	Archive(ctx context.Context, id uint, userID string) error

	// Modules
	AddModule(ctx context.Context, trailID uint, req *CreateModuleRequest, userID string) (*models.TrailModule, error)
	UpdateModule(ctx context.Context, moduleID uint, req *UpdateModuleRequest, userID string) (*models.TrailModule, error)
	RemoveModule(ctx context.Context, moduleID uint, userID string) error
	ListModules(ctx context.Context, trailID uint) ([]*models.TrailModule, error)

	// UnlockOrder returns the trail's module ids in an order that
	// respects every prerequisite edge.
	UnlockOrder(ctx context.Context, trailID uint) ([]uint, error)

	// Enrollment
	Enroll(ctx context.Context, trailID uint, studentID string) (*models.Enrollment, error)
	GetEnrollment(ctx context.Context, trailID uint, studentID string) (*models.Enrollment, error)
	ListStudentTrails(ctx context.Context, studentID string) ([]*models.Enrollment, error)
}

type QuizService interface {
	CreateQuestion(ctx context.Context, moduleID uint, req *CreateQuestionRequest, userID string) (*models.QuizQuestion, error)
	GetQuestion(ctx context.Context, id uint, userID string) (*models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*models.QuizQuestion, error)
	DeleteQuestion(ctx context.Context, id uint, userID string) error
	ListQuestions(ctx context.Context, moduleID uint, userID string) ([]*models.QuizQuestion, error)
}

// DeliveryService turns stored quiz content into the per-student view.
// Nothing it computes is ever persisted; the same student always gets
// the same order back.
type DeliveryService interface {
	RenderModuleQuiz(ctx context.Context, moduleID uint, studentID string) (*models.RenderedQuiz, error)
}

type AttemptService interface {
	Start(ctx context.Context, moduleID uint, studentID string) (*AttemptResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*AttemptResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, studentID string) error
	Submit(ctx context.Context, attemptID uint, studentID string) (*models.AttemptResultResponse, error)
	HandleTimeout(ctx context.Context, attemptID uint) error
	ListByStudent(ctx context.Context, studentID string, filters repositories.AttemptFilters) ([]*AttemptResponse, int64, error)
	ListByModule(ctx context.Context, moduleID uint, filters repositories.AttemptFilters, userID string) ([]*AttemptResponse, int64, error)
}

type GradingService interface {
	// GradeAttempt scores every answer of the attempt and writes the
	// final result back. Called on submit and on timeout.
	GradeAttempt(ctx context.Context, attemptID uint) (*AttemptGradingResult, error)

	// CalculateScore returns the score fraction (0..1) plus a fully-
	// correct flag for one answer payload against one content payload.
	CalculateScore(questionType models.QuestionType, content json.RawMessage, answer json.RawMessage) (float64, bool, error)
}

type ProgressService interface {
	GetProfile(ctx context.Context, userID string) (*models.ProfileResponse, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error)

	// Hooks called by the attempt/project/trail services.
	RecordQuizResult(ctx context.Context, studentID string, module *models.TrailModule, result *AttemptGradingResult) error
	RecordProjectApproval(ctx context.Context, studentID string, module *models.TrailModule) error
	RecordTrailCompletion(ctx context.Context, studentID string, trail *models.Trail) error

	// Certificates
	VerifyCertificate(ctx context.Context, serial string) (*models.Certificate, error)
	ListCertificates(ctx context.Context, userID string) ([]*models.Certificate, error)

	// Notifications
	ListNotifications(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id uint, userID string) error
}

type ProjectService interface {
	Submit(ctx context.Context, moduleID uint, req *SubmitProjectRequest, studentID string) (*SubmissionResponse, error)
	Review(ctx context.Context, submissionID uint, req *ReviewProjectRequest, reviewerID string) (*SubmissionResponse, error)
	GetSubmission(ctx context.Context, id uint, userID string) (*SubmissionResponse, error)
	ListByModule(ctx context.Context, moduleID uint, filters repositories.SubmissionFilters, userID string) ([]*SubmissionResponse, int64, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.SubmissionFilters) ([]*SubmissionResponse, int64, error)
}

// ReportService builds teacher-facing exports.
type ReportService interface {
	// ExportGradebook writes one row per student/module pair of the
	// trail into an xlsx workbook and returns the serialized bytes.
	ExportGradebook(ctx context.Context, trailID uint, userID string) ([]byte, error)
}

// NotificationEventService fans domain happenings out to the message
// bus and to per-user notification records.
type NotificationEventService interface {
	NotifyTrailPublished(ctx context.Context, trail *models.Trail) error
	NotifyQuizGraded(ctx context.Context, studentID string, module *models.TrailModule, result *AttemptGradingResult) error
	NotifyProjectReviewed(ctx context.Context, submission *models.ProjectSubmission, review *models.ProjectReview) error
	NotifyAchievementEarned(ctx context.Context, studentID string, achievement *models.Achievement) error
	NotifyCertificateIssued(ctx context.Context, cert *models.Certificate) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Trail() TrailService
	Quiz() QuizService
	Delivery() DeliveryService
	Attempt() AttemptService
	Grading() GradingService
	Progress() ProgressService
	Project() ProjectService
	Report() ReportService
	NotificationEvents() NotificationEventService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
