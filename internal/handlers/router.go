package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studytrails/trails-service/internal/config"
	"github.com/studytrails/trails-service/internal/models"
	"github.com/studytrails/trails-service/internal/repositories"
	"github.com/studytrails/trails-service/internal/services"
	"github.com/studytrails/trails-service/internal/utils"
	"github.com/studytrails/trails-service/internal/validator"
)

type HandlerManager struct {
	trailHandler   *TrailHandler
	quizHandler    *QuizHandler
	attemptHandler *AttemptHandler
	projectHandler *ProjectHandler
	studentHandler *StudentHandler
	reportHandler  *ReportHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		trailHandler:   NewTrailHandler(serviceManager.Trail(), validator, logger),
		quizHandler:    NewQuizHandler(serviceManager.Quiz(), serviceManager.Delivery(), validator, logger),
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		projectHandler: NewProjectHandler(serviceManager.Project(), validator, logger),
		studentHandler: NewStudentHandler(serviceManager.Progress(), logger),
		reportHandler:  NewReportHandler(serviceManager.Report(), logger),
		userHandler:    NewUserHandler(userRepo, logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Certificate verification is public: no token required
	router.GET("/api/v1/certificates/:serial", hm.studentHandler.VerifyCertificate)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Trail routes
		trails := v1.Group("/trails")
		{
			// Create/modify trails - Teachers and Admins only
			trails.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.CreateTrail)
			trails.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.UpdateTrail)
			trails.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.DeleteTrail)
			trails.POST("/:id/publish", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.PublishTrail)
			trails.POST("/:id/archive", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.ArchiveTrail)

			// Read trails - All authenticated users
			trails.GET("", hm.trailHandler.ListTrails)
			trails.GET("/:id", hm.trailHandler.GetTrail)
			trails.GET("/:id/modules", hm.trailHandler.ListModules)
			trails.GET("/:id/unlock-order", hm.trailHandler.GetUnlockOrder)

			// Trail statistics and reporting - Teachers and Admins only
			trails.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.GetTrailStats)
			trails.GET("/:id/gradebook", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.reportHandler.ExportGradebook)

			// Module management - Teachers and Admins only
			trails.POST("/:id/modules", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.AddModule)

			// Enrollment - Students only
			trails.POST("/:id/enroll", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.trailHandler.Enroll)
			trails.GET("/:id/enrollment", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.trailHandler.GetMyEnrollment)
		}

		// Module routes
		modules := v1.Group("/modules")
		{
			// Modify modules - Teachers and Admins only
			modules.PUT("/:module_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.UpdateModule)
			modules.DELETE("/:module_id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.trailHandler.RemoveModule)

			// Question management - Teachers and Admins only
			modules.POST("/:module_id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.quizHandler.CreateQuestion)
			modules.GET("/:module_id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.quizHandler.ListQuestions)

			// Quiz delivery - Students only; answers are stripped and order is per-student
			modules.GET("/:module_id/quiz", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.quizHandler.RenderQuiz)
			modules.POST("/:module_id/attempts", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.attemptHandler.StartAttempt)
			modules.POST("/:module_id/submissions", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.projectHandler.SubmitProject)

			// Module-wide listings - Teachers and Admins only
			modules.GET("/:module_id/attempts", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.attemptHandler.ListModuleAttempts)
			modules.GET("/:module_id/submissions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.projectHandler.ListModuleSubmissions)
		}

		// Question routes
		questions := v1.Group("/questions")
		questions.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin))
		{
			questions.GET("/:id", hm.quizHandler.GetQuestion)
			questions.PUT("/:id", hm.quizHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.quizHandler.DeleteQuestion)
		}

		// Attempt routes - Students only
		attempts := v1.Group("/attempts")
		attempts.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.POST("/:id/timeout", hm.attemptHandler.HandleTimeout)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.GET("/:id", hm.projectHandler.GetSubmission)
			submissions.POST("/:id/review", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.projectHandler.ReviewSubmission)
		}

		// Student routes
		students := v1.Group("/students")
		{
			students.GET("/leaderboard", hm.studentHandler.Leaderboard)
			students.GET("/:student_id/profile", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.studentHandler.GetProfile)

			// Self-service routes - Students only
			me := students.Group("/me")
			me.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
			{
				me.GET("/profile", hm.studentHandler.GetMyProfile)
				me.GET("/trails", hm.trailHandler.ListMyTrails)
				me.GET("/attempts", hm.attemptHandler.ListMyAttempts)
				me.GET("/submissions", hm.projectHandler.ListMySubmissions)
				me.GET("/certificates", hm.studentHandler.ListMyCertificates)
				me.GET("/notifications", hm.studentHandler.ListMyNotifications)
				me.POST("/notifications/:id/read", hm.studentHandler.MarkNotificationRead)
			}
		}

		// User routes - Teachers and Admins only
		users := v1.Group("/users")
		users.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin))
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}
}
