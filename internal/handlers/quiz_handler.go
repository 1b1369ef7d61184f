package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studytrails/trails-service/internal/services"
	"github.com/studytrails/trails-service/internal/utils"
	"github.com/studytrails/trails-service/internal/validator"
)

type QuizHandler struct {
	BaseHandler
	quizService     services.QuizService
	deliveryService services.DeliveryService
	validator       *validator.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	deliveryService services.DeliveryService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:     NewBaseHandler(logger),
		quizService:     quizService,
		deliveryService: deliveryService,
		validator:       validator,
	}
}

// CreateQuestion adds a question to a quiz module
// @Summary Create question
// @Description Adds a question with typed content to a quiz module
// @Tags questions
// @Accept json
// @Produce json
// @Param module_id path uint true "Module ID"
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.QuizQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /modules/{module_id}/questions [post]
func (h *QuizHandler) CreateQuestion(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	h.LogRequest(c, "Creating question", "module_id", moduleID)

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	question, err := h.quizService.CreateQuestion(c.Request.Context(), moduleID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion retrieves a question with its full content
// @Summary Get question
// @Description Retrieves a question including answer keys (staff only)
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} models.QuizQuestion
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuizHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	question, err := h.quizService.GetQuestion(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion updates a question
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Question data"
// @Success 200 {object} models.QuizQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	question, err := h.quizService.UpdateQuestion(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion deletes a question
// @Summary Delete question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted successfully"})
}

// ListQuestions lists a module's questions in authoring order
// @Summary List questions
// @Description Lists questions with answer keys (staff only)
// @Tags questions
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 200 {object} SuccessResponse{data=[]models.QuizQuestion}
// @Failure 403 {object} ErrorResponse
// @Router /modules/{module_id}/questions [get]
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	questions, err := h.quizService.ListQuestions(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Questions retrieved successfully",
		Data:    questions,
	})
}

// RenderQuiz renders a quiz module for the current student
// @Summary Render quiz
// @Description Returns the quiz with per-student question and option order, answer keys stripped
// @Tags delivery
// @Produce json
// @Param module_id path uint true "Module ID"
// @Success 200 {object} models.RenderedQuiz
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /modules/{module_id}/quiz [get]
func (h *QuizHandler) RenderQuiz(c *gin.Context) {
	moduleID := h.parseIDParam(c, "module_id")
	if moduleID == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	h.LogRequest(c, "Rendering quiz", "module_id", moduleID, "student_id", userID)

	quiz, err := h.deliveryService.RenderModuleQuiz(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}
