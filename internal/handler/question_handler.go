package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/response"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/codearena/codearena-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// QuestionHandler handles the staff question management endpoints.
type QuestionHandler struct {
	questions *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

func questionIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("question_id"), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// ListForLevel godoc
// GET /api/v1/admin/contests/:contest_id/rounds/:level/questions
func (h *QuestionHandler) ListForLevel(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	questions, err := h.questions.ListForLevel(c.Request.Context(), contestID, level)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Create godoc
// POST /api/v1/admin/contests/:contest_id/rounds/:level/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questions.Create(c.Request.Context(), contestID, level, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateTitle):
			response.Fail(c, http.StatusConflict, response.ErrDuplicateTitle)
		case errors.Is(err, service.ErrContestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, question)
}

// Update godoc
// PUT /api/v1/admin/questions/:question_id
func (h *QuestionHandler) Update(c *gin.Context) {
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questions.Update(c.Request.Context(), questionID, &req)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, question)
}

// Delete godoc
// DELETE /api/v1/admin/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	if err := h.questions.Delete(c.Request.Context(), questionID); err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
