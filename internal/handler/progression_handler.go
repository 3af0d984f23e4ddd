package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codearena/codearena-backend/internal/middleware"
	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/response"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/codearena/codearena-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// ProgressionHandler serves the participant-facing contest flow.
type ProgressionHandler struct {
	progression *service.ProgressionService
	questions   *service.QuestionService
	violations  *service.ViolationService
	rounds      *service.RoundService
}

// NewProgressionHandler creates a new ProgressionHandler.
func NewProgressionHandler(progression *service.ProgressionService, questions *service.QuestionService, violations *service.ViolationService, rounds *service.RoundService) *ProgressionHandler {
	return &ProgressionHandler{
		progression: progression,
		questions:   questions,
		violations:  violations,
		rounds:      rounds,
	}
}

func contestIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("contest_id"), 10, 64)
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func levelParam(c *gin.Context) (int, bool) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return level, true
}

// GetState godoc
// GET /api/v1/participant/contests/:contest_id/state
// Returns the participant's clamped progression view plus the countdown.
func (h *ProgressionHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	state, err := h.progression.GetState(c.Request.Context(), claims.UserID, contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	countdown, err := h.rounds.GetCountdown(c.Request.Context(), contestID)
	if err != nil {
		countdown = &model.CountdownState{Active: false}
	}

	response.Success(c, http.StatusOK, gin.H{
		"state":     state,
		"countdown": countdown,
	})
}

// EnterLevel godoc
// POST /api/v1/participant/contests/:contest_id/levels/:level/enter
// Denials are 200s with allowed=false; the client renders a waiting screen.
func (h *ProgressionHandler) EnterLevel(c *gin.Context) {
	claims := middleware.GetClaims(c)
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	result, err := h.progression.EnterLevel(c.Request.Context(), claims.UserID, contestID, level)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// CompleteLevel godoc
// POST /api/v1/participant/contests/:contest_id/levels/:level/complete
func (h *ProgressionHandler) CompleteLevel(c *gin.Context) {
	claims := middleware.GetClaims(c)
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	state, err := h.progression.CompleteLevel(c.Request.Context(), claims.UserID, contestID, level)
	if err != nil {
		if errors.Is(err, service.ErrLevelNotActive) {
			response.Fail(c, http.StatusConflict, response.ErrLevelNotActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// ListQuestions godoc
// GET /api/v1/participant/contests/:contest_id/questions
// Returns the active round's questions, redacted, plus the solved set.
func (h *ProgressionHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	questions, solved, err := h.questions.ListForParticipant(c.Request.Context(), claims.UserID, contestID)
	if err != nil {
		if errors.Is(err, service.ErrNotShortlisted) {
			response.Fail(c, http.StatusForbidden, response.ErrNotShortlisted)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"questions": questions,
		"solved":    solved,
	})
}

// RecordSubmission godoc
// POST /api/v1/participant/submissions
// Stores a judged verdict from the execution collaborator.
func (h *ProgressionHandler) RecordSubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.RecordSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	submission, err := h.questions.RecordSubmission(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrLevelNotActive):
			response.Fail(c, http.StatusConflict, response.ErrLevelNotActive)
		case errors.Is(err, service.ErrAlreadySolved):
			response.Fail(c, http.StatusConflict, response.ErrAlreadySolved)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusCreated, submission)
}

// ReportViolation godoc
// POST /api/v1/participant/contests/:contest_id/violations
// Synchronous ingestion path: the detector gets the updated totals back and
// can warn the participant immediately.
func (h *ProgressionHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	var req model.ReportViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	req.ContestID = contestID
	req.Category = model.NormalizeCategory(req.ViolationType)

	outcome, err := h.violations.RecordViolation(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// GetProctoringStatus godoc
// GET /api/v1/participant/contests/:contest_id/proctoring
func (h *ProgressionHandler) GetProctoringStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	agg, records, err := h.violations.GetStatus(c.Request.Context(), claims.UserID, contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"status":     agg,
		"violations": records,
	})
}
