package handler

import (
	"errors"
	"net/http"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/response"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/codearena/codearena-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// ContestHandler handles the staff contest management endpoints.
type ContestHandler struct {
	contests    *service.ContestService
	rounds      *service.RoundService
	progression *service.ProgressionService
}

// NewContestHandler creates a new ContestHandler.
func NewContestHandler(contests *service.ContestService, rounds *service.RoundService, progression *service.ProgressionService) *ContestHandler {
	return &ContestHandler{
		contests:    contests,
		rounds:      rounds,
		progression: progression,
	}
}

// List godoc
// GET /api/v1/admin/contests
func (h *ContestHandler) List(c *gin.Context) {
	contests, err := h.contests.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"contests": contests})
}

// Create godoc
// POST /api/v1/admin/contests
func (h *ContestHandler) Create(c *gin.Context) {
	var req model.CreateContestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contest, err := h.contests.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, contest)
}

// Get godoc
// GET /api/v1/admin/contests/:contest_id
func (h *ContestHandler) Get(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	contest, err := h.contests.Get(c.Request.Context(), contestID)
	if err != nil {
		if errors.Is(err, service.ErrContestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	rounds, err := h.rounds.List(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"contest": contest,
		"rounds":  rounds,
	})
}

// Update godoc
// PUT /api/v1/admin/contests/:contest_id
func (h *ContestHandler) Update(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateContestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contest, err := h.contests.Update(c.Request.Context(), contestID, &req)
	if err != nil {
		if errors.Is(err, service.ErrContestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// Delete godoc
// DELETE /api/v1/admin/contests/:contest_id
func (h *ContestHandler) Delete(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	if err := h.contests.Delete(c.Request.Context(), contestID); err != nil {
		if errors.Is(err, service.ErrContestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// transition is shared by the start/pause/end control endpoints.
func (h *ContestHandler) transition(c *gin.Context, status model.ContestStatus) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	contest, err := h.contests.Transition(c.Request.Context(), contestID, status)
	if err != nil {
		if errors.Is(err, service.ErrContestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// Start godoc
// POST /api/v1/admin/contests/:contest_id/start
func (h *ContestHandler) Start(c *gin.Context) { h.transition(c, model.ContestStatusLive) }

// Pause godoc
// POST /api/v1/admin/contests/:contest_id/pause
func (h *ContestHandler) Pause(c *gin.Context) { h.transition(c, model.ContestStatusPaused) }

// End godoc
// POST /api/v1/admin/contests/:contest_id/end
func (h *ContestHandler) End(c *gin.Context) { h.transition(c, model.ContestStatusEnded) }

// Stats godoc
// GET /api/v1/admin/contests/:contest_id/stats
func (h *ContestHandler) Stats(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	stats, err := h.contests.Stats(c.Request.Context(), contestID)
	if err != nil {
		if errors.Is(err, service.ErrContestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// ListRounds godoc
// GET /api/v1/admin/contests/:contest_id/rounds
func (h *ContestHandler) ListRounds(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	rounds, err := h.rounds.List(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rounds": rounds})
}

// ActivateRound godoc
// POST /api/v1/admin/contests/:contest_id/rounds/:level/activate
func (h *ContestHandler) ActivateRound(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	round, err := h.rounds.Activate(c.Request.Context(), contestID, level)
	if err != nil {
		if errors.Is(err, service.ErrContestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, round)
}

// PauseRound godoc
// POST /api/v1/admin/contests/:contest_id/rounds/:level/pause
func (h *ContestHandler) PauseRound(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	round, err := h.rounds.Pause(c.Request.Context(), contestID, level)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"round": round})
}

// CompleteRound godoc
// POST /api/v1/admin/contests/:contest_id/rounds/:level/complete
func (h *ContestHandler) CompleteRound(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	round, err := h.rounds.Complete(c.Request.Context(), contestID, level)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"round": round})
}

// UpdateRound godoc
// PUT /api/v1/admin/contests/:contest_id/rounds/:level
func (h *ContestHandler) UpdateRound(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	var req model.UpdateRoundRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	round, err := h.rounds.Update(c.Request.Context(), contestID, level, &req)
	if err != nil {
		if errors.Is(err, service.ErrRoundNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, round)
}

// QualifyRequest carries the replacement shortlist for a level.
type QualifyRequest struct {
	ParticipantIDs []int `json:"participant_ids" binding:"required"`
}

// Qualify godoc
// PUT /api/v1/admin/contests/:contest_id/rounds/:level/shortlist
// Replaces the level's shortlist wholesale.
func (h *ContestHandler) Qualify(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	var req QualifyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.progression.Qualify(c.Request.Context(), contestID, level, req.ParticipantIDs); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"qualified": len(req.ParticipantIDs)})
}

// GetShortlist godoc
// GET /api/v1/admin/contests/:contest_id/rounds/:level/shortlist
func (h *ContestHandler) GetShortlist(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	level, ok := levelParam(c)
	if !ok {
		return
	}

	ids, err := h.progression.Shortlist(c.Request.Context(), contestID, level)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"participant_ids": ids})
}

// CountdownRequest carries the countdown duration.
type CountdownRequest struct {
	DurationMinutes int `json:"duration" binding:"required,min=1,max=480"`
}

// StartCountdown godoc
// POST /api/v1/admin/contests/:contest_id/countdown
func (h *ContestHandler) StartCountdown(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	var req CountdownRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.rounds.StartCountdown(c.Request.Context(), contestID, req.DurationMinutes)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// StopCountdown godoc
// DELETE /api/v1/admin/contests/:contest_id/countdown
func (h *ContestHandler) StopCountdown(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	if err := h.rounds.StopCountdown(c.Request.Context(), contestID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
