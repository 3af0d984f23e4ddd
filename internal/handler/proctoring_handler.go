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

// ProctoringHandler handles the staff proctoring endpoints: the per-contest
// configuration, per-participant violation drill-ins, and the manual
// override actions.
type ProctoringHandler struct {
	violations *service.ViolationService
	overrides  *service.OverrideService
}

// NewProctoringHandler creates a new ProctoringHandler.
func NewProctoringHandler(violations *service.ViolationService, overrides *service.OverrideService) *ProctoringHandler {
	return &ProctoringHandler{
		violations: violations,
		overrides:  overrides,
	}
}

func participantIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("participant_id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// GetConfig godoc
// GET /api/v1/admin/contests/:contest_id/proctoring/config
func (h *ProctoringHandler) GetConfig(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	cfg, err := h.violations.GetConfig(c.Request.Context(), contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// UpdateConfig godoc
// PUT /api/v1/admin/contests/:contest_id/proctoring/config
func (h *ProctoringHandler) UpdateConfig(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateProctoringConfigRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cfg, err := h.violations.UpdateConfig(c.Request.Context(), contestID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, cfg)
}

// GetParticipantStatus godoc
// GET /api/v1/admin/contests/:contest_id/proctoring/participants/:participant_id
// Returns the aggregate plus the recent violation history.
func (h *ProctoringHandler) GetParticipantStatus(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	aggregate, records, err := h.violations.GetStatus(c.Request.Context(), participantID, contestID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"status":     aggregate,
		"violations": records,
	})
}

// DisqualifyRequest carries the staff-entered reason.
type DisqualifyRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// Disqualify godoc
// POST /api/v1/admin/contests/:contest_id/proctoring/participants/:participant_id/disqualify
func (h *ProctoringHandler) Disqualify(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	var req DisqualifyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.overrides.ManualDisqualify(c.Request.Context(), participantID, contestID, req.Reason); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"disqualified": true})
}

// AllowExtraRequest carries the number of additional violations to tolerate.
type AllowExtraRequest struct {
	Amount int `json:"amount" binding:"required,min=1,max=100"`
}

// AllowExtra godoc
// POST /api/v1/admin/contests/:contest_id/proctoring/participants/:participant_id/allow-extra
// Raises the participant's violation allowance and reinstates them if they
// were disqualified. The violation history is kept.
func (h *ProctoringHandler) AllowExtra(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	var req AllowExtraRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	aggregate, err := h.overrides.AllowExtra(c.Request.Context(), participantID, contestID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, aggregate)
}

// ResetViolations godoc
// POST /api/v1/admin/contests/:contest_id/proctoring/participants/:participant_id/reset-violations
func (h *ProctoringHandler) ResetViolations(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	if err := h.overrides.ResetViolations(c.Request.Context(), participantID, contestID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ResetProgress godoc
// POST /api/v1/admin/contests/:contest_id/proctoring/participants/:participant_id/reset-progress
// Wipes the participant's level states and violation counters for the contest.
func (h *ProctoringHandler) ResetProgress(c *gin.Context) {
	contestID, ok := contestIDParam(c)
	if !ok {
		return
	}
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	if err := h.overrides.ResetProgress(c.Request.Context(), participantID, contestID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
