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

// ParticipantHandler handles the staff participant management endpoints.
type ParticipantHandler struct {
	participants *service.ParticipantService
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(participants *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// List godoc
// GET /api/v1/admin/participants
func (h *ParticipantHandler) List(c *gin.Context) {
	participants, err := h.participants.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"participants": participants})
}

// Create godoc
// POST /api/v1/admin/participants
func (h *ParticipantHandler) Create(c *gin.Context) {
	var req model.CreateParticipantRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	participant, err := h.participants.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, participant)
}

// Get godoc
// GET /api/v1/admin/participants/:participant_id
func (h *ParticipantHandler) Get(c *gin.Context) {
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	participant, err := h.participants.Get(c.Request.Context(), participantID)
	if err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, participant)
}

// Delete godoc
// DELETE /api/v1/admin/participants/:participant_id
func (h *ParticipantHandler) Delete(c *gin.Context) {
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	if err := h.participants.Delete(c.Request.Context(), participantID); err != nil {
		if errors.Is(err, service.ErrParticipantNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ResetSession godoc
// POST /api/v1/admin/participants/:participant_id/reset-session
// Clears the single-device session lock so the participant can log in again.
func (h *ParticipantHandler) ResetSession(c *gin.Context) {
	participantID, ok := participantIDParam(c)
	if !ok {
		return
	}

	if err := h.participants.ResetSession(c.Request.Context(), participantID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
