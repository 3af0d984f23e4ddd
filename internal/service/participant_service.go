package service

import (
	"context"
	"errors"

	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParticipantService handles participant accounts and logins.
type ParticipantService struct {
	participants *repository.ParticipantRepository
	admins       *repository.AdminRepository
	proctoring   *repository.ProctoringRepository
	auth         *AuthService
	log          zerolog.Logger
}

// NewParticipantService creates a new ParticipantService.
func NewParticipantService(participants *repository.ParticipantRepository, admins *repository.AdminRepository, proctoring *repository.ProctoringRepository, auth *AuthService) *ParticipantService {
	return &ParticipantService{
		participants: participants,
		admins:       admins,
		proctoring:   proctoring,
		auth:         auth,
		log:          log.With().Str("component", "participant_service").Logger(),
	}
}

// Login authenticates a participant and issues a single-device token.
// Disqualified participants cannot log back in.
func (s *ParticipantService) Login(ctx context.Context, req *model.ParticipantLoginRequest) (string, *model.Participant, error) {
	participant, err := s.participants.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := s.auth.CheckPassword(participant.PasswordHash, req.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	disqualified, err := s.proctoring.IsDisqualified(ctx, participant.ID)
	if err != nil {
		return "", nil, err
	}
	if disqualified {
		return "", nil, ErrDisqualified
	}

	token, err := s.auth.GenerateParticipantToken(ctx, participant.ID)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Int("participant_id", participant.ID).Msg("Participant logged in")
	return token, participant, nil
}

// AdminLogin authenticates a staff account and issues a token carrying the
// role's permissions.
func (s *ParticipantService) AdminLogin(ctx context.Context, req *model.AdminLoginRequest) (string, *model.Admin, error) {
	admin, err := s.admins.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := s.auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.auth.GenerateAdminToken(admin.ID, admin.RoleID, admin.Permissions)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Int("admin_id", admin.ID).Str("role", admin.RoleName).Msg("Admin logged in")
	return token, admin, nil
}

// Create registers a participant account.
func (s *ParticipantService) Create(ctx context.Context, req *model.CreateParticipantRequest) (*model.Participant, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	participant, err := s.participants.Create(ctx, req.Username, req.FullName, hash)
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// Get retrieves a participant.
func (s *ParticipantService) Get(ctx context.Context, id int) (*model.Participant, error) {
	participant, err := s.participants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return participant, nil
}

// List returns all participant accounts.
func (s *ParticipantService) List(ctx context.Context) ([]model.Participant, error) {
	return s.participants.List(ctx)
}

// Delete removes a participant account and frees their session.
func (s *ParticipantService) Delete(ctx context.Context, id int) error {
	if err := s.participants.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrParticipantNotFound
		}
		return err
	}
	return s.auth.ResetParticipantSession(ctx, id)
}

// ResetSession frees a participant's single-device session so they can log
// in again from a new device.
func (s *ParticipantService) ResetSession(ctx context.Context, id int) error {
	if err := s.auth.ResetParticipantSession(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int("participant_id", id).Msg("Session reset")
	return nil
}
