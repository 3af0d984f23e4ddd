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

// ScoreQueueFunc hands a level-stat recount off to the scoring worker. nil
// means recounts run inline.
type ScoreQueueFunc func(ctx context.Context, participantID int, contestID int64, level int) error

// QuestionService manages the question bank and judged submissions.
// Participants only ever see questions of the currently active round.
type QuestionService struct {
	questions   *repository.QuestionRepository
	submissions *repository.SubmissionRepository
	rounds      *repository.RoundRepository
	progression *ProgressionService
	scoreQueue  ScoreQueueFunc
	log         zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository, submissions *repository.SubmissionRepository, rounds *repository.RoundRepository, progression *ProgressionService, scoreQueue ScoreQueueFunc) *QuestionService {
	return &QuestionService{
		questions:   questions,
		submissions: submissions,
		rounds:      rounds,
		progression: progression,
		scoreQueue:  scoreQueue,
		log:         log.With().Str("component", "question_service").Logger(),
	}
}

// ListForParticipant returns the active round's questions with the
// participant's solved set, or an empty list when no round is live. Buggy
// code stays in the payload; expected outputs and test cases do not.
func (s *QuestionService) ListForParticipant(ctx context.Context, participantID int, contestID int64) ([]model.Question, []int64, error) {
	round, err := s.rounds.GetActive(ctx, contestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	allowed, err := s.progression.IsAllowed(ctx, participantID, contestID, round.Number)
	if err != nil {
		return nil, nil, err
	}
	if !allowed {
		return nil, nil, ErrNotShortlisted
	}

	questions, err := s.questions.ListForRound(ctx, contestID, round.Number)
	if err != nil {
		return nil, nil, err
	}
	for i := range questions {
		questions[i].ExpectedOutput = ""
		questions[i].TestCases = nil
	}
	solved, err := s.submissions.SolvedQuestionIDs(ctx, participantID, contestID)
	if err != nil {
		return nil, nil, err
	}
	return questions, solved, nil
}

// ListForLevel returns a level's questions unredacted, for staff.
func (s *QuestionService) ListForLevel(ctx context.Context, contestID int64, level int) ([]model.Question, error) {
	return s.questions.ListForRound(ctx, contestID, level)
}

// Create adds a question to a level, creating the round row on first use.
// Titles are unique within a round. A time_limit in the payload updates the
// round itself.
func (s *QuestionService) Create(ctx context.Context, contestID int64, level int, req *model.CreateQuestionRequest) (*model.Question, error) {
	round, err := s.rounds.EnsureRound(ctx, contestID, level)
	if err != nil {
		return nil, err
	}

	exists, err := s.questions.TitleExists(ctx, round.ID, req.Title)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTitle
	}

	question, err := s.questions.Create(ctx, round.ID, req)
	if err != nil {
		return nil, err
	}
	if req.TimeLimit != nil {
		if err := s.rounds.SetTimeLimit(ctx, round.ID, *req.TimeLimit); err != nil {
			s.log.Warn().Err(err).Int64("round_id", round.ID).Msg("Round time limit update failed")
		}
	}
	s.log.Info().Int64("question_id", question.ID).Int("level", level).Msg("Question created")
	return question, nil
}

// Update applies staff edits to a question.
func (s *QuestionService) Update(ctx context.Context, id int64, req *model.UpdateQuestionRequest) (*model.Question, error) {
	question, err := s.questions.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return question, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		return err
	}
	return nil
}

// RecordSubmission stores a judged verdict. The question must belong to the
// contest's active round, and a question already solved by the participant
// rejects further scoring.
func (s *QuestionService) RecordSubmission(ctx context.Context, participantID int, req *model.RecordSubmissionRequest) (*model.Submission, error) {
	contestID, roundID, level, err := s.questions.GetRoundRef(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	if contestID != req.ContestID {
		return nil, ErrQuestionNotFound
	}

	active, err := s.rounds.GetActive(ctx, contestID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if active == nil || active.ID != roundID {
		return nil, ErrLevelNotActive
	}

	if req.Passed {
		solved, err := s.submissions.HasCorrect(ctx, participantID, req.QuestionID)
		if err != nil {
			return nil, err
		}
		if solved {
			return nil, ErrAlreadySolved
		}
	}

	submission := &model.Submission{
		ParticipantID: participantID,
		ContestID:     contestID,
		RoundID:       roundID,
		QuestionID:    req.QuestionID,
		Level:         level,
		IsCorrect:     req.Passed,
		ScoreAwarded:  req.Score,
		TestResults:   req.TestResults,
	}
	if !req.Passed {
		submission.ScoreAwarded = 0
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}
	if req.Passed {
		s.recalcStats(ctx, participantID, contestID, level)
	}
	return submission, nil
}

// recalcStats prefers the scoring queue so a burst of submissions does not
// serialize on the recount. Falls back to an inline recount when the queue
// is unavailable.
func (s *QuestionService) recalcStats(ctx context.Context, participantID int, contestID int64, level int) {
	if s.scoreQueue != nil {
		if err := s.scoreQueue(ctx, participantID, contestID, level); err == nil {
			return
		}
		s.log.Warn().Int("participant_id", participantID).Msg("Score queue unavailable, recounting inline")
	}
	if err := s.submissions.RecalcLevelStats(ctx, participantID, contestID, level); err != nil {
		s.log.Warn().Err(err).Int("participant_id", participantID).Msg("Level stats recalc failed")
	}
}
