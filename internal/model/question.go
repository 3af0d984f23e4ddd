package model

import (
	"encoding/json"
	"time"
)

// Question is one debugging challenge inside a round. Participants receive
// the buggy boilerplate and the expected output; the judge collaborator runs
// their fix against the test cases.
type Question struct {
	ID             int64           `json:"id"`
	RoundID        int64           `json:"round_id"`
	Number         int             `json:"number"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	ExpectedOutput string          `json:"expected_output,omitempty"`
	BuggyCode      string          `json:"buggy_code,omitempty"`
	Difficulty     string          `json:"difficulty,omitempty"`
	Points         float64         `json:"points"`
	TestCases      json.RawMessage `json:"test_cases,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CreateQuestionRequest is the staff payload for adding a question to a round.
type CreateQuestionRequest struct {
	Title          string          `json:"title" binding:"required,min=3,max=255"`
	Description    string          `json:"description" binding:"omitempty,max=5000"`
	ExpectedOutput string          `json:"expected_output" binding:"omitempty,max=5000"`
	BuggyCode      string          `json:"boilerplate" binding:"omitempty,max=20000"`
	Difficulty     string          `json:"difficulty" binding:"omitempty,max=32"`
	Points         float64         `json:"points" binding:"omitempty,min=0,max=1000"`
	TestCases      json.RawMessage `json:"test_cases" binding:"omitempty"`
	TimeLimit      *int            `json:"time_limit" binding:"omitempty,min=1,max=480"`
}

// UpdateQuestionRequest is the staff payload for editing a question.
type UpdateQuestionRequest struct {
	Title          *string         `json:"title" binding:"omitempty,min=3,max=255"`
	Description    *string         `json:"description" binding:"omitempty,max=5000"`
	ExpectedOutput *string         `json:"expected_output" binding:"omitempty,max=5000"`
	BuggyCode      *string         `json:"boilerplate" binding:"omitempty,max=20000"`
	Difficulty     *string         `json:"difficulty" binding:"omitempty,max=32"`
	TestCases      json.RawMessage `json:"test_cases" binding:"omitempty"`
}

// Submission records one judged attempt at a question. The verdict comes
// from the external execution sandbox; this core only stores it.
type Submission struct {
	ID            int64           `json:"id"`
	ParticipantID int             `json:"participant_id"`
	ContestID     int64           `json:"contest_id"`
	RoundID       int64           `json:"round_id"`
	QuestionID    int64           `json:"question_id"`
	Level         int             `json:"level"`
	IsCorrect     bool            `json:"is_correct"`
	ScoreAwarded  float64         `json:"score_awarded"`
	TestResults   json.RawMessage `json:"test_results,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// RecordSubmissionRequest is the payload carrying a judged verdict.
type RecordSubmissionRequest struct {
	ContestID   int64           `json:"contest_id" binding:"required"`
	QuestionID  int64           `json:"question_id" binding:"required"`
	Level       int             `json:"level" binding:"omitempty,min=1,max=10"`
	Passed      bool            `json:"passed"`
	Score       float64         `json:"score" binding:"omitempty,min=0,max=1000"`
	TestResults json.RawMessage `json:"test_results" binding:"omitempty"`
}
