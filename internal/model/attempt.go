package model

import (
	"time"

	"github.com/google/uuid"
)

// SavedAnswer is one entry of an attempt's saved-answers snapshot.
type SavedAnswer struct {
	QuestionID      uuid.UUID   `json:"question_id"`
	ChosenOptionIDs []uuid.UUID `json:"chosen_option_ids"`
	AnsweredAt      time.Time   `json:"answered_at"`
}

// Attempt is one quiz-taking session. The question set is frozen at
// creation and EndAt is computed once, so the countdown stays stable
// across reads. Submission replaces EndAt with the submission time.
type Attempt struct {
	ID           int64         `json:"-"`
	AttemptID    string        `json:"attempt_id"`
	CategoryID   uuid.UUID     `json:"category_id"`
	UserID       *uuid.UUID    `json:"user_id,omitempty"`
	QuestionIDs  []uuid.UUID   `json:"question_ids"`
	NumQuestions int           `json:"num_questions"`
	TimeLimitSec int           `json:"time_limit_sec"`
	StartedAt    time.Time     `json:"started_at"`
	EndAt        *time.Time    `json:"end_at,omitempty"`
	SavedAnswers []SavedAnswer `json:"saved_answers"`
	IsCompleted  bool          `json:"is_completed"`
	Score        *int          `json:"score,omitempty"`
	TimeTakenSec *int          `json:"time_taken_sec,omitempty"`
	SubmittedAt  *time.Time    `json:"submitted_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Deadline returns the persisted end time, falling back to
// started_at + time limit for legacy rows without one.
func (a *Attempt) Deadline() time.Time {
	if a.EndAt != nil {
		return *a.EndAt
	}
	return a.StartedAt.Add(time.Duration(a.TimeLimitSec) * time.Second)
}

// CreateAttemptRequest is the payload for starting an attempt.
// time_limit_minutes is accepted as an alias of time_limit_min.
type CreateAttemptRequest struct {
	CategoryID       uuid.UUID   `json:"category_id" binding:"required"`
	Difficulty       *Difficulty `json:"difficulty" binding:"omitempty,oneof=easy medium hard mixed"`
	NumQuestions     int         `json:"num_questions" binding:"required,min=1"`
	TimeLimitMin     *int        `json:"time_limit_min" binding:"omitempty,min=1"`
	TimeLimitMinutes *int        `json:"time_limit_minutes" binding:"omitempty,min=1"`
}

// AnswerInput is one answer as sent by the client during autosave or submit.
type AnswerInput struct {
	QuestionID      uuid.UUID   `json:"question_id" binding:"required"`
	ChosenOptionIDs []uuid.UUID `json:"chosen_option_ids"`
}

// SaveProgressRequest replaces an attempt's entire saved-answers snapshot.
type SaveProgressRequest struct {
	Answers []AnswerInput `json:"answers" binding:"required,dive"`
}

// SubmitRequest optionally carries final answers; when empty the last
// autosaved snapshot is graded instead.
type SubmitRequest struct {
	Answers []AnswerInput `json:"answers" binding:"omitempty,dive"`
}

// QuestionForAttempt is the player-facing question shape used in attempt
// payloads: option order is the per-attempt deterministic shuffle and
// correctness flags are stripped.
type QuestionForAttempt struct {
	ID         uuid.UUID       `json:"id"`
	Text       string          `json:"text"`
	Type       QuestionType    `json:"type"`
	Difficulty Difficulty      `json:"difficulty"`
	ImageURL   *string         `json:"image_url,omitempty"`
	Options    []OptionForPlay `json:"options"`
}

// CategorySummary is the compact category shape embedded in attempt payloads.
type CategorySummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
}

// AttemptPayload is the response to attempt creation.
type AttemptPayload struct {
	AttemptID    string               `json:"attempt_id"`
	StartedAt    time.Time            `json:"started_at"`
	EndAt        time.Time            `json:"end_at"`
	TimeLimitSec int                  `json:"time_limit_sec"`
	ServerNow    time.Time            `json:"server_now"`
	Questions    []QuestionForAttempt `json:"questions"`
	Category     *CategorySummary     `json:"category,omitempty"`
}

// AttemptState is the response to fetching/resuming an attempt. It extends
// the creation payload with saved progress and completion data.
type AttemptState struct {
	AttemptID      string                    `json:"attempt_id"`
	CategoryID     uuid.UUID                 `json:"category_id"`
	Category       *CategorySummary          `json:"category,omitempty"`
	NumQuestions   int                       `json:"num_questions"`
	TimeLimitSec   int                       `json:"time_limit_sec"`
	StartedAt      time.Time                 `json:"started_at"`
	EndAt          time.Time                 `json:"end_at"`
	ServerNow      time.Time                 `json:"server_now"`
	Questions      []QuestionForAttempt      `json:"questions"`
	CurrentAnswers map[uuid.UUID][]uuid.UUID `json:"current_answers"`
	IsCompleted    bool                      `json:"is_completed"`
	Score          *int                      `json:"score,omitempty"`
}

// SaveProgressAck acknowledges an autosave; server_now lets clients
// correct for clock skew.
type SaveProgressAck struct {
	Saved     bool      `json:"saved"`
	ServerNow time.Time `json:"server_now"`
}

// QuestionBreakdown is the per-question grading detail returned on submit.
// This is the only payload that exposes correct option ids and texts.
type QuestionBreakdown struct {
	QuestionID         uuid.UUID   `json:"question_id"`
	IsCorrect          bool        `json:"is_correct"`
	UserAnswerIDs      []uuid.UUID `json:"user_answer_ids"`
	CorrectAnswerIDs   []uuid.UUID `json:"correct_answer_ids"`
	UserAnswerTexts    []string    `json:"user_answer_texts"`
	CorrectAnswerTexts []string    `json:"correct_answer_texts"`
	Explanation        *string     `json:"explanation"`
}

// SubmitResult is the grading summary returned on submit.
type SubmitResult struct {
	AttemptID       string              `json:"attempt_id"`
	Score           int                 `json:"score"`
	CorrectCount    int                 `json:"correct_count"`
	IncorrectCount  int                 `json:"incorrect_count"`
	UnselectedCount int                 `json:"unselected_count"`
	Total           int                 `json:"total"`
	TimeTakenSec    int                 `json:"time_taken_sec"`
	SubmittedAt     time.Time           `json:"submitted_at"`
	Breakdown       []QuestionBreakdown `json:"breakdown"`
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	ID          string    `json:"id"`
	UserName    string    `json:"user_name"`
	Score       int       `json:"score"`
	TimeSec     int       `json:"time_sec"`
	SubmittedAt time.Time `json:"submitted_at"`
	Rank        int       `json:"rank"`
	CategoryID  uuid.UUID `json:"category_id"`
}
