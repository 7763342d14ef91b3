package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType distinguishes single-choice from multi-choice questions.
type QuestionType string

const (
	QuestionTypeSingle QuestionType = "single"
	QuestionTypeMulti  QuestionType = "multi"
)

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Option is one answer choice of a question. IsCorrect is never exposed
// through player-facing payloads.
type Option struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"-"`
}

// Question is a quiz question with its answer options.
type Question struct {
	ID          uuid.UUID    `json:"id"`
	CategoryID  uuid.UUID    `json:"category_id"`
	Text        string       `json:"text"`
	Explanation *string      `json:"explanation,omitempty"`
	Difficulty  Difficulty   `json:"difficulty"`
	Type        QuestionType `json:"type"`
	ImageURL    *string      `json:"image_url,omitempty"`
	Options     []Option     `json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CorrectOptionIDs returns the ids of all options flagged correct.
func (q *Question) CorrectOptionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(q.Options))
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// OptionInput is one answer choice as submitted by the editor UI.
// ID is optional and only used to map correctness sent via correct_option_ids;
// positional ids of the form "pos-<n>" are accepted for new options.
type OptionInput struct {
	ID        string `json:"id" binding:"omitempty,max=64"`
	Text      string `json:"text" binding:"required,min=1,max=500"`
	IsCorrect *bool  `json:"is_correct"`
}

// CreateQuestionRequest is the payload for creating a question.
// Correctness can be marked per option (is_correct) or through one of the
// aggregate fields; when nothing is marked the first option wins by default.
type CreateQuestionRequest struct {
	Text               string        `json:"text" binding:"required,min=1,max=2000"`
	Explanation        *string       `json:"explanation" binding:"omitempty,max=2000"`
	Difficulty         Difficulty    `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Type               *QuestionType `json:"type" binding:"omitempty,oneof=single multi"`
	ImageURL           *string       `json:"image_url" binding:"omitempty,max=500"`
	Options            []OptionInput `json:"options" binding:"required,dive"`
	CorrectOptionIDs   []string      `json:"correct_option_ids"`
	CorrectIndexes     []int         `json:"correct_indexes"`
	CorrectOptionTexts []string      `json:"correct_option_texts"`
}

// UpdateQuestionRequest is the payload for a partial question update.
// When Options is non-nil the existing options are replaced wholesale.
type UpdateQuestionRequest struct {
	Text               *string       `json:"text" binding:"omitempty,min=1,max=2000"`
	Explanation        *string       `json:"explanation" binding:"omitempty,max=2000"`
	Difficulty         *Difficulty   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Type               *QuestionType `json:"type" binding:"omitempty,oneof=single multi"`
	ImageURL           *string       `json:"image_url" binding:"omitempty,max=500"`
	Options            []OptionInput `json:"options" binding:"omitempty,dive"`
	CorrectOptionIDs   []string      `json:"correct_option_ids"`
	CorrectIndexes     []int         `json:"correct_indexes"`
	CorrectOptionTexts []string      `json:"correct_option_texts"`
}

// QuestionForEditor is the admin-facing question payload, including which
// options are correct so the editor can preselect them.
type QuestionForEditor struct {
	ID               uuid.UUID       `json:"id"`
	Text             string          `json:"text"`
	Explanation      *string         `json:"explanation,omitempty"`
	Difficulty       Difficulty      `json:"difficulty"`
	Type             QuestionType    `json:"type"`
	ImageURL         *string         `json:"image_url,omitempty"`
	Options          []OptionForPlay `json:"options"`
	CorrectOptionIDs []uuid.UUID     `json:"correct_option_ids"`
}

// OptionForPlay is the player-facing option shape: id and text only.
type OptionForPlay struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}
