package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/repository"
)

// Question validation errors.
var (
	ErrOptionsRequired = errors.New("options required")
	ErrSingleChoice    = errors.New("single-choice questions take exactly one correct option")
)

// QuestionService handles question management for the editor.
type QuestionService struct {
	categories *repository.CategoryRepository
	questions  *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(categories *repository.CategoryRepository, questions *repository.QuestionRepository) *QuestionService {
	return &QuestionService{categories: categories, questions: questions}
}

// ListByCategory returns a category's questions in editor shape. The
// category may be addressed by id or slug.
func (s *QuestionService) ListByCategory(ctx context.Context, idOrSlug string) ([]model.QuestionForEditor, error) {
	category, err := s.resolveCategory(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListByCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	out := make([]model.QuestionForEditor, len(questions))
	for i := range questions {
		out[i] = toEditor(&questions[i])
	}
	return out, nil
}

// Get returns one question in editor shape.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.QuestionForEditor, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	editor := toEditor(q)
	return &editor, nil
}

// Create adds a question to a category. Correctness may be marked per
// option or through one of the aggregate fields; with nothing marked the
// first option is taken as correct.
func (s *QuestionService) Create(ctx context.Context, idOrSlug string, req *model.CreateQuestionRequest) (*model.QuestionForEditor, error) {
	category, err := s.resolveCategory(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	options, err := normalizeOptions(req.Options, req.CorrectOptionIDs, req.CorrectIndexes, req.CorrectOptionTexts)
	if err != nil {
		return nil, err
	}

	qType, err := resolveType(req.Type, options)
	if err != nil {
		return nil, err
	}

	q := &model.Question{
		CategoryID:  category.ID,
		Text:        req.Text,
		Explanation: req.Explanation,
		Difficulty:  req.Difficulty,
		Type:        qType,
		ImageURL:    req.ImageURL,
		Options:     options,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	editor := toEditor(q)
	return &editor, nil
}

// Update applies a partial update. A non-nil Options slice replaces the
// existing options wholesale and re-resolves correctness.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.QuestionForEditor, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Explanation != nil {
		q.Explanation = req.Explanation
	}
	if req.Difficulty != nil {
		q.Difficulty = *req.Difficulty
	}
	if req.ImageURL != nil {
		q.ImageURL = req.ImageURL
	}

	replaceOptions := req.Options != nil
	if replaceOptions {
		options, err := normalizeOptions(req.Options, req.CorrectOptionIDs, req.CorrectIndexes, req.CorrectOptionTexts)
		if err != nil {
			return nil, err
		}
		q.Options = options
	}

	qType, err := resolveType(req.Type, q.Options)
	if err != nil {
		return nil, err
	}
	q.Type = qType

	if err := s.questions.Update(ctx, q, replaceOptions); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}

	editor := toEditor(q)
	return &editor, nil
}

// Delete removes a question and its options.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.questions.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// resolveCategory accepts a category id or slug.
func (s *QuestionService) resolveCategory(ctx context.Context, idOrSlug string) (*model.Category, error) {
	var (
		category *model.Category
		err      error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		category, err = s.categories.GetByID(ctx, id)
	} else {
		category, err = s.categories.GetBySlug(ctx, idOrSlug)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return category, err
}

// normalizeOptions converts editor inputs into options with resolved
// correctness. Marking sources are tried in order: per-option flags,
// option ids (including positional pos-<n> ids), indexes, texts. When no
// source marks anything the first option wins.
func normalizeOptions(inputs []model.OptionInput, correctIDs []string, correctIndexes []int, correctTexts []string) ([]model.Option, error) {
	if len(inputs) == 0 {
		return nil, ErrOptionsRequired
	}

	options := make([]model.Option, len(inputs))
	for i, in := range inputs {
		options[i] = model.Option{Text: strings.TrimSpace(in.Text)}
	}

	marked := false
	for i, in := range inputs {
		if in.IsCorrect != nil && *in.IsCorrect {
			options[i].IsCorrect = true
			marked = true
		}
	}

	if !marked {
		for _, rawID := range correctIDs {
			if i, ok := positionFromID(rawID, inputs); ok {
				options[i].IsCorrect = true
				marked = true
			}
		}
	}

	if !marked {
		for _, idx := range correctIndexes {
			if idx >= 0 && idx < len(options) {
				options[idx].IsCorrect = true
				marked = true
			}
		}
	}

	if !marked {
		for _, text := range correctTexts {
			want := strings.ToLower(strings.TrimSpace(text))
			for i := range options {
				if strings.ToLower(options[i].Text) == want {
					options[i].IsCorrect = true
					marked = true
				}
			}
		}
	}

	if !marked {
		options[0].IsCorrect = true
	}
	return options, nil
}

// positionFromID resolves a client-sent option id to an input position.
// Editor payloads may carry either existing option UUIDs or synthetic
// 1-based "pos-<n>" ids for options that are not persisted yet.
func positionFromID(rawID string, inputs []model.OptionInput) (int, bool) {
	if n, err := strconv.Atoi(strings.TrimPrefix(rawID, "pos-")); err == nil && strings.HasPrefix(rawID, "pos-") {
		if n >= 1 && n <= len(inputs) {
			return n - 1, true
		}
		return 0, false
	}
	for i, in := range inputs {
		if in.ID != "" && in.ID == rawID {
			return i, true
		}
	}
	return 0, false
}

// resolveType derives single/multi from the correct count unless the
// caller pinned a type explicitly.
func resolveType(explicit *model.QuestionType, options []model.Option) (model.QuestionType, error) {
	correct := 0
	for _, o := range options {
		if o.IsCorrect {
			correct++
		}
	}

	if explicit != nil {
		if *explicit == model.QuestionTypeSingle && correct > 1 {
			return "", ErrSingleChoice
		}
		return *explicit, nil
	}
	if correct > 1 {
		return model.QuestionTypeMulti, nil
	}
	return model.QuestionTypeSingle, nil
}

func toEditor(q *model.Question) model.QuestionForEditor {
	options := make([]model.OptionForPlay, len(q.Options))
	for i, o := range q.Options {
		options[i] = model.OptionForPlay{ID: o.ID, Text: o.Text}
	}
	return model.QuestionForEditor{
		ID:               q.ID,
		Text:             q.Text,
		Explanation:      q.Explanation,
		Difficulty:       q.Difficulty,
		Type:             q.Type,
		ImageURL:         q.ImageURL,
		Options:          options,
		CorrectOptionIDs: q.CorrectOptionIDs(),
	}
}
