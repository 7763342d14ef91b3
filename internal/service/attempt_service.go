package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	mrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/random"
)

// Attempt errors.
var (
	ErrNoQuestions      = errors.New("category has no questions for this difficulty")
	ErrAlreadySubmitted = errors.New("attempt is already submitted")
)

const defaultTimeLimitSec = 600

// AttemptStore is the persistence surface the attempt service needs.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	GetByAttemptID(ctx context.Context, attemptID string) (*model.Attempt, error)
	SaveAnswers(ctx context.Context, attemptID string, answers []model.SavedAnswer) error
	Complete(ctx context.Context, attemptID string, answers []model.SavedAnswer, score, timeTakenSec int, submittedAt time.Time) error
}

// QuestionCatalog supplies the question pool attempts draw from.
type QuestionCatalog interface {
	ListIDsByCategory(ctx context.Context, categoryID uuid.UUID, difficulty *model.Difficulty) ([]uuid.UUID, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
}

// CategoryGetter resolves categories for attempt payloads.
type CategoryGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
}

// ScoreQueue receives attempt ids after submission so downstream consumers
// (leaderboard cache invalidation) can react.
type ScoreQueue interface {
	Push(ctx context.Context, attemptID string) error
}

// AttemptService runs quiz-taking sessions: creation with a frozen random
// question set, autosave, deterministic option shuffling and grading.
type AttemptService struct {
	categories CategoryGetter
	questions  QuestionCatalog
	attempts   AttemptStore
	queue      ScoreQueue
	log        zerolog.Logger

	// newRand produces the source for question selection. Swappable so
	// tests can pin the draw.
	newRand func() *mrand.Rand
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(categories CategoryGetter, questions QuestionCatalog, attempts AttemptStore, queue ScoreQueue, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		categories: categories,
		questions:  questions,
		attempts:   attempts,
		queue:      queue,
		log:        log,
		newRand: func() *mrand.Rand {
			return mrand.New(mrand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Create starts an attempt: draws a random question set, freezes its order
// and computes the deadline once.
func (s *AttemptService) Create(ctx context.Context, userID *uuid.UUID, req *model.CreateAttemptRequest) (*model.AttemptPayload, error) {
	category, err := s.categories.GetByID(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var difficulty *model.Difficulty
	if req.Difficulty != nil && *req.Difficulty != "mixed" {
		difficulty = req.Difficulty
	}

	pool, err := s.questions.ListIDsByCategory(ctx, req.CategoryID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("list question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}

	// Fewer questions than requested is not an error: the set shrinks
	// to what the category has.
	n := req.NumQuestions
	if n > len(pool) {
		n = len(pool)
	}
	shuffled := random.Shuffle(s.newRand(), pool)[:n]
	questionIDs := random.EnsureNotIdentity(pool[:n], shuffled)

	attemptID, err := newAttemptID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	endAt := now.Add(time.Duration(resolveTimeLimitSec(req, category)) * time.Second)

	attempt := &model.Attempt{
		AttemptID:    attemptID,
		CategoryID:   req.CategoryID,
		UserID:       userID,
		QuestionIDs:  questionIDs,
		NumQuestions: n,
		TimeLimitSec: resolveTimeLimitSec(req, category),
		StartedAt:    now,
		EndAt:        &endAt,
		SavedAnswers: []model.SavedAnswer{},
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	questions, err := s.loadPresented(ctx, attempt)
	if err != nil {
		return nil, err
	}

	return &model.AttemptPayload{
		AttemptID:    attempt.AttemptID,
		StartedAt:    attempt.StartedAt,
		EndAt:        endAt,
		TimeLimitSec: attempt.TimeLimitSec,
		ServerNow:    time.Now().UTC(),
		Questions:    questions,
		Category:     categorySummary(category),
	}, nil
}

// Get returns the resumable state of an attempt. Question and option order
// are reproduced deterministically, so refreshing mid-quiz never reshuffles.
func (s *AttemptService) Get(ctx context.Context, attemptID string) (*model.AttemptState, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	questions, err := s.loadPresented(ctx, attempt)
	if err != nil {
		return nil, err
	}

	var summary *model.CategorySummary
	if category, err := s.categories.GetByID(ctx, attempt.CategoryID); err == nil {
		summary = categorySummary(category)
	}

	answers := make(map[uuid.UUID][]uuid.UUID, len(attempt.SavedAnswers))
	for _, sa := range attempt.SavedAnswers {
		answers[sa.QuestionID] = sa.ChosenOptionIDs
	}

	return &model.AttemptState{
		AttemptID:      attempt.AttemptID,
		CategoryID:     attempt.CategoryID,
		Category:       summary,
		NumQuestions:   attempt.NumQuestions,
		TimeLimitSec:   attempt.TimeLimitSec,
		StartedAt:      attempt.StartedAt,
		EndAt:          attempt.Deadline(),
		ServerNow:      time.Now().UTC(),
		Questions:      questions,
		CurrentAnswers: answers,
		IsCompleted:    attempt.IsCompleted,
		Score:          attempt.Score,
	}, nil
}

// SaveProgress replaces the attempt's saved-answers snapshot wholesale.
// Partial saves are not merged; the client always sends its full state.
func (s *AttemptService) SaveProgress(ctx context.Context, attemptID string, req *model.SaveProgressRequest) (*model.SaveProgressAck, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted {
		return nil, ErrAlreadySubmitted
	}

	now := time.Now().UTC()
	snapshot := make([]model.SavedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		snapshot = append(snapshot, model.SavedAnswer{
			QuestionID:      a.QuestionID,
			ChosenOptionIDs: a.ChosenOptionIDs,
			AnsweredAt:      now,
		})
	}

	if err := s.attempts.SaveAnswers(ctx, attemptID, snapshot); err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}
	return &model.SaveProgressAck{Saved: true, ServerNow: now}, nil
}

// Submit grades an attempt. Explicit answers win over the autosaved
// snapshot. Late submissions are still graded, and resubmitting overwrites
// the previous result.
func (s *AttemptService) Submit(ctx context.Context, attemptID string, req *model.SubmitRequest) (*model.SubmitResult, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	snapshot := attempt.SavedAnswers
	if len(req.Answers) > 0 {
		snapshot = make([]model.SavedAnswer, 0, len(req.Answers))
		for _, a := range req.Answers {
			snapshot = append(snapshot, model.SavedAnswer{
				QuestionID:      a.QuestionID,
				ChosenOptionIDs: a.ChosenOptionIDs,
				AnsweredAt:      now,
			})
		}
	}

	questions, err := s.loadFrozen(ctx, attempt)
	if err != nil {
		return nil, err
	}

	result := grade(attempt, questions, snapshot, now)

	if err := s.attempts.Complete(ctx, attemptID, snapshot, result.Score, result.TimeTakenSec, now); err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	if err := s.queue.Push(ctx, attemptID); err != nil {
		// The submission itself succeeded; a missed invalidation only
		// leaves the leaderboard cache stale until its TTL.
		s.log.Warn().Err(err).Str("attempt_id", attemptID).Msg("failed to enqueue submitted score")
	}

	return result, nil
}

func (s *AttemptService) getAttempt(ctx context.Context, attemptID string) (*model.Attempt, error) {
	attempt, err := s.attempts.GetByAttemptID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return attempt, nil
}

// loadFrozen loads an attempt's questions in their frozen order.
func (s *AttemptService) loadFrozen(ctx context.Context, attempt *model.Attempt) ([]model.Question, error) {
	questions, err := s.questions.ListByIDs(ctx, attempt.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	byID := make(map[uuid.UUID]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ordered := make([]model.Question, 0, len(attempt.QuestionIDs))
	for _, id := range attempt.QuestionIDs {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// loadPresented loads the frozen question set shaped for the player, with
// options shuffled deterministically per attempt and question.
func (s *AttemptService) loadPresented(ctx context.Context, attempt *model.Attempt) ([]model.QuestionForAttempt, error) {
	questions, err := s.loadFrozen(ctx, attempt)
	if err != nil {
		return nil, err
	}

	out := make([]model.QuestionForAttempt, len(questions))
	for i, q := range questions {
		shuffled := random.SeededShuffle(q.Options, attempt.AttemptID+":"+q.ID.String())
		shuffled = random.EnsureNotIdentity(q.Options, shuffled)

		options := make([]model.OptionForPlay, len(shuffled))
		for j, o := range shuffled {
			options[j] = model.OptionForPlay{ID: o.ID, Text: o.Text}
		}
		out[i] = model.QuestionForAttempt{
			ID:         q.ID,
			Text:       q.Text,
			Type:       q.Type,
			Difficulty: q.Difficulty,
			ImageURL:   q.ImageURL,
			Options:    options,
		}
	}
	return out, nil
}

// grade scores an attempt: a question counts as correct only when the
// chosen set equals the correct set exactly, order and duplicates aside.
func grade(attempt *model.Attempt, questions []model.Question, snapshot []model.SavedAnswer, now time.Time) *model.SubmitResult {
	chosenByQuestion := make(map[uuid.UUID][]uuid.UUID, len(snapshot))
	for _, sa := range snapshot {
		chosenByQuestion[sa.QuestionID] = sa.ChosenOptionIDs
	}

	// The frozen set is the denominator even when a question was deleted
	// mid-attempt, so deletions cannot inflate the score.
	result := &model.SubmitResult{
		AttemptID:   attempt.AttemptID,
		Total:       len(attempt.QuestionIDs),
		SubmittedAt: now,
		Breakdown:   make([]model.QuestionBreakdown, 0, len(questions)),
	}

	for _, q := range questions {
		correctIDs := q.CorrectOptionIDs()
		chosen := chosenByQuestion[q.ID]
		isCorrect := len(chosen) > 0 && sameIDSet(chosen, correctIDs)

		switch {
		case isCorrect:
			result.CorrectCount++
		case len(chosen) == 0:
			result.UnselectedCount++
		default:
			result.IncorrectCount++
		}

		texts := make(map[uuid.UUID]string, len(q.Options))
		for _, o := range q.Options {
			texts[o.ID] = o.Text
		}

		result.Breakdown = append(result.Breakdown, model.QuestionBreakdown{
			QuestionID:         q.ID,
			IsCorrect:          isCorrect,
			UserAnswerIDs:      chosen,
			CorrectAnswerIDs:   correctIDs,
			UserAnswerTexts:    lookupTexts(texts, chosen),
			CorrectAnswerTexts: lookupTexts(texts, correctIDs),
			Explanation:        q.Explanation,
		})
	}

	if result.Total > 0 {
		result.Score = int(math.Round(float64(result.CorrectCount) / float64(result.Total) * 100))
	}

	// Whole elapsed seconds, truncated.
	taken := int(now.Sub(attempt.StartedAt).Seconds())
	if taken < 0 {
		taken = 0
	}
	result.TimeTakenSec = taken

	return result
}

// sameIDSet reports set equality, insensitive to order and duplicates.
func sameIDSet(a, b []uuid.UUID) bool {
	setA := make(map[uuid.UUID]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[uuid.UUID]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}

func lookupTexts(texts map[uuid.UUID]string, ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, ok := texts[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func resolveTimeLimitSec(req *model.CreateAttemptRequest, category *model.Category) int {
	minutes := req.TimeLimitMin
	if minutes == nil {
		minutes = req.TimeLimitMinutes
	}
	if minutes != nil {
		return *minutes * 60
	}
	if category.TimeLimitSec > 0 {
		return category.TimeLimitSec
	}
	return defaultTimeLimitSec
}

func categorySummary(c *model.Category) *model.CategorySummary {
	return &model.CategorySummary{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
	}
}

// newAttemptID returns a short URL-safe random id for use in attempt URLs.
func newAttemptID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate attempt id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
