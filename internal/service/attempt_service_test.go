package service

import (
	"context"
	mrand "math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gitKheang/quiz-backend/internal/model"
)

// MockCategoryGetter implements CategoryGetter.
type MockCategoryGetter struct {
	mock.Mock
}

func (m *MockCategoryGetter) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

// MockQuestionCatalog implements QuestionCatalog.
type MockQuestionCatalog struct {
	mock.Mock
}

func (m *MockQuestionCatalog) ListIDsByCategory(ctx context.Context, categoryID uuid.UUID, difficulty *model.Difficulty) ([]uuid.UUID, error) {
	args := m.Called(ctx, categoryID, difficulty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockQuestionCatalog) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

// MockAttemptStore implements AttemptStore.
type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Create(ctx context.Context, a *model.Attempt) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAttemptStore) GetByAttemptID(ctx context.Context, attemptID string) (*model.Attempt, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attempt), args.Error(1)
}

func (m *MockAttemptStore) SaveAnswers(ctx context.Context, attemptID string, answers []model.SavedAnswer) error {
	args := m.Called(ctx, attemptID, answers)
	return args.Error(0)
}

func (m *MockAttemptStore) Complete(ctx context.Context, attemptID string, answers []model.SavedAnswer, score, timeTakenSec int, submittedAt time.Time) error {
	args := m.Called(ctx, attemptID, answers, score, timeTakenSec, submittedAt)
	return args.Error(0)
}

// MockScoreQueue implements ScoreQueue.
type MockScoreQueue struct {
	mock.Mock
}

func (m *MockScoreQueue) Push(ctx context.Context, attemptID string) error {
	args := m.Called(ctx, attemptID)
	return args.Error(0)
}

// ----------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------

func newTestAttemptService(categories *MockCategoryGetter, questions *MockQuestionCatalog, attempts *MockAttemptStore, queue *MockScoreQueue) *AttemptService {
	svc := NewAttemptService(categories, questions, attempts, queue, zerolog.Nop())
	svc.newRand = func() *mrand.Rand {
		return mrand.New(mrand.NewSource(42))
	}
	return svc
}

func testCategory() *model.Category {
	return &model.Category{
		ID:           uuid.New(),
		Name:         "World History",
		Slug:         "history",
		TimeLimitSec: 600,
	}
}

// testQuestion builds a question with n options; correct marks by index.
func testQuestion(categoryID uuid.UUID, n int, correct ...int) model.Question {
	q := model.Question{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Text:       "question",
		Difficulty: model.DifficultyEasy,
		Type:       model.QuestionTypeSingle,
	}
	if len(correct) > 1 {
		q.Type = model.QuestionTypeMulti
	}
	for i := 0; i < n; i++ {
		q.Options = append(q.Options, model.Option{ID: uuid.New(), Text: "option"})
	}
	for _, idx := range correct {
		q.Options[idx].IsCorrect = true
	}
	return q
}

func questionIDs(questions []model.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

// ----------------------------------------------------------------
// Create
// ----------------------------------------------------------------

func TestCreateAttempt_FreezesQuestionSet(t *testing.T) {
	category := testCategory()
	pool := make([]model.Question, 5)
	for i := range pool {
		pool[i] = testQuestion(category.ID, 4, 0)
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	questions.On("ListIDsByCategory", mock.Anything, category.ID, (*model.Difficulty)(nil)).Return(questionIDs(pool), nil)
	questions.On("ListByIDs", mock.Anything, mock.Anything).Return(pool, nil)

	var created *model.Attempt
	attempts.On("Create", mock.Anything, mock.AnythingOfType("*model.Attempt")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Attempt)
		}).Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	payload, err := svc.Create(context.Background(), nil, &model.CreateAttemptRequest{
		CategoryID:   category.ID,
		NumQuestions: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Len(t, created.QuestionIDs, 3)
	assert.Equal(t, 3, created.NumQuestions)
	assert.NotEmpty(t, created.AttemptID)
	require.NotNil(t, created.EndAt)
	assert.Equal(t, created.StartedAt.Add(600*time.Second), *created.EndAt)

	assert.Equal(t, created.AttemptID, payload.AttemptID)
	assert.Len(t, payload.Questions, 3)
	assert.Equal(t, 600, payload.TimeLimitSec)

	// The frozen set and the presented questions line up one to one.
	for i, q := range payload.Questions {
		assert.Equal(t, created.QuestionIDs[i], q.ID)
	}
}

func TestCreateAttempt_NeverPresentsCatalogOrder(t *testing.T) {
	category := testCategory()
	pool := make([]model.Question, 3)
	for i := range pool {
		pool[i] = testQuestion(category.ID, 4, 0)
	}
	poolIDs := questionIDs(pool)

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	questions.On("ListIDsByCategory", mock.Anything, category.ID, (*model.Difficulty)(nil)).Return(poolIDs, nil)
	questions.On("ListByIDs", mock.Anything, mock.Anything).Return(pool, nil)

	var created *model.Attempt
	attempts.On("Create", mock.Anything, mock.AnythingOfType("*model.Attempt")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Attempt)
		}).Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)
	// Seed 1 happens to shuffle a 3-element pool back into its own order,
	// which must not leak through to the frozen set.
	svc.newRand = func() *mrand.Rand {
		return mrand.New(mrand.NewSource(1))
	}

	_, err := svc.Create(context.Background(), nil, &model.CreateAttemptRequest{
		CategoryID:   category.ID,
		NumQuestions: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.ElementsMatch(t, poolIDs, created.QuestionIDs)
	assert.NotEqual(t, poolIDs, created.QuestionIDs)
	assert.Equal(t, []uuid.UUID{poolIDs[1], poolIDs[2], poolIDs[0]}, created.QuestionIDs)
}

func TestCreateAttempt_ShrinksToAvailablePool(t *testing.T) {
	category := testCategory()
	pool := make([]model.Question, 4)
	for i := range pool {
		pool[i] = testQuestion(category.ID, 4, 0)
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	questions.On("ListIDsByCategory", mock.Anything, category.ID, (*model.Difficulty)(nil)).Return(questionIDs(pool), nil)
	questions.On("ListByIDs", mock.Anything, mock.Anything).Return(pool, nil)
	attempts.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	payload, err := svc.Create(context.Background(), nil, &model.CreateAttemptRequest{
		CategoryID:   category.ID,
		NumQuestions: 10,
	})
	require.NoError(t, err)
	assert.Len(t, payload.Questions, 4)
}

func TestCreateAttempt_NoQuestions(t *testing.T) {
	category := testCategory()

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	questions.On("ListIDsByCategory", mock.Anything, category.ID, (*model.Difficulty)(nil)).Return([]uuid.UUID{}, nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	_, err := svc.Create(context.Background(), nil, &model.CreateAttemptRequest{
		CategoryID:   category.ID,
		NumQuestions: 5,
	})
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestCreateAttempt_CategoryMissing(t *testing.T) {
	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	missing := uuid.New()
	categories.On("GetByID", mock.Anything, missing).Return(nil, pgx.ErrNoRows)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	_, err := svc.Create(context.Background(), nil, &model.CreateAttemptRequest{
		CategoryID:   missing,
		NumQuestions: 5,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAttempt_ExplicitTimeLimitWins(t *testing.T) {
	category := testCategory()
	pool := []model.Question{testQuestion(category.ID, 4, 0)}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	questions.On("ListIDsByCategory", mock.Anything, category.ID, (*model.Difficulty)(nil)).Return(questionIDs(pool), nil)
	questions.On("ListByIDs", mock.Anything, mock.Anything).Return(pool, nil)
	attempts.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	limit := 5
	payload, err := svc.Create(context.Background(), nil, &model.CreateAttemptRequest{
		CategoryID:   category.ID,
		NumQuestions: 1,
		TimeLimitMin: &limit,
	})
	require.NoError(t, err)
	assert.Equal(t, 300, payload.TimeLimitSec)
}

// ----------------------------------------------------------------
// Get
// ----------------------------------------------------------------

func TestGetAttempt_DeterministicOptionOrder(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 6, 0)

	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{q.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC(),
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{q}, nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	first, err := svc.Get(context.Background(), "abc123")
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), "abc123")
	require.NoError(t, err)

	require.Len(t, first.Questions, 1)
	assert.Equal(t, first.Questions[0].Options, second.Questions[0].Options)

	// Same elements as stored, shuffled away from the stored order.
	stored := make([]uuid.UUID, len(q.Options))
	for i, o := range q.Options {
		stored[i] = o.ID
	}
	presented := make([]uuid.UUID, len(first.Questions[0].Options))
	for i, o := range first.Questions[0].Options {
		presented[i] = o.ID
	}
	assert.ElementsMatch(t, stored, presented)
	assert.NotEqual(t, stored, presented)
}

func TestGetAttempt_ReturnsSavedAnswers(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 4, 0)
	chosen := []uuid.UUID{q.Options[2].ID}

	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{q.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC(),
		SavedAnswers: []model.SavedAnswer{
			{QuestionID: q.ID, ChosenOptionIDs: chosen, AnsweredAt: time.Now().UTC()},
		},
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	categories.On("GetByID", mock.Anything, category.ID).Return(category, nil)
	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{q}, nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	state, err := svc.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, chosen, state.CurrentAnswers[q.ID])
	assert.False(t, state.IsCompleted)
}

// ----------------------------------------------------------------
// SaveProgress
// ----------------------------------------------------------------

func TestSaveProgress_ReplacesSnapshot(t *testing.T) {
	category := testCategory()
	q1 := testQuestion(category.ID, 4, 0)
	q2 := testQuestion(category.ID, 4, 0)

	attempt := &model.Attempt{
		AttemptID:   "abc123",
		CategoryID:  category.ID,
		QuestionIDs: []uuid.UUID{q1.ID, q2.ID},
		SavedAnswers: []model.SavedAnswer{
			{QuestionID: q1.ID, ChosenOptionIDs: []uuid.UUID{q1.Options[0].ID}},
			{QuestionID: q2.ID, ChosenOptionIDs: []uuid.UUID{q2.Options[1].ID}},
		},
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)

	var saved []model.SavedAnswer
	attempts.On("SaveAnswers", mock.Anything, "abc123", mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).([]model.SavedAnswer)
		}).Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	ack, err := svc.SaveProgress(context.Background(), "abc123", &model.SaveProgressRequest{
		Answers: []model.AnswerInput{
			{QuestionID: q1.ID, ChosenOptionIDs: []uuid.UUID{q1.Options[3].ID}},
		},
	})
	require.NoError(t, err)
	assert.True(t, ack.Saved)

	// Full replace: the old q2 entry is gone.
	require.Len(t, saved, 1)
	assert.Equal(t, q1.ID, saved[0].QuestionID)
	assert.Equal(t, []uuid.UUID{q1.Options[3].ID}, saved[0].ChosenOptionIDs)
}

func TestSaveProgress_RejectedAfterSubmit(t *testing.T) {
	attempt := &model.Attempt{AttemptID: "abc123", IsCompleted: true}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	_, err := svc.SaveProgress(context.Background(), "abc123", &model.SaveProgressRequest{})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

// ----------------------------------------------------------------
// Submit
// ----------------------------------------------------------------

func TestSubmit_GradesExactSetMatch(t *testing.T) {
	category := testCategory()
	single := testQuestion(category.ID, 4, 1)
	multi := testQuestion(category.ID, 4, 0, 2)
	unanswered := testQuestion(category.ID, 4, 3)

	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{single.ID, multi.ID, unanswered.ID},
		NumQuestions: 3,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC().Add(-90 * time.Second),
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).
		Return([]model.Question{single, multi, unanswered}, nil)
	attempts.On("Complete", mock.Anything, "abc123", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	queue.On("Push", mock.Anything, "abc123").Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	result, err := svc.Submit(context.Background(), "abc123", &model.SubmitRequest{
		Answers: []model.AnswerInput{
			{QuestionID: single.ID, ChosenOptionIDs: []uuid.UUID{single.Options[1].ID}},
			// Order and duplicates do not matter for the multi question.
			{QuestionID: multi.ID, ChosenOptionIDs: []uuid.UUID{multi.Options[2].ID, multi.Options[0].ID, multi.Options[0].ID}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 0, result.IncorrectCount)
	assert.Equal(t, 1, result.UnselectedCount)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 67, result.Score) // round(2/3*100)
	assert.InDelta(t, 90, result.TimeTakenSec, 2)

	require.Len(t, result.Breakdown, 3)
	assert.True(t, result.Breakdown[0].IsCorrect)
	assert.True(t, result.Breakdown[1].IsCorrect)
	assert.False(t, result.Breakdown[2].IsCorrect)
	assert.Equal(t, []uuid.UUID{unanswered.Options[3].ID}, result.Breakdown[2].CorrectAnswerIDs)

	queue.AssertCalled(t, "Push", mock.Anything, "abc123")
}

func TestSubmit_PartialSelectionIsIncorrect(t *testing.T) {
	category := testCategory()
	multi := testQuestion(category.ID, 4, 0, 2)

	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{multi.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC(),
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{multi}, nil)
	attempts.On("Complete", mock.Anything, "abc123", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	queue.On("Push", mock.Anything, "abc123").Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	result, err := svc.Submit(context.Background(), "abc123", &model.SubmitRequest{
		Answers: []model.AnswerInput{
			// Only one of the two correct options.
			{QuestionID: multi.ID, ChosenOptionIDs: []uuid.UUID{multi.Options[0].ID}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CorrectCount)
	assert.Equal(t, 1, result.IncorrectCount)
	assert.Equal(t, 0, result.Score)
}

func TestSubmit_FallsBackToAutosavedSnapshot(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 4, 2)

	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{q.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC(),
		SavedAnswers: []model.SavedAnswer{
			{QuestionID: q.ID, ChosenOptionIDs: []uuid.UUID{q.Options[2].ID}},
		},
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{q}, nil)
	attempts.On("Complete", mock.Anything, "abc123", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	queue.On("Push", mock.Anything, "abc123").Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	result, err := svc.Submit(context.Background(), "abc123", &model.SubmitRequest{})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
}

func TestSubmit_LateSubmissionStillGraded(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 4, 0)

	endAt := time.Now().UTC().Add(-10 * time.Minute)
	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{q.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    endAt.Add(-10 * time.Minute),
		EndAt:        &endAt,
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{q}, nil)
	attempts.On("Complete", mock.Anything, "abc123", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	queue.On("Push", mock.Anything, "abc123").Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	result, err := svc.Submit(context.Background(), "abc123", &model.SubmitRequest{
		Answers: []model.AnswerInput{
			{QuestionID: q.ID, ChosenOptionIDs: []uuid.UUID{q.Options[0].ID}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Greater(t, result.TimeTakenSec, 600)
}

func TestSubmit_PassesSubmissionTimeAsNewDeadline(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 4, 0)

	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{q.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC(),
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{q}, nil)

	var storedAt time.Time
	attempts.On("Complete", mock.Anything, "abc123", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			storedAt = args.Get(5).(time.Time)
		}).Return(nil)
	queue.On("Push", mock.Anything, "abc123").Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	result, err := svc.Submit(context.Background(), "abc123", &model.SubmitRequest{})
	require.NoError(t, err)

	// The store persists this timestamp as both submitted_at and end_at,
	// replacing the original deadline.
	assert.Equal(t, result.SubmittedAt, storedAt)
	assert.True(t, storedAt.After(attempt.StartedAt))
}

func TestSubmit_ResubmissionOverwrites(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 4, 0)

	score := 0
	attempt := &model.Attempt{
		AttemptID:    "abc123",
		CategoryID:   category.ID,
		QuestionIDs:  []uuid.UUID{q.ID},
		NumQuestions: 1,
		TimeLimitSec: 600,
		StartedAt:    time.Now().UTC(),
		IsCompleted:  true,
		Score:        &score,
	}

	categories := new(MockCategoryGetter)
	questions := new(MockQuestionCatalog)
	attempts := new(MockAttemptStore)
	queue := new(MockScoreQueue)

	attempts.On("GetByAttemptID", mock.Anything, "abc123").Return(attempt, nil)
	questions.On("ListByIDs", mock.Anything, attempt.QuestionIDs).Return([]model.Question{q}, nil)
	attempts.On("Complete", mock.Anything, "abc123", mock.Anything, 100, mock.Anything, mock.Anything).Return(nil)
	queue.On("Push", mock.Anything, "abc123").Return(nil)

	svc := newTestAttemptService(categories, questions, attempts, queue)

	result, err := svc.Submit(context.Background(), "abc123", &model.SubmitRequest{
		Answers: []model.AnswerInput{
			{QuestionID: q.ID, ChosenOptionIDs: []uuid.UUID{q.Options[0].ID}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	attempts.AssertExpectations(t)
}

// ----------------------------------------------------------------
// Grading helpers
// ----------------------------------------------------------------

func TestSameIDSet(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	assert.True(t, sameIDSet([]uuid.UUID{a, b}, []uuid.UUID{b, a}))
	assert.True(t, sameIDSet([]uuid.UUID{a, a, b}, []uuid.UUID{b, a}))
	assert.False(t, sameIDSet([]uuid.UUID{a}, []uuid.UUID{a, b}))
	assert.False(t, sameIDSet([]uuid.UUID{a, c}, []uuid.UUID{a, b}))
	assert.True(t, sameIDSet(nil, nil))
}

func TestGrade_EmptyQuestionSetScoresZero(t *testing.T) {
	attempt := &model.Attempt{AttemptID: "x", StartedAt: time.Now().UTC()}
	result := grade(attempt, nil, nil, time.Now().UTC())
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.Total)
}

func TestGrade_TimeTakenNeverNegative(t *testing.T) {
	attempt := &model.Attempt{AttemptID: "x", StartedAt: time.Now().UTC().Add(time.Hour)}
	result := grade(attempt, nil, nil, time.Now().UTC())
	assert.Equal(t, 0, result.TimeTakenSec)
}

func TestGrade_TimeTakenTruncatesPartialSeconds(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	attempt := &model.Attempt{AttemptID: "x", StartedAt: start}

	result := grade(attempt, nil, nil, start.Add(90*time.Second+900*time.Millisecond))
	assert.Equal(t, 90, result.TimeTakenSec)
}

func TestGrade_DeletedQuestionStillCountsInTotal(t *testing.T) {
	category := testCategory()
	q := testQuestion(category.ID, 4, 0)
	deleted := uuid.New()

	attempt := &model.Attempt{
		AttemptID:   "x",
		QuestionIDs: []uuid.UUID{q.ID, deleted},
		StartedAt:   time.Now().UTC(),
	}
	snapshot := []model.SavedAnswer{
		{QuestionID: q.ID, ChosenOptionIDs: []uuid.UUID{q.Options[0].ID}},
	}

	// Only the surviving question can be fetched, but the frozen set still
	// has two entries, so a perfect answer grades to 50, not 100.
	result := grade(attempt, []model.Question{q}, snapshot, time.Now().UTC())
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 50, result.Score)
}
