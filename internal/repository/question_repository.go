package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gitKheang/quiz-backend/internal/model"
)

// QuestionRepository handles question and option data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question with its options.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, category_id, text, explanation, difficulty, type, image_url, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.CategoryID, &q.Text, &q.Explanation, &q.Difficulty, &q.Type,
		&q.ImageURL, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}

	options, err := r.loadOptions(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	q.Options = options[id]
	return q, nil
}

// ListByCategory retrieves all questions of a category with their options,
// newest first.
func (r *QuestionRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category_id, text, explanation, difficulty, type, image_url, created_at, updated_at
		 FROM questions WHERE category_id = $1
		 ORDER BY created_at DESC`, categoryID)
	if err != nil {
		return nil, err
	}
	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachOptions(ctx, questions)
}

// ListByIDs retrieves questions with their options. Result order is
// unspecified; callers reorder against their own id list.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, category_id, text, explanation, difficulty, type, image_url, created_at, updated_at
		 FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	questions, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	return r.attachOptions(ctx, questions)
}

// ListIDsByCategory returns the ids of a category's questions, optionally
// filtered by difficulty.
func (r *QuestionRepository) ListIDsByCategory(ctx context.Context, categoryID uuid.UUID, difficulty *model.Difficulty) ([]uuid.UUID, error) {
	query := `SELECT id FROM questions WHERE category_id = $1`
	args := []interface{}{categoryID}
	if difficulty != nil {
		query += ` AND difficulty = $2`
		args = append(args, *difficulty)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts a question and its options in one transaction.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (category_id, text, explanation, difficulty, type, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.CategoryID, q.Text, q.Explanation, q.Difficulty, q.Type, q.ImageURL,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertOptions(ctx, tx, q.ID, q.Options); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update overwrites a question's fields. When replaceOptions is true the
// existing options are deleted and q.Options inserted in their place.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question, replaceOptions bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE questions
		 SET text = $1, explanation = $2, difficulty = $3, type = $4, image_url = $5, updated_at = NOW()
		 WHERE id = $6`,
		q.Text, q.Explanation, q.Difficulty, q.Type, q.ImageURL, q.ID); err != nil {
		return err
	}

	if replaceOptions {
		if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		if err := insertOptions(ctx, tx, q.ID, q.Options); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete removes a question and its options.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func insertOptions(ctx context.Context, tx pgx.Tx, questionID uuid.UUID, options []model.Option) error {
	for i := range options {
		err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, text, is_correct, position)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			questionID, options[i].Text, options[i].IsCorrect, i,
		).Scan(&options[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.Text, &q.Explanation, &q.Difficulty, &q.Type,
			&q.ImageURL, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// attachOptions loads the options of every question in one query and
// distributes them by question id, preserving stored position order.
func (r *QuestionRepository) attachOptions(ctx context.Context, questions []model.Question) ([]model.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}
	ids := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	options, err := r.loadOptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Options = options[questions[i].ID]
	}
	return questions, nil
}

func (r *QuestionRepository) loadOptions(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]model.Option, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, id, text, is_correct
		 FROM options WHERE question_id = ANY($1)
		 ORDER BY question_id, position`, questionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byQuestion := make(map[uuid.UUID][]model.Option, len(questionIDs))
	for rows.Next() {
		var qid uuid.UUID
		var o model.Option
		if err := rows.Scan(&qid, &o.ID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		byQuestion[qid] = append(byQuestion[qid], o)
	}
	return byQuestion, rows.Err()
}
