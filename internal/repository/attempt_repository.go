package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gitKheang/quiz-backend/internal/model"
)

// AttemptRepository handles quiz attempt data access. The frozen question
// order and the saved-answers snapshot live in jsonb columns.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts
		   (attempt_id, category_id, user_id, question_ids, num_questions,
		    time_limit_sec, started_at, end_at, saved_answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		a.AttemptID, a.CategoryID, a.UserID, a.QuestionIDs, a.NumQuestions,
		a.TimeLimitSec, a.StartedAt, a.EndAt, a.SavedAnswers,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByAttemptID retrieves an attempt by its public id.
func (r *AttemptRepository) GetByAttemptID(ctx context.Context, attemptID string) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, attempt_id, category_id, user_id, question_ids, num_questions,
		        time_limit_sec, started_at, end_at, saved_answers,
		        is_completed, score, time_taken_sec, submitted_at, created_at, updated_at
		 FROM quiz_attempts WHERE attempt_id = $1`, attemptID,
	).Scan(&a.ID, &a.AttemptID, &a.CategoryID, &a.UserID, &a.QuestionIDs, &a.NumQuestions,
		&a.TimeLimitSec, &a.StartedAt, &a.EndAt, &a.SavedAnswers,
		&a.IsCompleted, &a.Score, &a.TimeTakenSec, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SaveAnswers replaces an attempt's saved-answers snapshot wholesale.
func (r *AttemptRepository) SaveAnswers(ctx context.Context, attemptID string, answers []model.SavedAnswer) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts
		 SET saved_answers = $1, updated_at = NOW()
		 WHERE attempt_id = $2`,
		answers, attemptID)
	return err
}

// Complete stores the grading outcome of a submission. The deadline is
// replaced by the submission time, and resubmissions overwrite the
// previous result.
func (r *AttemptRepository) Complete(ctx context.Context, attemptID string, answers []model.SavedAnswer, score, timeTakenSec int, submittedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_attempts
		 SET saved_answers = $1, is_completed = TRUE, score = $2,
		     time_taken_sec = $3, submitted_at = $4, end_at = $4, updated_at = NOW()
		 WHERE attempt_id = $5`,
		answers, score, timeTakenSec, submittedAt, attemptID)
	return err
}

// LeaderboardRow is a completed attempt joined with its player's name.
// UserName is nil for anonymous attempts.
type LeaderboardRow struct {
	AttemptID    string
	CategoryID   uuid.UUID
	UserName     *string
	Score        int
	TimeTakenSec int
	SubmittedAt  time.Time
}

// ListCompleted retrieves completed attempts ordered by score descending,
// ties broken by faster time then most recent submission.
func (r *AttemptRepository) ListCompleted(ctx context.Context, categoryID *uuid.UUID, since *time.Time, limit, offset int) ([]LeaderboardRow, error) {
	query := `SELECT a.attempt_id, a.category_id, u.name, a.score, a.time_taken_sec, a.submitted_at
	          FROM quiz_attempts a
	          LEFT JOIN users u ON u.id = a.user_id
	          WHERE a.is_completed = TRUE`
	var args []interface{}
	argIdx := 1

	if categoryID != nil {
		query += ` AND a.category_id = $` + strconv.Itoa(argIdx)
		args = append(args, *categoryID)
		argIdx++
	}
	if since != nil {
		query += ` AND a.submitted_at >= $` + strconv.Itoa(argIdx)
		args = append(args, *since)
		argIdx++
	}

	query += ` ORDER BY a.score DESC, a.time_taken_sec ASC, a.submitted_at DESC
	           LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardRow
	for rows.Next() {
		var e LeaderboardRow
		if err := rows.Scan(&e.AttemptID, &e.CategoryID, &e.UserName, &e.Score, &e.TimeTakenSec, &e.SubmittedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
