package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gitKheang/quiz-backend/internal/model"
)

// CategoryRepository handles category data access.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List retrieves all categories with their live question counts,
// ordered by sort_order then name.
func (r *CategoryRepository) List(ctx context.Context) ([]model.CategoryWithCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.slug, c.description, c.color, c.icon,
		        c.sort_order, c.is_default, c.time_limit_sec, c.created_at, c.updated_at,
		        COUNT(q.id) AS question_count
		 FROM categories c
		 LEFT JOIN questions q ON q.category_id = c.id
		 GROUP BY c.id
		 ORDER BY c.sort_order, c.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.CategoryWithCount
	for rows.Next() {
		var c model.CategoryWithCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon,
			&c.SortOrder, &c.IsDefault, &c.TimeLimitSec, &c.CreatedAt, &c.UpdatedAt,
			&c.QuestionCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetByID retrieves a category by its UUID.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, description, color, icon,
		        sort_order, is_default, time_limit_sec, created_at, updated_at
		 FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon,
		&c.SortOrder, &c.IsDefault, &c.TimeLimitSec, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetBySlug retrieves a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, description, color, icon,
		        sort_order, is_default, time_limit_sec, created_at, updated_at
		 FROM categories WHERE slug = $1`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.Icon,
		&c.SortOrder, &c.IsDefault, &c.TimeLimitSec, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug, description, color, icon, sort_order, is_default, time_limit_sec)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Slug, c.Description, c.Color, c.Icon, c.SortOrder, c.IsDefault, c.TimeLimitSec,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update overwrites a category's mutable fields.
func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE categories
		 SET name = $1, slug = $2, description = $3, color = $4, icon = $5,
		     sort_order = $6, is_default = $7, time_limit_sec = $8, updated_at = NOW()
		 WHERE id = $9`,
		c.Name, c.Slug, c.Description, c.Color, c.Icon,
		c.SortOrder, c.IsDefault, c.TimeLimitSec, c.ID)
	return err
}

// DeleteCascade removes a category together with its questions, options and
// attempts in one transaction.
func (r *CategoryRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM options WHERE question_id IN (SELECT id FROM questions WHERE category_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE category_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM quiz_attempts WHERE category_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CountQuestions returns the number of questions in a category.
func (r *CategoryRepository) CountQuestions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE category_id = $1`, id).Scan(&n)
	return n, err
}
