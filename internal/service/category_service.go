package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gitKheang/quiz-backend/internal/model"
)

// Common lookup and category errors.
var (
	ErrNotFound                 = errors.New("resource not found")
	ErrSlugTaken                = errors.New("slug is already in use")
	ErrDefaultCategoryProtected = errors.New("default categories cannot be deleted")
)

// CategoryStore is the persistence surface the category service needs.
type CategoryStore interface {
	List(ctx context.Context) ([]model.CategoryWithCount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	CountQuestions(ctx context.Context, id uuid.UUID) (int, error)
}

// CategoryService handles category management.
type CategoryService struct {
	categories CategoryStore
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

// List returns all categories with question counts.
func (s *CategoryService) List(ctx context.Context) ([]model.CategoryWithCount, error) {
	return s.categories.List(ctx)
}

// Get retrieves a category by UUID or, failing that, by slug, with its
// live question count.
func (s *CategoryService) Get(ctx context.Context, idOrSlug string) (*model.CategoryWithCount, error) {
	c, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	count, err := s.categories.CountQuestions(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	return &model.CategoryWithCount{Category: *c, QuestionCount: count}, nil
}

func (s *CategoryService) resolve(ctx context.Context, idOrSlug string) (*model.Category, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		c, err := s.categories.GetByID(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	c, err := s.categories.GetBySlug(ctx, idOrSlug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// Create adds a new category. Slugs are unique across categories.
func (s *CategoryService) Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
	if err := s.ensureSlugFree(ctx, req.Slug, uuid.Nil); err != nil {
		return nil, err
	}

	c := &model.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}
	if req.IsDefault != nil {
		c.IsDefault = *req.IsDefault
	}
	if req.TimeLimitSec != nil {
		c.TimeLimitSec = *req.TimeLimitSec
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Update applies a partial update. Nil request fields keep current values.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateCategoryRequest) (*model.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Slug != nil && *req.Slug != c.Slug {
		if err := s.ensureSlugFree(ctx, *req.Slug, id); err != nil {
			return nil, err
		}
		c.Slug = *req.Slug
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.Color != nil {
		c.Color = req.Color
	}
	if req.Icon != nil {
		c.Icon = req.Icon
	}
	if req.SortOrder != nil {
		c.SortOrder = *req.SortOrder
	}
	if req.IsDefault != nil {
		c.IsDefault = *req.IsDefault
	}
	if req.TimeLimitSec != nil {
		c.TimeLimitSec = *req.TimeLimitSec
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes a category and everything under it. Seeded default
// categories are protected.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if c.IsDefault {
		return ErrDefaultCategoryProtected
	}
	return s.categories.DeleteCascade(ctx, id)
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug string, selfID uuid.UUID) error {
	existing, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("lookup slug: %w", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return ErrSlugTaken
}
