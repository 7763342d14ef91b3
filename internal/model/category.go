package model

import (
	"time"

	"github.com/google/uuid"
)

// Category groups questions into a playable quiz topic.
type Category struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	Color        *string   `json:"color,omitempty"`
	Icon         *string   `json:"icon,omitempty"`
	SortOrder    int       `json:"sort_order"`
	IsDefault    bool      `json:"is_default"`
	TimeLimitSec int       `json:"time_limit_sec"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryWithCount is a category plus its live question count.
type CategoryWithCount struct {
	Category
	QuestionCount int `json:"question_count"`
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=100"`
	Slug         string  `json:"slug" binding:"required,min=1,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	Color        *string `json:"color" binding:"omitempty,max=20"`
	Icon         *string `json:"icon" binding:"omitempty,max=20"`
	SortOrder    *int    `json:"sort_order" binding:"omitempty,min=0"`
	IsDefault    *bool   `json:"is_default"`
	TimeLimitSec *int    `json:"time_limit_sec" binding:"omitempty,min=0"`
}

// UpdateCategoryRequest is the payload for a partial category update.
// Nil fields keep their current value.
type UpdateCategoryRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Slug         *string `json:"slug" binding:"omitempty,min=1,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	Color        *string `json:"color" binding:"omitempty,max=20"`
	Icon         *string `json:"icon" binding:"omitempty,max=20"`
	SortOrder    *int    `json:"sort_order" binding:"omitempty,min=0"`
	IsDefault    *bool   `json:"is_default"`
	TimeLimitSec *int    `json:"time_limit_sec" binding:"omitempty,min=0"`
}
