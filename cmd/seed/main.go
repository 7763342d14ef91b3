package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/database"
	"github.com/gitKheang/quiz-backend/internal/logger"
	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/repository"
)

// Seeds the admin account, the six default categories and a handful of
// sample questions. Safe to run repeatedly.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	if err := seedAdmin(ctx, cfg, userRepo); err != nil {
		log.Fatal().Err(err).Msg("Admin seed failed")
	}

	if err := seedCategories(ctx, categoryRepo); err != nil {
		log.Fatal().Err(err).Msg("Category seed failed")
	}

	if err := seedSampleQuestions(ctx, categoryRepo, questionRepo); err != nil {
		log.Fatal().Err(err).Msg("Question seed failed")
	}

	fmt.Println("Seed completed.")
}

// seedAdmin upserts the admin account. Email, name and password come from
// SEED_ADMIN_EMAIL / SEED_ADMIN_NAME / SEED_ADMIN_PASSWORD; without a
// password in the environment it is read from the terminal.
func seedAdmin(ctx context.Context, cfg *config.Config, users *repository.UserRepository) error {
	email := strings.ToLower(strings.TrimSpace(envOr("SEED_ADMIN_EMAIL", "admin@quiz.local")))
	name := envOr("SEED_ADMIN_NAME", "Admin")

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Print("Enter admin password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = string(bytePassword)
	}
	if len(password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	hash := string(hashBytes)

	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		if err := users.SetPasswordHash(ctx, existing.ID, hash); err != nil {
			return err
		}
		fmt.Printf("Admin %s already exists, password refreshed\n", email)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	admin := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Provider:     model.ProviderLocal,
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	fmt.Printf("Admin %s created\n", email)
	return nil
}

// seedCategories upserts the default categories.
func seedCategories(ctx context.Context, categories *repository.CategoryRepository) error {
	defaults := []model.Category{
		{Name: "World History", Slug: "history", Description: strPtr("Ancient to modern history"), Color: strPtr("#8B5CF6"), Icon: strPtr("🏛️"), SortOrder: 1, IsDefault: true, TimeLimitSec: 600},
		{Name: "Science & Nature", Slug: "science", Description: strPtr("Physics, Chemistry, Biology"), Color: strPtr("#10B981"), Icon: strPtr("🔬"), SortOrder: 2, IsDefault: true, TimeLimitSec: 600},
		{Name: "Technology", Slug: "technology", Description: strPtr("Computers, Internet, Gadgets"), Color: strPtr("#3B82F6"), Icon: strPtr("💻"), SortOrder: 3, IsDefault: true, TimeLimitSec: 600},
		{Name: "Geography", Slug: "geography", Description: strPtr("Countries, capitals, maps"), Color: strPtr("#F59E0B"), Icon: strPtr("🌍"), SortOrder: 4, IsDefault: true, TimeLimitSec: 600},
		{Name: "Literature", Slug: "literature", Description: strPtr("Books and authors"), Color: strPtr("#EF4444"), Icon: strPtr("📚"), SortOrder: 5, IsDefault: true, TimeLimitSec: 600},
		{Name: "Sports", Slug: "sports", Description: strPtr("Games and records"), Color: strPtr("#22C55E"), Icon: strPtr("🏅"), SortOrder: 6, IsDefault: true, TimeLimitSec: 600},
	}

	for i := range defaults {
		c := &defaults[i]
		existing, err := categories.GetBySlug(ctx, c.Slug)
		switch {
		case err == nil:
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			if err := categories.Update(ctx, c); err != nil {
				return err
			}
		case errors.Is(err, pgx.ErrNoRows):
			if err := categories.Create(ctx, c); err != nil {
				return err
			}
		default:
			return err
		}
	}
	fmt.Printf("Seeded %d categories\n", len(defaults))
	return nil
}

// seedSampleQuestions adds starter questions to the history category, but
// only when it is still empty.
func seedSampleQuestions(ctx context.Context, categories *repository.CategoryRepository, questions *repository.QuestionRepository) error {
	history, err := categories.GetBySlug(ctx, "history")
	if err != nil {
		return err
	}

	count, err := categories.CountQuestions(ctx, history.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("History already has questions, skipping samples")
		return nil
	}

	samples := []model.Question{
		{
			CategoryID:  history.ID,
			Text:        "Who was the first President of the United States?",
			Explanation: strPtr("George Washington served from 1789 to 1797."),
			Difficulty:  model.DifficultyEasy,
			Type:        model.QuestionTypeSingle,
			Options: []model.Option{
				{Text: "George Washington", IsCorrect: true},
				{Text: "Thomas Jefferson"},
				{Text: "John Adams"},
				{Text: "James Madison"},
			},
		},
		{
			CategoryID:  history.ID,
			Text:        "In which year did World War II end?",
			Explanation: strPtr("WWII ended in 1945."),
			Difficulty:  model.DifficultyEasy,
			Type:        model.QuestionTypeSingle,
			Options: []model.Option{
				{Text: "1939"},
				{Text: "1941"},
				{Text: "1945", IsCorrect: true},
				{Text: "1949"},
			},
		},
		{
			CategoryID:  history.ID,
			Text:        "Which empire built the Colosseum?",
			Explanation: strPtr("The Roman Empire built it around AD 70-80."),
			Difficulty:  model.DifficultyMedium,
			Type:        model.QuestionTypeSingle,
			Options: []model.Option{
				{Text: "Greek Empire"},
				{Text: "Roman Empire", IsCorrect: true},
				{Text: "Ottoman Empire"},
				{Text: "Byzantine Empire"},
			},
		},
	}

	for i := range samples {
		if err := questions.Create(ctx, &samples[i]); err != nil {
			return err
		}
	}
	fmt.Printf("Seeded %d sample questions\n", len(samples))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func strPtr(s string) *string {
	return &s
}
