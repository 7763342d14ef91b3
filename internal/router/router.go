package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/handler"
	"github.com/gitKheang/quiz-backend/internal/middleware"
	"github.com/gitKheang/quiz-backend/internal/response"
	"github.com/gitKheang/quiz-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Category    *handler.CategoryHandler
	Question    *handler.QuestionHandler
	Attempt     *handler.AttemptHandler
	Leaderboard *handler.LeaderboardHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Credentials must be allowed for the auth cookie. If AllowedOrigins
	// is set in config, restrict to that list; otherwise reflect any
	// origin so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/signup", handlers.Auth.SignUp)
		auth.POST("/signin", handlers.Auth.SignIn)
		auth.POST("/signout", handlers.Auth.SignOut)
		auth.GET("/me", middleware.OptionalAuth(authService), handlers.Auth.Me)

		auth.GET("/google", handlers.Auth.GoogleLogin)
		auth.GET("/google/callback", handlers.Auth.GoogleCallback)
	}

	// ─── 2. Categories (Public Reads, Admin Mutations) ─────────────────
	categories := router.Group("/api/categories")
	{
		categories.GET("", handlers.Category.List)
		categories.GET("/:id", handlers.Category.Get)
		categories.GET("/:id/questions", middleware.RequireAdmin(authService), handlers.Question.ListByCategory)

		admin := categories.Group("", middleware.RequireAdmin(authService))
		{
			admin.POST("", handlers.Category.Create)
			admin.PUT("/:id", handlers.Category.Update)
			admin.DELETE("/:id", handlers.Category.Delete)
			admin.POST("/:id/questions", handlers.Question.Create)
		}
	}

	// ─── 3. Questions (Admin Editor) ───────────────────────────────────
	questions := router.Group("/api/questions", middleware.RequireAdmin(authService))
	{
		questions.GET("/:id", handlers.Question.Get)
		questions.PUT("/:id", handlers.Question.Update)
		questions.DELETE("/:id", handlers.Question.Delete)
	}

	// ─── 4. Quiz Sessions (Guests Welcome, Never Cached) ───────────────
	attempts := router.Group("/api/quiz-sessions")
	attempts.Use(middleware.NoStore(), middleware.OptionalAuth(authService))
	{
		attempts.POST("", handlers.Attempt.Create)
		attempts.GET("/:id", handlers.Attempt.Get)
		attempts.PATCH("/:id/progress", handlers.Attempt.SaveProgress)
		attempts.POST("/:id/submit", handlers.Attempt.Submit)
	}

	// ─── 5. Leaderboard (Public) ───────────────────────────────────────
	router.GET("/api/leaderboard", handlers.Leaderboard.List)

	return router
}
