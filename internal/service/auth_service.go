package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/model"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordNotSet     = errors.New("account has no password, sign in with Google")
	ErrTokenRequired      = errors.New("auth cookie or authorization header required")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
}

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// AuthService handles registration, credential login and JWT issuance.
type AuthService struct {
	cfg   *config.Config
	users UserStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore) *AuthService {
	return &AuthService{cfg: cfg, users: users}
}

// SignUp registers a local account and returns the user with a signed
// token. An existing Google-first account without a password adopts the
// given password instead of failing; a local account with one is rejected.
func (s *AuthService) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.User, string, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.PasswordHash != nil {
			return nil, "", ErrEmailTaken
		}
		hash, err := s.HashPassword(req.Password)
		if err != nil {
			return nil, "", fmt.Errorf("hash password: %w", err)
		}
		if err := s.users.SetPasswordHash(ctx, existing.ID, hash); err != nil {
			return nil, "", fmt.Errorf("attach password: %w", err)
		}
		existing.PasswordHash = &hash
		token, err := s.GenerateToken(existing)
		if err != nil {
			return nil, "", err
		}
		return existing, token, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: &hash,
		Provider:     model.ProviderLocal,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SignIn authenticates local credentials and returns the user with a signed
// token. A Google-first account without a password either adopts the given
// password (dev convenience, config-gated) or is rejected.
func (s *AuthService) SignIn(ctx context.Context, req *model.SignInRequest) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	if user.PasswordHash == nil {
		if !s.cfg.AllowAutoAttachPassword {
			return nil, "", ErrPasswordNotSet
		}
		hash, err := s.HashPassword(req.Password)
		if err != nil {
			return nil, "", fmt.Errorf("hash password: %w", err)
		}
		if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
			return nil, "", fmt.Errorf("attach password: %w", err)
		}
		user.PasswordHash = &hash
	} else if err := s.CheckPassword(*user.PasswordHash, req.Password); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetUser retrieves the user behind a set of claims.
func (s *AuthService) GetUser(ctx context.Context, claims *Claims) (*model.User, error) {
	return s.users.GetByID(ctx, claims.UserID)
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a signed JWT for a user.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// CookieName returns the name of the auth cookie.
func (s *AuthService) CookieName() string {
	return s.cfg.CookieName
}

// CookieMaxAge returns the auth cookie lifetime in seconds.
func (s *AuthService) CookieMaxAge() int {
	return int(s.cfg.JWTExpiry / time.Second)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
