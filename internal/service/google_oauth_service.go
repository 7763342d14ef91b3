package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/repository"
)

// Google OAuth errors.
var (
	ErrOAuthNotConfigured = errors.New("google oauth not configured (missing GOOGLE_CLIENT_ID)")
	ErrOAuthStateInvalid  = errors.New("oauth state is unknown or expired")
)

const oauthStateTTL = 10 * time.Minute

// GoogleOAuthService runs the Google sign-in flow. State nonces are kept in
// Redis so the callback can be verified across instances.
type GoogleOAuthService struct {
	oauthConfig *oauth2.Config
	users       *repository.UserRepository
	rdb         *redis.Client
	httpClient  *http.Client
}

// NewGoogleOAuthService creates a new GoogleOAuthService.
func NewGoogleOAuthService(cfg *config.Config, users *repository.UserRepository, rdb *redis.Client) *GoogleOAuthService {
	return &GoogleOAuthService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users:      users,
		rdb:        rdb,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether Google credentials are configured.
func (s *GoogleOAuthService) Enabled() bool {
	return s.oauthConfig.ClientID != ""
}

// BeginLogin stores a fresh state nonce and returns the Google consent URL.
func (s *GoogleOAuthService) BeginLogin(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", ErrOAuthNotConfigured
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.rdb.Set(ctx, config.CacheKey.OAuthStateKey(state), "1", oauthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// HandleCallback verifies the state, exchanges the code and upserts the
// Google profile into the users table.
func (s *GoogleOAuthService) HandleCallback(ctx context.Context, state, code string) (*model.User, error) {
	if !s.Enabled() {
		return nil, ErrOAuthNotConfigured
	}

	deleted, err := s.rdb.Del(ctx, config.CacheKey.OAuthStateKey(state)).Result()
	if err != nil {
		return nil, fmt.Errorf("check state: %w", err)
	}
	if deleted == 0 {
		return nil, ErrOAuthStateInvalid
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, errors.New("google did not return an email")
	}

	name := profile.Name
	if name == "" {
		name = profile.Email
	}
	return s.users.UpsertGoogle(ctx, normalizeEmail(profile.Email), name)
}

type googleProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *GoogleOAuthService) fetchProfile(ctx context.Context, accessToken string) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info API returned status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &profile, nil
}
