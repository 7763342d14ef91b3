package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/model"
	"github.com/gitKheang/quiz-backend/internal/repository"
)

// Leaderboard time ranges.
const (
	RangeDaily   = "daily"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
	RangeAll     = "all"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// AttemptLister supplies completed attempts for ranking.
type AttemptLister interface {
	ListCompleted(ctx context.Context, categoryID *uuid.UUID, since *time.Time, limit, offset int) ([]repository.LeaderboardRow, error)
}

// LeaderboardService ranks completed attempts. Pages are cached in Redis
// for a short TTL and invalidated by the submitted-scores worker.
type LeaderboardService struct {
	attempts AttemptLister
	rdb      *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(attempts AttemptLister, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{attempts: attempts, rdb: rdb, cacheTTL: cacheTTL, log: log}
}

// List returns one leaderboard page. limit is clamped to [1,100], unknown
// ranges fall back to all-time, and anonymous players get a stable
// Player-XXXX display name derived from their attempt id.
func (s *LeaderboardService) List(ctx context.Context, categoryID *uuid.UUID, rng string, limit, offset int) ([]model.LeaderboardEntry, error) {
	rng = normalizeRange(rng)
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	cacheKey := config.CacheKey.LeaderboardKey(categoryKeyPart(categoryID), rng, limit, offset)
	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var entries []model.LeaderboardEntry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("leaderboard cache read failed")
	}

	rows, err := s.attempts.ListCompleted(ctx, categoryID, rangeSince(rng), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list completed attempts: %w", err)
	}

	entries := make([]model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = model.LeaderboardEntry{
			ID:          row.AttemptID,
			UserName:    displayName(row),
			Score:       row.Score,
			TimeSec:     row.TimeTakenSec,
			SubmittedAt: row.SubmittedAt,
			Rank:        offset + i + 1,
			CategoryID:  row.CategoryID,
		}
	}

	if payload, err := json.Marshal(entries); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("leaderboard cache write failed")
		}
	}

	return entries, nil
}

func normalizeRange(rng string) string {
	switch rng {
	case RangeDaily, RangeWeekly, RangeMonthly:
		return rng
	default:
		return RangeAll
	}
}

// rangeSince returns the calendar-aligned start of the window: midnight
// today for daily, Monday midnight for weekly, the first of the month for
// monthly, nil for all-time.
func rangeSince(rng string) *time.Time {
	now := time.Now().UTC()
	var since time.Time
	switch rng {
	case RangeDaily:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case RangeWeekly:
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -daysSinceMonday)
		since = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	case RangeMonthly:
		since = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return nil
	}
	return &since
}

func categoryKeyPart(categoryID *uuid.UUID) string {
	if categoryID == nil {
		return "all"
	}
	return categoryID.String()
}

// displayName yields the player's name, or a stable pseudonym for
// anonymous attempts.
func displayName(row repository.LeaderboardRow) string {
	if row.UserName != nil && *row.UserName != "" {
		return *row.UserName
	}
	suffix := row.AttemptID
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return "Player-" + strings.ToUpper(suffix)
}
