package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gitKheang/quiz-backend/internal/config"
	"github.com/gitKheang/quiz-backend/internal/repository"
)

const (
	InvalidateBatchSize    = 50
	InvalidateBatchTimeout = 2 * time.Second
	InvalidatePollTimeout  = 1 * time.Second
)

// ScoreQueue publishes attempt ids to the submitted-scores queue.
type ScoreQueue struct {
	rdb *redis.Client
}

// NewScoreQueue creates a new ScoreQueue.
func NewScoreQueue(rdb *redis.Client) *ScoreQueue {
	return &ScoreQueue{rdb: rdb}
}

// Push enqueues a submitted attempt id.
func (q *ScoreQueue) Push(ctx context.Context, attemptID string) error {
	return q.rdb.RPush(ctx, config.WorkerKey.SubmittedScoresQueue, attemptID).Err()
}

// LeaderboardWorker drops cached leaderboard pages after submissions so
// fresh scores show up before the cache TTL would expire. Batches are
// deduplicated by category, one invalidation per flush.
type LeaderboardWorker struct {
	attempts *repository.AttemptRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewLeaderboardWorker creates a new LeaderboardWorker.
func NewLeaderboardWorker(attempts *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *LeaderboardWorker {
	return &LeaderboardWorker{
		attempts: attempts,
		rdb:      rdb,
		log:      log.With().Str("component", "leaderboard_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled.
func (w *LeaderboardWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LeaderboardWorker started")

	batch := make([]string, 0, InvalidateBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= InvalidateBatchSize || time.Since(lastFlush) >= InvalidateBatchTimeout) {

			w.flush(context.Background(), batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, InvalidatePollTimeout, config.WorkerKey.SubmittedScoresQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}
			batch = append(batch, item[1])
		}
	}
}

// flush resolves each attempt's category and drops the affected cached
// pages, plus the pages that span all categories.
func (w *LeaderboardWorker) flush(ctx context.Context, batch []string) {
	if len(batch) == 0 {
		return
	}

	categories := make(map[uuid.UUID]struct{}, len(batch))
	for _, attemptID := range batch {
		attempt, err := w.attempts.GetByAttemptID(ctx, attemptID)
		if err != nil {
			w.log.Warn().Err(err).Str("attempt_id", attemptID).Msg("skip unknown attempt")
			continue
		}
		categories[attempt.CategoryID] = struct{}{}
	}

	w.deletePattern(ctx, config.CacheKey.LeaderboardGlobalPattern())
	for categoryID := range categories {
		w.deletePattern(ctx, config.CacheKey.LeaderboardPattern(categoryID.String()))
	}

	w.log.Debug().Int("submissions", len(batch)).Int("categories", len(categories)).
		Msg("leaderboard cache invalidated")
}

func (w *LeaderboardWorker) deletePattern(ctx context.Context, pattern string) {
	iter := w.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := w.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			w.log.Warn().Err(err).Str("key", iter.Val()).Msg("cache delete failed")
		}
	}
	if err := iter.Err(); err != nil {
		w.log.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
	}
}
