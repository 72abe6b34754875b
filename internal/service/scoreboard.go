package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ctf-scoreboard/internal/cache"
	"github.com/ctf-scoreboard/internal/config"
	"github.com/ctf-scoreboard/internal/domain"
	"github.com/ctf-scoreboard/internal/queue"
	"github.com/ctf-scoreboard/internal/scoreboard"
)

// Flush triggers recorded on rebuild requests
const (
	TriggerManual        = "manual"
	TriggerSubmission    = "submission"
	TriggerParticipation = "participation"
	TriggerChallenge     = "challenge"
)

// ScoreboardService serves scoreboards from the cache and keeps them fresh
type ScoreboardService struct {
	repo        Repository
	cache       *cache.Cache
	queue       Invalidator
	aggregator  *scoreboard.Aggregator
	cacheConfig *config.CacheConfig
	queueConfig *config.QueueConfig
	logger      *slog.Logger
}

// NewScoreboardService creates a new scoreboard service
func NewScoreboardService(
	repo Repository,
	c *cache.Cache,
	q Invalidator,
	aggregator *scoreboard.Aggregator,
	cfg *config.Config,
	logger *slog.Logger,
) *ScoreboardService {
	return &ScoreboardService{
		repo:        repo,
		cache:       c,
		queue:       q,
		aggregator:  aggregator,
		cacheConfig: &cfg.Cache,
		queueConfig: &cfg.Queue,
		logger:      logger,
	}
}

// GetScoreboard returns the cached scoreboard of a game, computing and
// caching it on a miss.
func (s *ScoreboardService) GetScoreboard(ctx context.Context, gameID int64) (*domain.Scoreboard, error) {
	data, err := s.cache.GetOrCompute(ctx, cache.ScoreboardKey(gameID), s.cacheConfig.ScoreboardTTL,
		func(ctx context.Context) ([]byte, error) {
			return s.Generate(ctx, gameID)
		})
	if err != nil {
		return nil, fmt.Errorf("getting scoreboard: %w", err)
	}

	sb, err := scoreboard.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding cached scoreboard: %w", err)
	}
	return sb, nil
}

// Generate computes a game's scoreboard from a fresh snapshot and returns it
// in its cached encoding.
func (s *ScoreboardService) Generate(ctx context.Context, gameID int64) ([]byte, error) {
	snap, err := s.repo.LoadSnapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}

	sb := s.aggregator.Compute(snap)
	data, err := scoreboard.Encode(sb)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scoreboard generated",
		"game_id", gameID,
		"teams", len(sb.Items),
		"challenges", sb.ChallengeCount(),
		"size", len(data),
	)
	return data, nil
}

// FlushScoreboard asks for the game's scoreboard to be rebuilt. It returns
// once the request is queued, not when the rebuild is done.
func (s *ScoreboardService) FlushScoreboard(ctx context.Context, gameID int64, trigger string) error {
	if s.queueConfig.EnqueueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queueConfig.EnqueueTimeout)
		defer cancel()
	}

	req := queue.NewRequest(cache.KeyScoreboard, s.cacheConfig.ScoreboardTTL, trigger, strconv.FormatInt(gameID, 10))
	if err := s.queue.Enqueue(ctx, req); err != nil {
		return fmt.Errorf("queueing scoreboard rebuild: %w", err)
	}

	s.logger.Debug("scoreboard flush queued", "game_id", gameID, "trigger", trigger, "request_id", req.ID)
	return nil
}

// EvictGame drops every cached entry derived from the game
func (s *ScoreboardService) EvictGame(ctx context.Context, gameID int64) error {
	return errors.Join(
		s.cache.Remove(ctx, cache.ScoreboardKey(gameID)),
		s.cache.Remove(ctx, cache.KeyBasicGameInfo),
	)
}

// ListGames returns the visible games, cached briefly as JSON
func (s *ScoreboardService) ListGames(ctx context.Context) ([]domain.BasicGameInfo, error) {
	data, err := s.cache.GetOrCompute(ctx, cache.KeyBasicGameInfo, s.cacheConfig.BasicInfoTTL,
		func(ctx context.Context) ([]byte, error) {
			games, err := s.repo.ListGames(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(games)
		})
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	var games []domain.BasicGameInfo
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("decoding cached game list: %w", err)
	}
	return games, nil
}

// HandleGameEvent applies a write notification to the cached state
func (s *ScoreboardService) HandleGameEvent(ctx context.Context, event domain.GameEvent) error {
	switch event.Type {
	case domain.EventGameDeleted:
		return s.EvictGame(ctx, event.GameID)
	case domain.EventGameUpdated:
		if err := s.cache.Remove(ctx, cache.KeyBasicGameInfo); err != nil {
			s.logger.Warn("failed to evict game list", "error", err)
		}
	}
	return s.FlushScoreboard(ctx, event.GameID, string(event.Type))
}

// QueueStats reports the invalidation queue counters
func (s *ScoreboardService) QueueStats() queue.Stats {
	return s.queue.Stats()
}

// CacheHandler returns the queue handler that rebuilds scoreboard entries
func (s *ScoreboardService) CacheHandler() *ScoreboardCacheHandler {
	return &ScoreboardCacheHandler{service: s}
}

// ScoreboardCacheHandler rebuilds entries under the scoreboard key template
type ScoreboardCacheHandler struct {
	service *ScoreboardService
}

// CacheKey resolves the scoreboard key from the game id parameter
func (h *ScoreboardCacheHandler) CacheKey(req queue.Request) (string, bool) {
	gameID, ok := parseGameID(req)
	if !ok {
		return "", false
	}
	return cache.ScoreboardKey(gameID), true
}

// Handle regenerates the scoreboard. A game that no longer exists yields an
// empty result so nothing is stored.
func (h *ScoreboardCacheHandler) Handle(ctx context.Context, req queue.Request) ([]byte, error) {
	gameID, ok := parseGameID(req)
	if !ok {
		return nil, domain.ErrInvalidRequest
	}

	data, err := h.service.Generate(ctx, gameID)
	if errors.Is(err, domain.ErrGameNotFound) {
		return nil, nil
	}
	return data, err
}

func parseGameID(req queue.Request) (int64, bool) {
	if len(req.Params) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(req.Params[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
