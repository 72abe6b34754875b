package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ctf-scoreboard/internal/domain"
)

// GameService handles the competition writes that affect scoreboards
type GameService struct {
	repo        Repository
	scoreboards *ScoreboardService
	logger      *slog.Logger
	now         func() time.Time
}

// NewGameService creates a new game service
func NewGameService(repo Repository, scoreboards *ScoreboardService, logger *slog.Logger) *GameService {
	return &GameService{
		repo:        repo,
		scoreboards: scoreboards,
		logger:      logger,
		now:         time.Now,
	}
}

// UpdateParticipationStatus moves a team's registration to a new status and
// flushes the scoreboard when the set of ranked teams changes.
func (s *GameService) UpdateParticipationStatus(ctx context.Context, gameID, participationID int64, status domain.ParticipationStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	part, err := s.repo.GetParticipation(ctx, participationID)
	if err != nil {
		return err
	}
	if part.GameID != gameID {
		return domain.ErrParticipationNotFound
	}

	if err := s.repo.SetParticipationStatus(ctx, participationID, status); err != nil {
		return fmt.Errorf("setting participation status: %w", err)
	}

	old := part.Status
	flush := false
	switch status {
	case domain.ParticipationAccepted:
		added, err := s.repo.EnsureInstances(ctx, gameID, participationID)
		if err != nil {
			return fmt.Errorf("creating challenge instances: %w", err)
		}
		flush = added > 0 || old == domain.ParticipationSuspended
	case domain.ParticipationSuspended:
		game, err := s.repo.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		flush = game.IsActive(s.now())
	default:
		// an accepted team dropping out leaves the board
		flush = old == domain.ParticipationAccepted
	}

	s.logger.Info("participation status updated",
		"game_id", gameID,
		"participation_id", participationID,
		"from", old,
		"to", status,
		"flush", flush,
	)

	if flush {
		s.flush(ctx, gameID, TriggerParticipation)
	}
	return nil
}

// RecordSubmission stores a judged submission. Accepted ones flush the
// scoreboard.
func (s *GameService) RecordSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	if sub.GameID <= 0 || sub.ChallengeID <= 0 || sub.ParticipationID <= 0 || !sub.Status.Valid() {
		return domain.Submission{}, domain.ErrInvalidRequest
	}
	if sub.SubmitTime.IsZero() {
		sub.SubmitTime = s.now()
	}
	sub.SubmitTime = sub.SubmitTime.UTC()

	saved, firstSolve, err := s.repo.InsertSubmission(ctx, sub)
	if err != nil {
		return domain.Submission{}, err
	}

	if saved.Status == domain.AnswerAccepted {
		s.logger.Debug("accepted submission recorded",
			"game_id", saved.GameID,
			"challenge_id", saved.ChallengeID,
			"participation_id", saved.ParticipationID,
			"first_solve", firstSolve,
		)
		s.flush(ctx, saved.GameID, TriggerSubmission)
	}
	return saved, nil
}

// UpdateChallengeScoring validates and stores new scoring settings
func (s *GameService) UpdateChallengeScoring(ctx context.Context, gameID, challengeID int64, scoring domain.ChallengeScoring) error {
	if err := scoring.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpdateChallengeScoring(ctx, gameID, challengeID, scoring); err != nil {
		return err
	}

	s.flush(ctx, gameID, TriggerChallenge)
	return nil
}

// DeleteGame removes a game and its cached entries
func (s *GameService) DeleteGame(ctx context.Context, gameID int64) error {
	if err := s.repo.DeleteGame(ctx, gameID); err != nil {
		return err
	}

	if err := s.scoreboards.EvictGame(ctx, gameID); err != nil {
		s.logger.Warn("failed to evict deleted game", "game_id", gameID, "error", err)
	}
	s.logger.Info("game deleted", "game_id", gameID)
	return nil
}

// flush failures never fail the write; the periodic refresh catches up
func (s *GameService) flush(ctx context.Context, gameID int64, trigger string) {
	if err := s.scoreboards.FlushScoreboard(ctx, gameID, trigger); err != nil {
		s.logger.Warn("failed to queue scoreboard flush",
			"game_id", gameID,
			"trigger", trigger,
			"error", err,
		)
	}
}
