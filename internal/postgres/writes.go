package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ctf-scoreboard/internal/domain"
)

// GetParticipation retrieves a participation together with its team
func (r *Repository) GetParticipation(ctx context.Context, participationID int64) (domain.Participation, error) {
	query := `
		SELECT p.id, p.game_id, p.status, p.organization, t.id, t.name, t.bio, t.avatar_url
		FROM participations p
		JOIN teams t ON t.id = p.team_id
		WHERE p.id = $1
	`
	p, err := scanParticipation(r.pool.QueryRow(ctx, query, participationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Participation{}, domain.ErrParticipationNotFound
		}
		return domain.Participation{}, fmt.Errorf("getting participation: %w", err)
	}
	return p, nil
}

// SetParticipationStatus updates the review status of a participation
func (r *Repository) SetParticipationStatus(ctx context.Context, participationID int64, status domain.ParticipationStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE participations SET status = $2 WHERE id = $1`,
		participationID, string(status),
	)
	if err != nil {
		return fmt.Errorf("updating participation status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrParticipationNotFound
	}
	return nil
}

// EnsureInstances gives a participation an instance of every enabled
// challenge of its game and returns how many were created.
func (r *Repository) EnsureInstances(ctx context.Context, gameID, participationID int64) (int, error) {
	query := `
		INSERT INTO instances (challenge_id, participation_id)
		SELECT c.id, $2
		FROM challenges c
		WHERE c.game_id = $1 AND c.is_enabled
		ON CONFLICT DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query, gameID, participationID)
	if err != nil {
		return 0, fmt.Errorf("creating instances: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// InsertSubmission records a submission. An accepted submission that is the
// participation's first for the challenge also bumps the challenge's
// accepted count; firstSolve reports whether that happened.
func (r *Repository) InsertSubmission(ctx context.Context, sub domain.Submission) (saved domain.Submission, firstSolve bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Submission{}, false, fmt.Errorf("beginning submission transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var teamID int64
	err = tx.QueryRow(ctx,
		`SELECT team_id FROM participations WHERE id = $1 AND game_id = $2`,
		sub.ParticipationID, sub.GameID,
	).Scan(&teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, false, domain.ErrParticipationNotFound
		}
		return domain.Submission{}, false, fmt.Errorf("checking participation: %w", err)
	}

	// lock the challenge row so concurrent first solves count once each
	err = tx.QueryRow(ctx,
		`SELECT id FROM challenges WHERE id = $1 AND game_id = $2 FOR UPDATE`,
		sub.ChallengeID, sub.GameID,
	).Scan(&sub.ChallengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, false, domain.ErrChallengeNotFound
		}
		return domain.Submission{}, false, fmt.Errorf("checking challenge: %w", err)
	}

	if sub.Status == domain.AnswerAccepted {
		var solved bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM submissions
				WHERE challenge_id = $1 AND participation_id = $2 AND status = $3
			)`,
			sub.ChallengeID, sub.ParticipationID, string(domain.AnswerAccepted),
		).Scan(&solved)
		if err != nil {
			return domain.Submission{}, false, fmt.Errorf("checking previous solves: %w", err)
		}

		if !solved {
			firstSolve = true
			_, err = tx.Exec(ctx,
				`UPDATE challenges SET accepted_count = accepted_count + 1 WHERE id = $1`,
				sub.ChallengeID,
			)
			if err != nil {
				return domain.Submission{}, false, fmt.Errorf("updating accepted count: %w", err)
			}
		}
	}

	sub.TeamID = teamID
	err = tx.QueryRow(ctx, `
		INSERT INTO submissions (game_id, challenge_id, participation_id, team_id, user_name, status, submit_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		sub.GameID, sub.ChallengeID, sub.ParticipationID, sub.TeamID, sub.UserName, string(sub.Status), sub.SubmitTime,
	).Scan(&sub.ID)
	if err != nil {
		return domain.Submission{}, false, fmt.Errorf("inserting submission: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Submission{}, false, fmt.Errorf("committing submission: %w", err)
	}
	return sub, firstSolve, nil
}

// UpdateChallengeScoring stores new scoring settings for a challenge
func (r *Repository) UpdateChallengeScoring(ctx context.Context, gameID, challengeID int64, s domain.ChallengeScoring) error {
	query := `
		UPDATE challenges
		SET is_enabled = $3, original_score = $4, min_score_rate = $5, difficulty = $6
		WHERE id = $2 AND game_id = $1
	`
	result, err := r.pool.Exec(ctx, query, gameID, challengeID, s.IsEnabled, s.OriginalScore, s.MinScoreRate, s.Difficulty)
	if err != nil {
		return fmt.Errorf("updating challenge scoring: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}
