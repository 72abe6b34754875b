package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ctf-scoreboard/internal/domain"
)

// LoadSnapshot reads everything a game's scoreboard is derived from inside a
// single REPEATABLE READ transaction, so all rows reflect the same instant.
// Only accepted submissions made before the game ended are loaded.
func (r *Repository) LoadSnapshot(ctx context.Context, gameID int64) (domain.Snapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var snap domain.Snapshot

	// now() is fixed at transaction start, which is the snapshot instant
	if err := tx.QueryRow(ctx, `SELECT now()`).Scan(&snap.TakenAt); err != nil {
		return domain.Snapshot{}, fmt.Errorf("reading snapshot time: %w", err)
	}

	snap.Game, err = scanGame(tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, gameID))
	if err != nil {
		return domain.Snapshot{}, err
	}

	if snap.Challenges, err = loadChallenges(ctx, tx, gameID); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Participations, err = loadParticipations(ctx, tx, gameID); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Instances, err = loadInstances(ctx, tx, gameID); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Submissions, err = loadAcceptedSubmissions(ctx, tx, gameID, snap.Game.EndTime); err != nil {
		return domain.Snapshot{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Snapshot{}, fmt.Errorf("committing snapshot transaction: %w", err)
	}

	r.logger.Debug("loaded scoreboard snapshot",
		"game_id", gameID,
		"challenges", len(snap.Challenges),
		"participations", len(snap.Participations),
		"submissions", len(snap.Submissions),
	)
	return snap, nil
}

func loadChallenges(ctx context.Context, tx pgx.Tx, gameID int64) ([]domain.Challenge, error) {
	query := `
		SELECT id, game_id, title, tag, is_enabled, accepted_count, original_score, min_score_rate, difficulty
		FROM challenges
		WHERE game_id = $1
		ORDER BY id
	`
	rows, err := tx.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading challenges: %w", err)
	}
	defer rows.Close()

	var challenges []domain.Challenge
	for rows.Next() {
		var c domain.Challenge
		err := rows.Scan(
			&c.ID,
			&c.GameID,
			&c.Title,
			&c.Tag,
			&c.IsEnabled,
			&c.AcceptedCount,
			&c.OriginalScore,
			&c.MinScoreRate,
			&c.Difficulty,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func loadParticipations(ctx context.Context, tx pgx.Tx, gameID int64) ([]domain.Participation, error) {
	query := `
		SELECT p.id, p.game_id, p.status, p.organization, t.id, t.name, t.bio, t.avatar_url
		FROM participations p
		JOIN teams t ON t.id = p.team_id
		WHERE p.game_id = $1
		ORDER BY p.id
	`
	rows, err := tx.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading participations: %w", err)
	}
	defer rows.Close()

	var participations []domain.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning participation: %w", err)
		}
		participations = append(participations, p)
	}
	return participations, rows.Err()
}

func loadInstances(ctx context.Context, tx pgx.Tx, gameID int64) ([]domain.Instance, error) {
	query := `
		SELECT i.challenge_id, i.participation_id
		FROM instances i
		JOIN challenges c ON c.id = i.challenge_id
		WHERE c.game_id = $1
		ORDER BY i.participation_id, i.challenge_id
	`
	rows, err := tx.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading instances: %w", err)
	}
	defer rows.Close()

	var instances []domain.Instance
	for rows.Next() {
		var inst domain.Instance
		if err := rows.Scan(&inst.ChallengeID, &inst.ParticipationID); err != nil {
			return nil, fmt.Errorf("scanning instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func loadAcceptedSubmissions(ctx context.Context, tx pgx.Tx, gameID int64, end time.Time) ([]domain.Submission, error) {
	query := `
		SELECT id, game_id, challenge_id, participation_id, team_id, user_name, status, submit_time
		FROM submissions
		WHERE game_id = $1 AND status = $2 AND submit_time < $3
		ORDER BY id
	`
	rows, err := tx.Query(ctx, query, gameID, string(domain.AnswerAccepted), end)
	if err != nil {
		return nil, fmt.Errorf("loading submissions: %w", err)
	}
	defer rows.Close()

	var submissions []domain.Submission
	for rows.Next() {
		var s domain.Submission
		err := rows.Scan(
			&s.ID,
			&s.GameID,
			&s.ChallengeID,
			&s.ParticipationID,
			&s.TeamID,
			&s.UserName,
			&s.Status,
			&s.SubmitTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func scanParticipation(row pgx.Row) (domain.Participation, error) {
	var p domain.Participation
	err := row.Scan(
		&p.ID,
		&p.GameID,
		&p.Status,
		&p.Organization,
		&p.Team.ID,
		&p.Team.Name,
		&p.Team.Bio,
		&p.Team.AvatarURL,
	)
	return p, err
}
