package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ctf-scoreboard/internal/config"
	"github.com/ctf-scoreboard/internal/domain"
)

// Repository provides PostgreSQL-based access to competition data
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a connection pool, retrying with exponential backoff
// until the database answers or the retries run out.
func NewRepository(ctx context.Context, cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	strategy, err := retry.NewExponentialBackoffRetryStrategy(time.Second, 10*time.Second, int32(cfg.ConnectRetries))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating retry strategy: %w", err)
	}
	for {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		next, ok := strategy.Next()
		if !ok {
			pool.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Warn("database not reachable, retrying", "host", cfg.Host, "retry_in", next, "error", err)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("connecting to database: %w", ctx.Err())
		case <-time.After(next):
		}
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping reports whether the database answers
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			hidden BOOLEAN NOT NULL DEFAULT FALSE,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			blood_bonus BIGINT NOT NULL DEFAULT 52459530,
			organizations TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			CHECK (end_time > start_time)
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(64) NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			tag VARCHAR(32) NOT NULL DEFAULT 'Misc',
			is_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			accepted_count INT NOT NULL DEFAULT 0,
			original_score INT NOT NULL DEFAULT 500 CHECK (original_score >= 0),
			min_score_rate DOUBLE PRECISION NOT NULL DEFAULT 0.25 CHECK (min_score_rate BETWEEN 0 AND 1),
			difficulty DOUBLE PRECISION NOT NULL DEFAULT 5 CHECK (difficulty > 0)
		)`,
		`CREATE TABLE IF NOT EXISTS participations (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			status VARCHAR(16) NOT NULL DEFAULT 'Pending',
			organization VARCHAR(64),
			UNIQUE(game_id, team_id)
		)`,
		`CREATE TABLE IF NOT EXISTS instances (
			challenge_id BIGINT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
			participation_id BIGINT NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
			PRIMARY KEY (challenge_id, participation_id)
		)`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			challenge_id BIGINT NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
			participation_id BIGINT NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
			team_id BIGINT NOT NULL,
			user_name VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			submit_time TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_game ON challenges(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participations_game ON participations(game_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_participation ON instances(participation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_accepted ON submissions(game_id, status, submit_time)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_solve ON submissions(challenge_id, participation_id, status)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

const gameColumns = `id, title, summary, hidden, start_time, end_time, blood_bonus, organizations`

func scanGame(row pgx.Row) (domain.Game, error) {
	var g domain.Game
	err := row.Scan(
		&g.ID,
		&g.Title,
		&g.Summary,
		&g.Hidden,
		&g.StartTime,
		&g.EndTime,
		&g.BloodBonus,
		&g.Organizations,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Game{}, domain.ErrGameNotFound
		}
		return domain.Game{}, fmt.Errorf("getting game: %w", err)
	}
	return g, nil
}

// GetGame retrieves a game by ID
func (r *Repository) GetGame(ctx context.Context, gameID int64) (domain.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return scanGame(r.pool.QueryRow(ctx, query, gameID))
}

// ListGames returns the visible games, latest first
func (r *Repository) ListGames(ctx context.Context) ([]domain.BasicGameInfo, error) {
	query := `
		SELECT id, title, summary, start_time, end_time
		FROM games
		WHERE NOT hidden
		ORDER BY start_time DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	games := make([]domain.BasicGameInfo, 0)
	for rows.Next() {
		var g domain.BasicGameInfo
		if err := rows.Scan(&g.ID, &g.Title, &g.Summary, &g.StartTime, &g.EndTime); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListGameIDs returns the ids of every game
func (r *Repository) ListGameIDs(ctx context.Context) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT id FROM games ORDER BY id`)
}

// ListActiveGameIDs returns the ids of games running at the given time
func (r *Repository) ListActiveGameIDs(ctx context.Context, at time.Time) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT id FROM games WHERE start_time <= $1 AND end_time > $1 ORDER BY id`, at)
}

func (r *Repository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing game ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteGame removes a game and, by cascade, everything belonging to it
func (r *Repository) DeleteGame(ctx context.Context, gameID int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}
