package service

import (
	"context"
	"time"

	"github.com/ctf-scoreboard/internal/domain"
	"github.com/ctf-scoreboard/internal/queue"
)

//go:generate mockgen -source=./repository.go -destination=./mocks/repository.mock.go -package=svcmocks Repository,Invalidator

// Repository is the persistent store of competition data
type Repository interface {
	LoadSnapshot(ctx context.Context, gameID int64) (domain.Snapshot, error)
	GetGame(ctx context.Context, gameID int64) (domain.Game, error)
	ListGames(ctx context.Context) ([]domain.BasicGameInfo, error)
	ListGameIDs(ctx context.Context) ([]int64, error)
	ListActiveGameIDs(ctx context.Context, at time.Time) ([]int64, error)
	GetParticipation(ctx context.Context, participationID int64) (domain.Participation, error)
	SetParticipationStatus(ctx context.Context, participationID int64, status domain.ParticipationStatus) error
	EnsureInstances(ctx context.Context, gameID, participationID int64) (int, error)
	InsertSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, bool, error)
	UpdateChallengeScoring(ctx context.Context, gameID, challengeID int64, s domain.ChallengeScoring) error
	DeleteGame(ctx context.Context, gameID int64) error
}

// Invalidator accepts cache rebuild requests
type Invalidator interface {
	Enqueue(ctx context.Context, req queue.Request) error
	Stats() queue.Stats
}
