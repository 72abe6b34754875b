package domain

import "time"

// GameEventType names a write that affects derived scoreboard state
type GameEventType string

const (
	EventSubmissionAccepted         GameEventType = "submission_accepted"
	EventParticipationStatusChanged GameEventType = "participation_status_changed"
	EventChallengeUpdated           GameEventType = "challenge_updated"
	EventGameUpdated                GameEventType = "game_updated"
	EventGameDeleted                GameEventType = "game_deleted"
)

// GameEvent is the message published by the competition backend whenever
// data feeding a game's scoreboard changes.
type GameEvent struct {
	Type            GameEventType `json:"type"`
	GameID          int64         `json:"game_id"`
	ChallengeID     int64         `json:"challenge_id,omitempty"`
	ParticipationID int64         `json:"participation_id,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Valid reports whether the event carries enough to act on
func (e GameEvent) Valid() bool {
	if e.GameID <= 0 {
		return false
	}
	switch e.Type {
	case EventSubmissionAccepted, EventParticipationStatusChanged,
		EventChallengeUpdated, EventGameUpdated, EventGameDeleted:
		return true
	}
	return false
}
