package domain

import (
	"time"
)

// ChallengeTag is the category a challenge is listed under
type ChallengeTag string

const (
	TagMisc       ChallengeTag = "Misc"
	TagCrypto     ChallengeTag = "Crypto"
	TagPwn        ChallengeTag = "Pwn"
	TagWeb        ChallengeTag = "Web"
	TagReverse    ChallengeTag = "Reverse"
	TagBlockchain ChallengeTag = "Blockchain"
	TagForensics  ChallengeTag = "Forensics"
	TagHardware   ChallengeTag = "Hardware"
	TagMobile     ChallengeTag = "Mobile"
	TagPPC        ChallengeTag = "PPC"
)

// ChallengeTags lists every known tag in display order
var ChallengeTags = []ChallengeTag{
	TagMisc, TagCrypto, TagPwn, TagWeb, TagReverse,
	TagBlockchain, TagForensics, TagHardware, TagMobile, TagPPC,
}

// Order returns the position of the tag in ChallengeTags, or len(ChallengeTags)
// for tags this build does not know about.
func (t ChallengeTag) Order() int {
	for i, tag := range ChallengeTags {
		if tag == t {
			return i
		}
	}
	return len(ChallengeTags)
}

// ParticipationStatus is the review state of a team's registration in a game
type ParticipationStatus string

const (
	ParticipationPending     ParticipationStatus = "Pending"
	ParticipationAccepted    ParticipationStatus = "Accepted"
	ParticipationRejected    ParticipationStatus = "Rejected"
	ParticipationSuspended   ParticipationStatus = "Suspended"
	ParticipationUnsubmitted ParticipationStatus = "Unsubmitted"
)

// Valid reports whether s is a known status
func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationPending, ParticipationAccepted, ParticipationRejected,
		ParticipationSuspended, ParticipationUnsubmitted:
		return true
	}
	return false
}

// AnswerResult is the judged outcome of a submission
type AnswerResult string

const (
	AnswerAccepted      AnswerResult = "Accepted"
	AnswerWrong         AnswerResult = "WrongAnswer"
	AnswerCheatDetected AnswerResult = "CheatDetected"
	AnswerNotFound      AnswerResult = "NotFound"
)

// Valid reports whether r is a known result
func (r AnswerResult) Valid() bool {
	switch r {
	case AnswerAccepted, AnswerWrong, AnswerCheatDetected, AnswerNotFound:
		return true
	}
	return false
}

// Game represents a CTF competition
type Game struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary,omitempty"`
	Hidden        bool       `json:"hidden"`
	StartTime     time.Time  `json:"start"`
	EndTime       time.Time  `json:"end"`
	BloodBonus    BloodBonus `json:"blood_bonus"`
	Organizations []string   `json:"organizations,omitempty"`
}

// IsActive reports whether at lies inside [StartTime, EndTime)
func (g Game) IsActive(at time.Time) bool {
	return !at.Before(g.StartTime) && at.Before(g.EndTime)
}

// HasOrganizations reports whether teams are ranked per organization too
func (g Game) HasOrganizations() bool {
	return len(g.Organizations) > 0
}

// BasicGameInfo is the short listing form of a game
type BasicGameInfo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
}

// Challenge is a task inside a game. AcceptedCount is maintained by the
// submission write path and feeds the dynamic score.
type Challenge struct {
	ID            int64        `json:"id"`
	GameID        int64        `json:"game_id"`
	Title         string       `json:"title"`
	Tag           ChallengeTag `json:"tag"`
	IsEnabled     bool         `json:"is_enabled"`
	AcceptedCount int          `json:"accepted_count"`
	OriginalScore int          `json:"original_score"`
	MinScoreRate  float64      `json:"min_score_rate"`
	Difficulty    float64      `json:"difficulty"`
}

// CurrentScore returns the decayed score for the challenge
func (c Challenge) CurrentScore() int {
	return CurrentScore(c.AcceptedCount, c.OriginalScore, c.MinScoreRate, c.Difficulty)
}

// ChallengeScoring holds the writable scoring settings of a challenge
type ChallengeScoring struct {
	IsEnabled     bool    `json:"is_enabled"`
	OriginalScore int     `json:"original_score"`
	MinScoreRate  float64 `json:"min_score_rate"`
	Difficulty    float64 `json:"difficulty"`
}

// Validate checks the settings before they are stored
func (s ChallengeScoring) Validate() error {
	return ValidateScoring(s.OriginalScore, s.MinScoreRate, s.Difficulty)
}

// Team is the public identity of a competing team
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Participation is a team's registration in a specific game
type Participation struct {
	ID           int64               `json:"id"`
	GameID       int64               `json:"game_id"`
	Team         Team                `json:"team"`
	Status       ParticipationStatus `json:"status"`
	Organization *string             `json:"organization,omitempty"`
}

// Instance links a participation to a challenge it has access to
type Instance struct {
	ChallengeID     int64 `json:"challenge_id"`
	ParticipationID int64 `json:"participation_id"`
}

// Submission is an immutable answer attempt
type Submission struct {
	ID              int64        `json:"id"`
	GameID          int64        `json:"game_id"`
	ChallengeID     int64        `json:"challenge_id"`
	ParticipationID int64        `json:"participation_id"`
	TeamID          int64        `json:"team_id"`
	UserName        string       `json:"user_name"`
	Status          AnswerResult `json:"status"`
	SubmitTime      time.Time    `json:"submit_time"`
}

// Snapshot is a consistent, point-in-time read of everything the scoreboard
// is derived from. TakenAt becomes the scoreboard's update time.
type Snapshot struct {
	Game           Game
	Challenges     []Challenge
	Participations []Participation
	Instances      []Instance
	Submissions    []Submission
	TakenAt        time.Time
}
