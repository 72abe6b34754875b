package domain

import "time"

// SubmissionType classifies a team's result on one challenge
type SubmissionType string

const (
	SubmissionUnaccepted  SubmissionType = "Unaccepted"
	SubmissionNormal      SubmissionType = "Normal"
	SubmissionFirstBlood  SubmissionType = "FirstBlood"
	SubmissionSecondBlood SubmissionType = "SecondBlood"
	SubmissionThirdBlood  SubmissionType = "ThirdBlood"
)

// BloodTypes maps blood index to its submission type
var BloodTypes = [3]SubmissionType{
	SubmissionFirstBlood,
	SubmissionSecondBlood,
	SubmissionThirdBlood,
}

// Blood records one of the first three teams to solve a challenge
type Blood struct {
	ID         int64     `json:"id" codec:"id"`
	Name       string    `json:"name" codec:"name"`
	Avatar     string    `json:"avatar,omitempty" codec:"avatar"`
	SubmitTime time.Time `json:"submit_time" codec:"submit_time"`
}

// ChallengeItem is a team's standing on a single challenge
type ChallengeItem struct {
	ID         int64          `json:"id" codec:"id"`
	Score      int            `json:"score" codec:"score"`
	UserName   string         `json:"user_name,omitempty" codec:"user_name"`
	Type       SubmissionType `json:"type" codec:"type"`
	SubmitTime *time.Time     `json:"submit_time,omitempty" codec:"submit_time"`
}

// ScoreboardItem is one ranked team
type ScoreboardItem struct {
	ID                 int64           `json:"id" codec:"id"`
	Name               string          `json:"name" codec:"name"`
	Bio                string          `json:"bio,omitempty" codec:"bio"`
	Avatar             string          `json:"avatar,omitempty" codec:"avatar"`
	Organization       *string         `json:"organization,omitempty" codec:"organization"`
	Rank               int             `json:"rank" codec:"rank"`
	OrganizationRank   *int            `json:"organization_rank,omitempty" codec:"organization_rank"`
	SolvedCount        int             `json:"solved_count" codec:"solved_count"`
	Score              int             `json:"score" codec:"score"`
	LastSubmissionTime time.Time       `json:"last_submission_time" codec:"last_submission_time"`
	Challenges         []ChallengeItem `json:"challenges" codec:"challenges"`
}

// TimeLine is one point of a team's cumulative score curve
type TimeLine struct {
	Time  time.Time `json:"time" codec:"time"`
	Score int       `json:"score" codec:"score"`
}

// TopTimeLine is the score curve of one top team
type TopTimeLine struct {
	ID    int64      `json:"id" codec:"id"`
	Name  string     `json:"name" codec:"name"`
	Items []TimeLine `json:"items" codec:"items"`
}

// ChallengeInfo summarizes a challenge for the scoreboard header
type ChallengeInfo struct {
	ID          int64        `json:"id" codec:"id"`
	Title       string       `json:"title" codec:"title"`
	Tag         ChallengeTag `json:"tag" codec:"tag"`
	Score       int          `json:"score" codec:"score"`
	SolvedCount int          `json:"solved_count" codec:"solved_count"`
	Bloods      []Blood      `json:"bloods" codec:"bloods"`
}

// TagChallenges groups the challenges of one tag
type TagChallenges struct {
	Tag        ChallengeTag    `json:"tag" codec:"tag"`
	Challenges []ChallengeInfo `json:"challenges" codec:"challenges"`
}

// TimeLineAll is the timeline key holding the overall top teams
const TimeLineAll = "all"

// Scoreboard is the fully derived ranking of a game at UpdateTime
type Scoreboard struct {
	GameID     int64                    `json:"game_id" codec:"game_id"`
	UpdateTime time.Time                `json:"update_time" codec:"update_time"`
	BloodBonus BloodBonus               `json:"blood_bonus" codec:"blood_bonus"`
	TimeLines  map[string][]TopTimeLine `json:"timelines" codec:"timelines"`
	Items      []ScoreboardItem         `json:"items" codec:"items"`
	Challenges []TagChallenges          `json:"challenges" codec:"challenges"`
}

// ChallengeCount returns the number of challenges across all tags
func (s *Scoreboard) ChallengeCount() int {
	n := 0
	for _, tc := range s.Challenges {
		n += len(tc.Challenges)
	}
	return n
}
