package scoreboard

import (
	"sort"
	"time"

	"github.com/ctf-scoreboard/internal/domain"
)

// maxBloods is how many early solvers a challenge remembers
const maxBloods = len(domain.BloodTypes)

// Solve is a team's qualifying accepted submission on a challenge
type Solve struct {
	SubmissionID int64
	Team         domain.Team
	UserName     string
	Time         time.Time
}

// before orders solves by time, then by submission id
func (s Solve) before(o Solve) bool {
	if !s.Time.Equal(o.Time) {
		return s.Time.Before(o.Time)
	}
	return s.SubmissionID < o.SubmissionID
}

// AssignBloods returns the first, second and third distinct teams to solve a
// challenge. Only the earliest solve of each team counts. The result holds
// fewer than three entries when fewer teams solved it.
func AssignBloods(solves []Solve) []domain.Blood {
	earliest := make(map[int64]Solve, len(solves))
	for _, s := range solves {
		if cur, ok := earliest[s.Team.ID]; !ok || s.before(cur) {
			earliest[s.Team.ID] = s
		}
	}

	ordered := make([]Solve, 0, len(earliest))
	for _, s := range earliest {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].before(ordered[j])
	})

	if len(ordered) > maxBloods {
		ordered = ordered[:maxBloods]
	}

	bloods := make([]domain.Blood, 0, len(ordered))
	for _, s := range ordered {
		bloods = append(bloods, domain.Blood{
			ID:         s.Team.ID,
			Name:       s.Team.Name,
			Avatar:     s.Team.AvatarURL,
			SubmitTime: s.Time,
		})
	}
	return bloods
}

// classify picks the submission type for a solve at t given the bloods of its
// challenge. Tiers are checked first to third; a team's solve at or before a
// blood's time takes that tier.
func classify(bloods []domain.Blood, t time.Time) domain.SubmissionType {
	for i, b := range bloods {
		if !t.After(b.SubmitTime) {
			return domain.BloodTypes[i]
		}
	}
	return domain.SubmissionNormal
}
