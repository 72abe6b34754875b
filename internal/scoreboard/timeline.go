package scoreboard

import (
	"sort"

	"github.com/ctf-scoreboard/internal/domain"
)

// buildTimeLines returns the score curves of the top teams overall and, when
// the game ranks organizations, of the top teams inside each organization.
// items must already be ranked.
func buildTimeLines(game domain.Game, items []domain.ScoreboardItem, topN int) map[string][]domain.TopTimeLine {
	timelines := make(map[string][]domain.TopTimeLine)

	if game.HasOrganizations() {
		byOrg := make(map[string][]int)
		for i := range items {
			if org := items[i].Organization; org != nil {
				byOrg[*org] = append(byOrg[*org], i)
			}
		}
		for org, members := range byOrg {
			if org == domain.TimeLineAll {
				continue
			}
			timelines[org] = topTimeLines(items, members, topN)
		}
	}

	all := make([]int, len(items))
	for i := range all {
		all[i] = i
	}
	timelines[domain.TimeLineAll] = topTimeLines(items, all, topN)

	return timelines
}

func topTimeLines(items []domain.ScoreboardItem, members []int, topN int) []domain.TopTimeLine {
	if len(members) > topN {
		members = members[:topN]
	}

	result := make([]domain.TopTimeLine, 0, len(members))
	for _, i := range members {
		result = append(result, teamTimeLine(items[i]))
	}
	return result
}

// teamTimeLine accumulates a team's solves in submission order
func teamTimeLine(item domain.ScoreboardItem) domain.TopTimeLine {
	solved := make([]domain.ChallengeItem, 0, item.SolvedCount)
	for _, c := range item.Challenges {
		if c.SubmitTime != nil {
			solved = append(solved, c)
		}
	}
	sort.SliceStable(solved, func(i, j int) bool {
		return solved[i].SubmitTime.Before(*solved[j].SubmitTime)
	})

	points := make([]domain.TimeLine, 0, len(solved))
	score := 0
	for _, c := range solved {
		score += c.Score
		points = append(points, domain.TimeLine{Time: *c.SubmitTime, Score: score})
	}

	return domain.TopTimeLine{
		ID:    item.ID,
		Name:  item.Name,
		Items: points,
	}
}
