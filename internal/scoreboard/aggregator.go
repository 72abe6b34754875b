package scoreboard

import (
	"sort"
	"time"

	"github.com/ctf-scoreboard/internal/domain"
)

// DefaultTopN is the number of teams each timeline tracks
const DefaultTopN = 10

// Aggregator derives a game's scoreboard from a snapshot. It holds no state
// between calls and is safe for concurrent use.
type Aggregator struct {
	topN int
}

// NewAggregator creates an aggregator whose timelines track topN teams
func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Aggregator{topN: topN}
}

type solveKey struct {
	challengeID     int64
	participationID int64
}

// index holds the lookups built in the first pass over a snapshot
type index struct {
	challenges     map[int64]domain.Challenge
	participations map[int64]domain.Participation
	// challenge ids each participation has an instance of, ascending
	instances  map[int64][]int64
	firstSolve map[solveKey]Solve
	lastSolve  map[int64]time.Time
	bloods     map[int64][]domain.Blood
}

// Compute builds the scoreboard for snap. The result depends only on the
// snapshot, so equal snapshots yield equal scoreboards.
func (a *Aggregator) Compute(snap domain.Snapshot) *domain.Scoreboard {
	idx := buildIndex(snap)

	items := buildItems(snap.Game, idx)
	rank(items)

	return &domain.Scoreboard{
		GameID:     snap.Game.ID,
		UpdateTime: snap.TakenAt.UTC(),
		BloodBonus: snap.Game.BloodBonus,
		TimeLines:  buildTimeLines(snap.Game, items, a.topN),
		Items:      items,
		Challenges: buildChallengeInfos(idx),
	}
}

func buildIndex(snap domain.Snapshot) *index {
	idx := &index{
		challenges:     make(map[int64]domain.Challenge, len(snap.Challenges)),
		participations: make(map[int64]domain.Participation, len(snap.Participations)),
		instances:      make(map[int64][]int64),
		firstSolve:     make(map[solveKey]Solve),
		lastSolve:      make(map[int64]time.Time),
		bloods:         make(map[int64][]domain.Blood),
	}

	for _, c := range snap.Challenges {
		if c.IsEnabled {
			idx.challenges[c.ID] = c
		}
	}
	for _, p := range snap.Participations {
		if p.Status == domain.ParticipationAccepted {
			idx.participations[p.ID] = p
		}
	}

	hasInstance := make(map[solveKey]bool, len(snap.Instances))
	for _, inst := range snap.Instances {
		if _, ok := idx.challenges[inst.ChallengeID]; !ok {
			continue
		}
		if _, ok := idx.participations[inst.ParticipationID]; !ok {
			continue
		}
		key := solveKey{inst.ChallengeID, inst.ParticipationID}
		if hasInstance[key] {
			continue
		}
		hasInstance[key] = true
		idx.instances[inst.ParticipationID] = append(idx.instances[inst.ParticipationID], inst.ChallengeID)
	}
	for _, ids := range idx.instances {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	end := snap.Game.EndTime
	for _, sub := range snap.Submissions {
		if sub.Status != domain.AnswerAccepted || !sub.SubmitTime.Before(end) {
			continue
		}
		key := solveKey{sub.ChallengeID, sub.ParticipationID}
		if !hasInstance[key] {
			continue
		}

		at := sub.SubmitTime.UTC()
		s := Solve{
			SubmissionID: sub.ID,
			Team:         idx.participations[sub.ParticipationID].Team,
			UserName:     sub.UserName,
			Time:         at,
		}
		if cur, ok := idx.firstSolve[key]; !ok || s.before(cur) {
			idx.firstSolve[key] = s
		}
		if last, ok := idx.lastSolve[sub.ParticipationID]; !ok || at.After(last) {
			idx.lastSolve[sub.ParticipationID] = at
		}
	}

	solves := make(map[int64][]Solve)
	for key, s := range idx.firstSolve {
		solves[key.challengeID] = append(solves[key.challengeID], s)
	}
	for id, list := range solves {
		idx.bloods[id] = AssignBloods(list)
	}

	return idx
}

func buildItems(game domain.Game, idx *index) []domain.ScoreboardItem {
	ids := make([]int64, 0, len(idx.instances))
	for id := range idx.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]domain.ScoreboardItem, 0, len(ids))
	for _, pid := range ids {
		p := idx.participations[pid]
		item := domain.ScoreboardItem{
			ID:                 p.Team.ID,
			Name:               p.Team.Name,
			Bio:                p.Team.Bio,
			Avatar:             p.Team.AvatarURL,
			Organization:       p.Organization,
			LastSubmissionTime: game.StartTime.UTC(),
			Challenges:         make([]domain.ChallengeItem, 0, len(idx.instances[pid])),
		}
		if last, ok := idx.lastSolve[pid]; ok {
			item.LastSubmissionTime = last
		}

		for _, cid := range idx.instances[pid] {
			ci := domain.ChallengeItem{ID: cid, Type: domain.SubmissionUnaccepted}
			if s, ok := idx.firstSolve[solveKey{cid, pid}]; ok {
				at := s.Time
				ci.Type = classify(idx.bloods[cid], at)
				ci.UserName = s.UserName
				ci.SubmitTime = &at
				ci.Score = game.BloodBonus.Apply(ci.Type, idx.challenges[cid].CurrentScore())

				item.SolvedCount++
				item.Score += ci.Score
			}
			item.Challenges = append(item.Challenges, ci)
		}

		items = append(items, item)
	}
	return items
}

// rank orders items by score descending, then by earlier last submission,
// and assigns dense overall and per-organization ranks. Items that tie on
// both keys keep their incoming order and still get distinct ranks.
func rank(items []domain.ScoreboardItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].LastSubmissionTime.Before(items[j].LastSubmissionTime)
	})

	orgRanks := make(map[string]int)
	for i := range items {
		items[i].Rank = i + 1
		if org := items[i].Organization; org != nil {
			orgRanks[*org]++
			r := orgRanks[*org]
			items[i].OrganizationRank = &r
		}
	}
}

func buildChallengeInfos(idx *index) []domain.TagChallenges {
	ids := make([]int64, 0, len(idx.challenges))
	for id := range idx.challenges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	byTag := make(map[domain.ChallengeTag][]domain.ChallengeInfo)
	for _, id := range ids {
		c := idx.challenges[id]
		bloods := idx.bloods[id]
		if bloods == nil {
			bloods = []domain.Blood{}
		}
		byTag[c.Tag] = append(byTag[c.Tag], domain.ChallengeInfo{
			ID:          c.ID,
			Title:       c.Title,
			Tag:         c.Tag,
			Score:       c.CurrentScore(),
			SolvedCount: c.AcceptedCount,
			Bloods:      bloods,
		})
	}

	tags := make([]domain.ChallengeTag, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		oi, oj := tags[i].Order(), tags[j].Order()
		if oi != oj {
			return oi < oj
		}
		return tags[i] < tags[j]
	})

	result := make([]domain.TagChallenges, 0, len(tags))
	for _, tag := range tags {
		result = append(result, domain.TagChallenges{Tag: tag, Challenges: byTag[tag]})
	}
	return result
}
