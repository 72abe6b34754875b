package scoreboard

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctf-scoreboard/internal/domain"
)

func TestComputeBloodScores(t *testing.T) {
	snap := newSnapshot().
		challenge(1, domain.TagWeb, 4).
		team(1, "").team(2, "").team(3, "").team(4, "").
		solve(1, 1, 10).
		solve(2, 1, 20).
		solve(3, 1, 30).
		solve(4, 1, 40).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 4)

	want := []struct {
		pid   int64
		typ   domain.SubmissionType
		score int
	}{
		{1, domain.SubmissionFirstBlood, 346},
		{2, domain.SubmissionSecondBlood, 339},
		{3, domain.SubmissionThirdBlood, 333},
		{4, domain.SubmissionNormal, 330},
	}
	for i, w := range want {
		item := sb.Items[i]
		assert.Equal(t, teamID(w.pid), item.ID)
		assert.Equal(t, i+1, item.Rank)
		assert.Equal(t, w.score, item.Score)
		assert.Equal(t, 1, item.SolvedCount)
		ci := challengeItem(&item, 1)
		require.NotNil(t, ci)
		assert.Equal(t, w.typ, ci.Type)
		assert.Equal(t, fmt.Sprintf("user-%d", w.pid), ci.UserName)
	}

	require.Len(t, sb.Challenges, 1)
	info := sb.Challenges[0].Challenges[0]
	assert.Equal(t, 330, info.Score)
	assert.Equal(t, 4, info.SolvedCount)
	require.Len(t, info.Bloods, 3)
	assert.Equal(t, teamID(1), info.Bloods[0].ID)
	assert.Equal(t, teamID(2), info.Bloods[1].ID)
	assert.Equal(t, teamID(3), info.Bloods[2].ID)
}

func TestComputeWithoutBloodBonus(t *testing.T) {
	snap := newSnapshot().
		bloodBonus(0).
		challenge(1, domain.TagPwn, 3).
		team(1, "").team(2, "").
		solve(1, 1, 10).
		solve(2, 1, 20).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 2)
	assert.Equal(t, 376, sb.Items[0].Score)
	assert.Equal(t, 376, sb.Items[1].Score)
	assert.Equal(t, domain.SubmissionFirstBlood, sb.Items[0].Challenges[0].Type)
}

func TestComputeTieKeepsIterationOrder(t *testing.T) {
	b := newSnapshot().
		challenge(1, domain.TagWeb, 1).
		challenge(2, domain.TagPwn, 1)
	// registered out of id order on purpose
	b.team(2, "").team(1, "")
	snap := b.solve(1, 2, 10).solve(2, 1, 10).build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 2)
	assert.Equal(t, sb.Items[0].Score, sb.Items[1].Score)
	assert.Equal(t, teamID(1), sb.Items[0].ID)
	assert.Equal(t, 1, sb.Items[0].Rank)
	assert.Equal(t, teamID(2), sb.Items[1].ID)
	assert.Equal(t, 2, sb.Items[1].Rank)
}

func TestComputeEarlierLastSubmissionWinsTie(t *testing.T) {
	snap := newSnapshot().
		challenge(1, domain.TagWeb, 1).
		challenge(2, domain.TagPwn, 1).
		team(1, "").team(2, "").
		solve(1, 1, 20).
		solve(2, 2, 10).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 2)
	assert.Equal(t, teamID(2), sb.Items[0].ID)
	assert.Equal(t, teamID(1), sb.Items[1].ID)
}

func TestComputeFiltersSnapshot(t *testing.T) {
	b := newSnapshot().
		challenge(1, domain.TagWeb, 1).
		challenge(2, domain.TagCrypto, 1).
		disabledChallenge(3, domain.TagMisc).
		team(1, "").
		team(2, "").
		participation(3, "", domain.ParticipationRejected).
		participation(4, "", domain.ParticipationSuspended)

	end := b.snap.Game.EndTime
	snap := b.
		submitAt(1, 1, end, domain.AnswerAccepted).
		submitAt(1, 2, end.Add(-1), domain.AnswerAccepted).
		submitAt(2, 1, at(5), domain.AnswerWrong).
		solve(2, 3, 6).
		solve(3, 1, 1).
		solve(4, 1, 2).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 2)
	assert.Nil(t, itemByTeam(sb, 3))
	assert.Nil(t, itemByTeam(sb, 4))

	first := itemByTeam(sb, 1)
	require.NotNil(t, first)
	require.Len(t, first.Challenges, 2)
	assert.Equal(t, domain.SubmissionUnaccepted, challengeItem(first, 1).Type)
	assert.Nil(t, challengeItem(first, 1).SubmitTime)
	assert.Equal(t, 0, challengeItem(first, 1).Score)
	assert.Equal(t, domain.SubmissionFirstBlood, challengeItem(first, 2).Type)
	assert.Nil(t, challengeItem(first, 3))
	assert.Equal(t, 1, first.SolvedCount)
	assert.True(t, first.LastSubmissionTime.Equal(end.Add(-1)))

	second := itemByTeam(sb, 2)
	require.NotNil(t, second)
	assert.Equal(t, 0, second.Score)
	assert.Equal(t, 0, second.SolvedCount)
	assert.True(t, second.LastSubmissionTime.Equal(gameStart))

	// challenge 1 has no qualifying solver among accepted teams
	for _, tc := range sb.Challenges {
		for _, c := range tc.Challenges {
			assert.NotEqual(t, int64(3), c.ID)
			if c.ID == 1 {
				assert.Empty(t, c.Bloods)
			}
		}
	}
}

func TestComputeLastSubmissionCountsRepeatedSolves(t *testing.T) {
	snap := newSnapshot().
		challenge(1, domain.TagWeb, 1).
		team(1, "").
		solve(1, 1, 10).
		solve(1, 1, 90).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 1)
	item := sb.Items[0]
	assert.Equal(t, 525, item.Score)
	assert.True(t, challengeItem(&item, 1).SubmitTime.Equal(at(10)))
	assert.True(t, item.LastSubmissionTime.Equal(at(90)))
}

func TestComputeOrganizationRanks(t *testing.T) {
	snap := newSnapshot().
		organizations("Alpha", "Beta").
		challenge(1, domain.TagWeb, 1).
		challenge(2, domain.TagCrypto, 1).
		challenge(3, domain.TagPwn, 1).
		team(1, "Alpha").team(2, "Beta").team(3, "Alpha").team(4, "").
		solve(1, 1, 1).solve(1, 2, 2).solve(1, 3, 3).
		solve(2, 1, 4).solve(2, 2, 5).
		solve(3, 1, 6).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Items, 4)

	wantOrder := []int64{1, 2, 3, 4}
	wantOrgRank := []*int{intPtr(1), intPtr(1), intPtr(2), nil}
	for i, pid := range wantOrder {
		assert.Equal(t, teamID(pid), sb.Items[i].ID)
		assert.Equal(t, i+1, sb.Items[i].Rank)
		assert.Equal(t, wantOrgRank[i], sb.Items[i].OrganizationRank)
	}

	require.Contains(t, sb.TimeLines, domain.TimeLineAll)
	require.Contains(t, sb.TimeLines, "Alpha")
	require.Contains(t, sb.TimeLines, "Beta")
	assert.Len(t, sb.TimeLines, 3)
	assert.Len(t, sb.TimeLines[domain.TimeLineAll], 4)

	alpha := sb.TimeLines["Alpha"]
	require.Len(t, alpha, 2)
	assert.Equal(t, teamID(1), alpha[0].ID)
	assert.Equal(t, teamID(3), alpha[1].ID)
}

func TestComputeRanksArePermutation(t *testing.T) {
	b := newSnapshot().challenge(1, domain.TagWeb, 5).challenge(2, domain.TagMisc, 5)
	for pid := int64(1); pid <= 25; pid++ {
		b.team(pid, "")
		if pid%3 != 0 {
			b.solve(pid, 1, int(pid%7))
		}
		if pid%2 == 0 {
			b.solve(pid, 2, int(pid%5))
		}
	}

	sb := NewAggregator(DefaultTopN).Compute(b.build())
	require.Len(t, sb.Items, 25)

	seen := make(map[int]bool)
	for i, item := range sb.Items {
		assert.Equal(t, i+1, item.Rank)
		seen[item.Rank] = true
		if i > 0 {
			prev := sb.Items[i-1]
			assert.GreaterOrEqual(t, prev.Score, item.Score)
			if prev.Score == item.Score {
				assert.False(t, item.LastSubmissionTime.Before(prev.LastSubmissionTime))
			}
		}
	}
	assert.Len(t, seen, 25)
	assert.Len(t, sb.TimeLines[domain.TimeLineAll], DefaultTopN)
}

func TestComputeEmptySnapshot(t *testing.T) {
	snap := newSnapshot().build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.NotNil(t, sb)
	assert.Equal(t, snap.Game.ID, sb.GameID)
	assert.Empty(t, sb.Items)
	assert.NotNil(t, sb.Items)
	assert.Empty(t, sb.Challenges)
	require.Contains(t, sb.TimeLines, domain.TimeLineAll)
	assert.Empty(t, sb.TimeLines[domain.TimeLineAll])
	assert.True(t, sb.UpdateTime.Equal(snap.TakenAt))
}

func TestComputeTimeLines(t *testing.T) {
	snap := newSnapshot().
		challenge(1, domain.TagWeb, 1).
		challenge(2, domain.TagCrypto, 1).
		challenge(3, domain.TagPwn, 2).
		team(1, "").team(2, "").team(3, "").
		solve(1, 1, 10).
		solve(1, 2, 5).
		solve(2, 3, 7).
		solve(3, 3, 8).
		build()

	sb := NewAggregator(2).Compute(snap)
	all := sb.TimeLines[domain.TimeLineAll]
	require.Len(t, all, 2)

	first := all[0]
	assert.Equal(t, teamID(1), first.ID)
	require.Len(t, first.Items, 2)
	assert.True(t, first.Items[0].Time.Equal(at(5)))
	assert.Equal(t, 525, first.Items[0].Score)
	assert.True(t, first.Items[1].Time.Equal(at(10)))
	assert.Equal(t, 1050, first.Items[1].Score)

	// no organizations configured, so only the overall timeline exists
	assert.Len(t, sb.TimeLines, 1)
}

func TestComputeChallengeGroups(t *testing.T) {
	snap := newSnapshot().
		challenge(5, domain.TagWeb, 0).
		challenge(2, domain.TagCrypto, 0).
		challenge(9, domain.ChallengeTag("Custom"), 0).
		challenge(1, domain.TagWeb, 0).
		challenge(3, domain.TagMisc, 0).
		build()

	sb := NewAggregator(DefaultTopN).Compute(snap)
	require.Len(t, sb.Challenges, 4)

	tags := make([]domain.ChallengeTag, 0, len(sb.Challenges))
	for _, tc := range sb.Challenges {
		tags = append(tags, tc.Tag)
	}
	assert.Equal(t, []domain.ChallengeTag{domain.TagMisc, domain.TagCrypto, domain.TagWeb, "Custom"}, tags)

	web := sb.Challenges[2].Challenges
	require.Len(t, web, 2)
	assert.Equal(t, int64(1), web[0].ID)
	assert.Equal(t, int64(5), web[1].ID)
	assert.Equal(t, 5, sb.ChallengeCount())
}

func TestComputeDeterministic(t *testing.T) {
	b := newSnapshot().
		organizations("Alpha", "Beta").
		challenge(1, domain.TagWeb, 3).
		challenge(2, domain.TagCrypto, 2).
		challenge(3, domain.TagReverse, 1)
	orgs := []string{"Alpha", "Beta", ""}
	for pid := int64(1); pid <= 12; pid++ {
		b.team(pid, orgs[pid%3])
		b.solve(pid, 1+pid%3, int(pid*3))
		if pid%4 == 0 {
			b.solve(pid, 3, int(pid))
		}
	}
	snap := b.build()

	agg := NewAggregator(DefaultTopN)
	want, err := Encode(agg.Compute(snap))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffled := snap
		shuffled.Participations = shuffle(rng, snap.Participations)
		shuffled.Instances = shuffle(rng, snap.Instances)
		shuffled.Submissions = shuffle(rng, snap.Submissions)
		shuffled.Challenges = shuffle(rng, snap.Challenges)

		got, err := Encode(agg.Compute(shuffled))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func shuffle[T any](rng *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func intPtr(v int) *int { return &v }
