package scoreboard

import (
	"fmt"
	"time"

	"github.com/ctf-scoreboard/internal/domain"
)

var gameStart = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func at(minute int) time.Time {
	return gameStart.Add(time.Duration(minute) * time.Minute)
}

func teamID(pid int64) int64 { return pid + 1000 }

// snapshotBuilder assembles snapshots for tests. Every accepted participation
// gets an instance of every challenge when the snapshot is built.
type snapshotBuilder struct {
	snap    domain.Snapshot
	nextSub int64
}

func newSnapshot() *snapshotBuilder {
	return &snapshotBuilder{
		snap: domain.Snapshot{
			Game: domain.Game{
				ID:         7,
				Title:      "spring ctf",
				StartTime:  gameStart,
				EndTime:    gameStart.Add(48 * time.Hour),
				BloodBonus: domain.DefaultBloodBonus,
			},
			TakenAt: gameStart.Add(time.Hour),
		},
	}
}

func (b *snapshotBuilder) organizations(orgs ...string) *snapshotBuilder {
	b.snap.Game.Organizations = orgs
	return b
}

func (b *snapshotBuilder) bloodBonus(v domain.BloodBonus) *snapshotBuilder {
	b.snap.Game.BloodBonus = v
	return b
}

func (b *snapshotBuilder) challenge(id int64, tag domain.ChallengeTag, acceptedCount int) *snapshotBuilder {
	b.snap.Challenges = append(b.snap.Challenges, domain.Challenge{
		ID:            id,
		GameID:        b.snap.Game.ID,
		Title:         fmt.Sprintf("challenge-%d", id),
		Tag:           tag,
		IsEnabled:     true,
		AcceptedCount: acceptedCount,
		OriginalScore: domain.DefaultOriginalScore,
		MinScoreRate:  domain.DefaultMinScoreRate,
		Difficulty:    domain.DefaultDifficulty,
	})
	return b
}

func (b *snapshotBuilder) disabledChallenge(id int64, tag domain.ChallengeTag) *snapshotBuilder {
	b.challenge(id, tag, 0)
	b.snap.Challenges[len(b.snap.Challenges)-1].IsEnabled = false
	return b
}

func (b *snapshotBuilder) team(pid int64, org string) *snapshotBuilder {
	return b.participation(pid, org, domain.ParticipationAccepted)
}

func (b *snapshotBuilder) participation(pid int64, org string, status domain.ParticipationStatus) *snapshotBuilder {
	p := domain.Participation{
		ID:     pid,
		GameID: b.snap.Game.ID,
		Team: domain.Team{
			ID:   teamID(pid),
			Name: fmt.Sprintf("team-%d", pid),
		},
		Status: status,
	}
	if org != "" {
		o := org
		p.Organization = &o
	}
	b.snap.Participations = append(b.snap.Participations, p)
	return b
}

func (b *snapshotBuilder) solve(pid, cid int64, minute int) *snapshotBuilder {
	return b.submitAt(pid, cid, at(minute), domain.AnswerAccepted)
}

func (b *snapshotBuilder) submitAt(pid, cid int64, t time.Time, status domain.AnswerResult) *snapshotBuilder {
	b.nextSub++
	b.snap.Submissions = append(b.snap.Submissions, domain.Submission{
		ID:              b.nextSub,
		GameID:          b.snap.Game.ID,
		ChallengeID:     cid,
		ParticipationID: pid,
		TeamID:          teamID(pid),
		UserName:        fmt.Sprintf("user-%d", pid),
		Status:          status,
		SubmitTime:      t,
	})
	return b
}

func (b *snapshotBuilder) build() domain.Snapshot {
	snap := b.snap
	snap.Instances = nil
	for _, p := range snap.Participations {
		for _, c := range snap.Challenges {
			snap.Instances = append(snap.Instances, domain.Instance{ChallengeID: c.ID, ParticipationID: p.ID})
		}
	}
	return snap
}

func itemByTeam(sb *domain.Scoreboard, pid int64) *domain.ScoreboardItem {
	for i := range sb.Items {
		if sb.Items[i].ID == teamID(pid) {
			return &sb.Items[i]
		}
	}
	return nil
}

func challengeItem(item *domain.ScoreboardItem, cid int64) *domain.ChallengeItem {
	for i := range item.Challenges {
		if item.Challenges[i].ID == cid {
			return &item.Challenges[i]
		}
	}
	return nil
}
