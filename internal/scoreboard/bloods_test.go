package scoreboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctf-scoreboard/internal/domain"
)

func TestAssignBloods(t *testing.T) {
	team := func(id int64) domain.Team { return domain.Team{ID: id, Name: "t"} }

	testCases := []struct {
		name    string
		solves  []Solve
		wantIDs []int64
	}{
		{
			name:    "no solves",
			wantIDs: []int64{},
		},
		{
			name: "fewer than three teams",
			solves: []Solve{
				{SubmissionID: 2, Team: team(20), Time: at(20)},
				{SubmissionID: 1, Team: team(10), Time: at(10)},
			},
			wantIDs: []int64{10, 20},
		},
		{
			name: "keeps first three teams by time",
			solves: []Solve{
				{SubmissionID: 4, Team: team(40), Time: at(40)},
				{SubmissionID: 3, Team: team(30), Time: at(30)},
				{SubmissionID: 1, Team: team(10), Time: at(10)},
				{SubmissionID: 2, Team: team(20), Time: at(20)},
			},
			wantIDs: []int64{10, 20, 30},
		},
		{
			name: "one entry per team",
			solves: []Solve{
				{SubmissionID: 1, Team: team(10), Time: at(10)},
				{SubmissionID: 2, Team: team(10), Time: at(11)},
				{SubmissionID: 3, Team: team(10), Time: at(12)},
				{SubmissionID: 4, Team: team(20), Time: at(13)},
			},
			wantIDs: []int64{10, 20},
		},
		{
			name: "equal times broken by submission order",
			solves: []Solve{
				{SubmissionID: 9, Team: team(30), Time: at(5)},
				{SubmissionID: 7, Team: team(20), Time: at(5)},
				{SubmissionID: 8, Team: team(10), Time: at(5)},
			},
			wantIDs: []int64{20, 10, 30},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bloods := AssignBloods(tc.solves)
			ids := make([]int64, 0, len(bloods))
			for _, b := range bloods {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestAssignBloodsUsesEarliestSolveTime(t *testing.T) {
	bloods := AssignBloods([]Solve{
		{SubmissionID: 5, Team: domain.Team{ID: 1}, Time: at(50)},
		{SubmissionID: 2, Team: domain.Team{ID: 1}, Time: at(20)},
	})
	require.Len(t, bloods, 1)
	assert.True(t, bloods[0].SubmitTime.Equal(at(20)))
}

func TestClassify(t *testing.T) {
	bloods := []domain.Blood{
		{ID: 1, SubmitTime: at(10)},
		{ID: 2, SubmitTime: at(20)},
		{ID: 3, SubmitTime: at(30)},
	}

	testCases := []struct {
		name string
		t    time.Time
		want domain.SubmissionType
	}{
		{name: "first", t: at(10), want: domain.SubmissionFirstBlood},
		{name: "second", t: at(15), want: domain.SubmissionSecondBlood},
		{name: "third", t: at(30), want: domain.SubmissionThirdBlood},
		{name: "normal", t: at(31), want: domain.SubmissionNormal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(bloods, tc.t))
		})
	}

	assert.Equal(t, domain.SubmissionNormal, classify(nil, at(1)))
}
