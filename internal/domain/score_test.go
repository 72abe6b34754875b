package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentScore(t *testing.T) {
	testCases := []struct {
		name          string
		acceptedCount int
		base          int
		minRatio      float64
		difficulty    float64
		want          int
	}{
		{name: "no solves", acceptedCount: 0, base: 500, minRatio: 0.25, difficulty: 5, want: 500},
		{name: "first solve keeps base", acceptedCount: 1, base: 500, minRatio: 0.25, difficulty: 5, want: 500},
		{name: "second solve", acceptedCount: 2, base: 500, minRatio: 0.25, difficulty: 5, want: 432},
		{name: "third solve", acceptedCount: 3, base: 500, minRatio: 0.25, difficulty: 5, want: 376},
		{name: "approaches floor", acceptedCount: 1000, base: 500, minRatio: 0.25, difficulty: 5, want: 125},
		{name: "no decay floor", acceptedCount: 1000, base: 1000, minRatio: 1, difficulty: 3, want: 1000},
		{name: "negative count", acceptedCount: -4, base: 300, minRatio: 0.1, difficulty: 2, want: 300},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CurrentScore(tc.acceptedCount, tc.base, tc.minRatio, tc.difficulty)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCurrentScoreMonotonic(t *testing.T) {
	prev := CurrentScore(1, 500, 0.25, 5)
	for n := 2; n < 200; n++ {
		cur := CurrentScore(n, 500, 0.25, 5)
		require.LessOrEqual(t, cur, prev, "score rose at n=%d", n)
		require.GreaterOrEqual(t, cur, 125)
		prev = cur
	}
}

func TestChallengeCurrentScore(t *testing.T) {
	c := Challenge{
		AcceptedCount: 3,
		OriginalScore: DefaultOriginalScore,
		MinScoreRate:  DefaultMinScoreRate,
		Difficulty:    DefaultDifficulty,
	}
	assert.Equal(t, 376, c.CurrentScore())
}

func TestValidateScoring(t *testing.T) {
	testCases := []struct {
		name       string
		base       int
		minRatio   float64
		difficulty float64
		wantErr    error
	}{
		{name: "defaults", base: 500, minRatio: 0.25, difficulty: 5},
		{name: "zero difficulty", base: 500, minRatio: 0.25, difficulty: 0, wantErr: ErrInvalidScoring},
		{name: "negative difficulty", base: 500, minRatio: 0.25, difficulty: -1, wantErr: ErrInvalidScoring},
		{name: "ratio above one", base: 500, minRatio: 1.5, difficulty: 5, wantErr: ErrInvalidScoring},
		{name: "negative base", base: -1, minRatio: 0.5, difficulty: 5, wantErr: ErrInvalidScoring},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScoring(tc.base, tc.minRatio, tc.difficulty)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}
