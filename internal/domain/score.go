package domain

import (
	"fmt"
	"math"
)

// Default scoring parameters for new challenges
const (
	DefaultOriginalScore = 500
	DefaultMinScoreRate  = 0.25
	DefaultDifficulty    = 5.0
)

// CurrentScore computes the dynamic value of a challenge after acceptedCount
// teams solved it. The first solver always sees the full base score; every
// later solve decays it exponentially toward baseScore*minRatio.
func CurrentScore(acceptedCount int, baseScore int, minRatio, difficulty float64) int {
	if acceptedCount <= 1 {
		return baseScore
	}

	decay := math.Exp(float64(1-acceptedCount) / difficulty)
	return int(math.Floor(float64(baseScore) * (minRatio + (1-minRatio)*decay)))
}

// ValidateScoring checks challenge scoring parameters before they are stored
func ValidateScoring(baseScore int, minRatio, difficulty float64) error {
	if baseScore < 0 {
		return fmt.Errorf("%w: original score %d is negative", ErrInvalidScoring, baseScore)
	}
	if math.IsNaN(minRatio) || minRatio < 0 || minRatio > 1 {
		return fmt.Errorf("%w: min score rate %v outside [0, 1]", ErrInvalidScoring, minRatio)
	}
	if math.IsNaN(difficulty) || difficulty <= 0 {
		return fmt.Errorf("%w: difficulty %v must be positive", ErrInvalidScoring, difficulty)
	}
	return nil
}
