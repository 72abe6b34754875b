package domain

import "fmt"

// BloodBonus packs the first, second and third blood bonuses into a single
// integer, ten bits each, in thousandths of the challenge score:
//
//	bits 20..29 first blood, 10..19 second blood, 0..9 third blood
//
// A zero value disables blood bonuses entirely.
type BloodBonus int64

const (
	bloodBonusMask = 0x3ff
	bloodBonusBase = 1000

	// DefaultBloodBonus grants +5%, +3% and +1%
	DefaultBloodBonus BloodBonus = (50 << 20) + (30 << 10) + 10
)

// NewBloodBonus packs three bonuses given in thousandths
func NewBloodBonus(first, second, third int64) (BloodBonus, error) {
	return ParseBloodBonus(first<<20 | second<<10 | third)
}

// ParseBloodBonus validates a packed value
func ParseBloodBonus(v int64) (BloodBonus, error) {
	b := BloodBonus(v)
	if v < 0 || v>>30 != 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBloodBonus, v)
	}
	if b.First() > bloodBonusBase || b.Second() > bloodBonusBase || b.Third() > bloodBonusBase {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBloodBonus, v)
	}
	return b, nil
}

// NoBonus reports whether bloods score the same as normal solves
func (b BloodBonus) NoBonus() bool { return b == 0 }

func (b BloodBonus) First() int64  { return (int64(b) >> 20) & bloodBonusMask }
func (b BloodBonus) Second() int64 { return (int64(b) >> 10) & bloodBonusMask }
func (b BloodBonus) Third() int64  { return int64(b) & bloodBonusMask }

// Factor returns the multiplier awarded for the given submission type
func (b BloodBonus) Factor(t SubmissionType) float64 {
	return float64(bloodBonusBase+b.bonus(t)) / bloodBonusBase
}

// Apply returns the score a team is awarded for a solve of the given type.
// The multiplication is done in integers so the truncation is exact.
func (b BloodBonus) Apply(t SubmissionType, score int) int {
	if t == SubmissionUnaccepted {
		return 0
	}
	if b.NoBonus() {
		return score
	}
	return int(int64(score) * (bloodBonusBase + b.bonus(t)) / bloodBonusBase)
}

func (b BloodBonus) bonus(t SubmissionType) int64 {
	switch t {
	case SubmissionFirstBlood:
		return b.First()
	case SubmissionSecondBlood:
		return b.Second()
	case SubmissionThirdBlood:
		return b.Third()
	}
	return 0
}
