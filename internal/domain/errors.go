package domain

import "errors"

// Domain errors
var (
	ErrGameNotFound          = errors.New("game not found")
	ErrChallengeNotFound     = errors.New("challenge not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrInvalidScoring        = errors.New("invalid challenge scoring parameters")
	ErrInvalidBloodBonus     = errors.New("invalid blood bonus value")
	ErrInvalidStatus         = errors.New("invalid participation status")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInternalError         = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrParticipationNotFound)
}

// IsValidationError checks if an error was caused by rejected input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidScoring) ||
		errors.Is(err, ErrInvalidBloodBonus) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidRequest)
}
