package models

import "errors"

// User-input errors: recoverable, returned to the caller.
var (
	ErrNameInvalid   = errors.New("display name invalid")
	ErrNameTaken     = errors.New("display name already taken")
	ErrInvalidOption = errors.New("invalid option")
)

// State-conflict errors: expected under races, logged but never escalated.
var (
	ErrRoundAlreadyActive   = errors.New("round already active")
	ErrNoActiveRound        = errors.New("no active round")
	ErrAlreadySubmitted     = errors.New("already submitted")
	ErrTimeExpired          = errors.New("time expired")
	ErrLateJoinerIneligible = errors.New("joined after round started")
	ErrLifelineAlreadyUsed  = errors.New("audience lifeline already used")
)

// Not-found errors.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

// DenialReason maps a submission rejection to the string clients display.
func DenialReason(err error) string {
	switch {
	case errors.Is(err, ErrAlreadySubmitted):
		return "already answered"
	case errors.Is(err, ErrTimeExpired):
		return "time's up"
	case errors.Is(err, ErrLateJoinerIneligible):
		return "you joined after this round started"
	case errors.Is(err, ErrLifelineAlreadyUsed):
		return "audience lifeline already used this game"
	case errors.Is(err, ErrNoActiveRound):
		return "no question is open right now"
	case errors.Is(err, ErrInvalidOption):
		return "invalid answer"
	default:
		return err.Error()
	}
}
