package admission

import "errors"

// Error kinds surfaced by challenge verification. Handlers map these to
// transport status codes; anything else is a store failure and stays a 500.
var (
	// ErrChallengeInvalid covers unknown, expired, cryptographically wrong,
	// or mismatched challenges.
	ErrChallengeInvalid = errors.New("challenge_invalid")
	// ErrChallengeReplayed means the challenge was already consumed,
	// including losing a concurrent race on the same challenge.
	ErrChallengeReplayed = errors.New("challenge_replayed")
)
