// Package ratelimit implements fixed-window request counting keyed by
// "<action>:<identity>".
package ratelimit

import "time"

// Limiter decides whether a keyed action may proceed in the current window.
type Limiter interface {
	// Allow counts the request against key and reports whether it is admitted.
	Allow(key string) bool
	// Remaining returns how many more requests key may make in its window.
	Remaining(key string) int
	// ResetAt returns when key's window ends, or the zero time if it has none.
	ResetAt(key string) time.Time
	// Max returns the configured request budget per window.
	Max() int
}

// Policy is the budget for one action kind.
type Policy struct {
	Max    int
	Window time.Duration
}

// Default policies.
var (
	VotePolicy       = Policy{Max: 20, Window: time.Minute}
	SubmissionPolicy = Policy{Max: 5, Window: 5 * time.Minute}
	GeneralPolicy    = Policy{Max: 100, Window: time.Minute}
)

// Key prefixes so limiters for different actions never collide.
const (
	ActionVote       = "vote"
	ActionSubmission = "product"
	ActionGeneral    = "general"
)

// Key builds the limiter key for an action and identity.
func Key(action, identity string) string {
	return action + ":" + identity
}
