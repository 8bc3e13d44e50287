// Package abuse scores vote and submission attempts for manipulation and
// gates both writes behind rate limits and those scores.
package abuse

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

// Vote heuristics. Points are additive.
const (
	VoteVelocityWindow    = time.Hour
	VoteVelocityLimit     = 15
	VoteVelocityPoints    = 30
	VotePatternSample     = 20
	VotePatternMinVotes   = 10
	VotePatternPoints     = 40
	NewAccountAge         = 24 * time.Hour
	NewAccountVoteLimit   = 5
	NewAccountPoints      = 25
	VoteUnverifiedPoints  = 20
	DuplicateVotePoints   = 50
	VoteBlockThreshold    = 50
	SignalErrorPenalty    = 10
)

// Submission heuristics.
const (
	SubmissionVolumeWindow     = 24 * time.Hour
	SubmissionVolumeLimit      = 3
	SubmissionVolumePoints     = 35
	DuplicateNameSample        = 5
	DuplicateNamePoints        = 40
	MinDescriptionLength       = 20
	ShortDescriptionPoints     = 15
	MinNameLength              = 3
	ShortNamePoints            = 20
	ShoutingMinNameLength      = 5
	ShoutingUpperRatio         = 0.7
	ShoutingPoints             = 15
	SubmissionUnverifiedPoints = 25
	SubmissionBlockThreshold   = 40
)

// Reasons attached to a result. They are logged, never shown to the actor.
const (
	ReasonVoteVelocity     = "Excessive voting in short time period"
	ReasonVotePattern      = "Suspicious voting pattern detected"
	ReasonNewAccount       = "New account with high activity"
	ReasonUnverifiedEmail  = "Unverified email address"
	ReasonDuplicateVote    = "Multiple votes detected"
	ReasonSubmissionVolume = "Too many product submissions in 24 hours"
	ReasonDuplicateName    = "Product with same name already exists"
	ReasonShortDescription = "Product description too short"
	ReasonShortName        = "Product name too short"
	ReasonShouting         = "Excessive use of capital letters"
)

// VoteHistory reads the vote records the vote heuristics need.
type VoteHistory interface {
	CountVotesSince(ctx context.Context, userID string, since time.Time) (int, error)
	// RecentVoteSubmitters returns the submitter of each product the user
	// voted on, newest vote first.
	RecentVoteSubmitters(ctx context.Context, userID string, limit int) ([]string, error)
	CountUserProductVotes(ctx context.Context, userID, productID string) (int, error)
}

// SubmissionHistory reads the product records the submission heuristics need.
type SubmissionHistory interface {
	CountSubmissionsSince(ctx context.Context, userID string, since time.Time) (int, error)
	// ProductNamesContaining returns up to limit names containing fragment,
	// case-insensitively.
	ProductNamesContaining(ctx context.Context, fragment string, limit int) ([]string, error)
}

// ProfileReader loads a user's profile. A missing profile is common.ErrNotFound.
type ProfileReader interface {
	FindProfile(ctx context.Context, userID string) (*model.Profile, error)
}

// ActivityCheckResult is the outcome of one evaluation.
type ActivityCheckResult struct {
	IsSuspicious bool     `json:"isSuspicious"`
	Reasons      []string `json:"reasons"`
	RiskScore    int      `json:"riskScore"`
}

// scorecard accumulates points while an evaluation runs.
type scorecard struct {
	score   int
	reasons []string
	failed  bool
}

func (s *scorecard) flag(points int, reason string) {
	s.score += points
	s.reasons = append(s.reasons, reason)
}

// fail records a signal that could not be gathered. The penalty is applied
// once per evaluation, however many signals fail.
func (s *scorecard) fail() { s.failed = true }

func (s *scorecard) result(threshold int) ActivityCheckResult {
	score := s.score
	if s.failed {
		score += SignalErrorPenalty
	}
	reasons := s.reasons
	if reasons == nil {
		reasons = []string{}
	}
	return ActivityCheckResult{
		IsSuspicious: score >= threshold,
		Reasons:      reasons,
		RiskScore:    score,
	}
}

// Evaluator runs the heuristic checks. Every check runs on every evaluation so
// the full reason list is available for logging.
type Evaluator struct {
	votes       VoteHistory
	submissions SubmissionHistory
	profiles    ProfileReader
	now         func() time.Time
}

// NewEvaluator creates an Evaluator reading from the given stores.
func NewEvaluator(votes VoteHistory, submissions SubmissionHistory, profiles ProfileReader) *Evaluator {
	return &Evaluator{votes: votes, submissions: submissions, profiles: profiles, now: time.Now}
}

// WithClock returns a copy of e using now as its time source.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	cp := *e
	cp.now = now
	return &cp
}

// CheckVote scores a vote by actor on productID.
func (e *Evaluator) CheckVote(ctx context.Context, actor model.Actor, productID string) ActivityCheckResult {
	var card scorecard
	now := e.now()

	recent, recentErr := e.votes.CountVotesSince(ctx, actor.UserID, now.Add(-VoteVelocityWindow))
	if recentErr != nil {
		card.fail()
	} else if recent > VoteVelocityLimit {
		card.flag(VoteVelocityPoints, ReasonVoteVelocity)
	}

	submitters, err := e.votes.RecentVoteSubmitters(ctx, actor.UserID, VotePatternSample)
	if err != nil {
		card.fail()
	} else if len(submitters) >= VotePatternMinVotes && distinctNonEmpty(submitters) == 1 {
		card.flag(VotePatternPoints, ReasonVotePattern)
	}

	profile, err := e.profiles.FindProfile(ctx, actor.UserID)
	switch {
	case errors.Is(err, common.ErrNotFound):
	case err != nil:
		card.fail()
	case recentErr == nil && profile.AccountAge(now) < NewAccountAge && recent > NewAccountVoteLimit:
		card.flag(NewAccountPoints, ReasonNewAccount)
	}

	if !actor.EmailVerified {
		card.flag(VoteUnverifiedPoints, ReasonUnverifiedEmail)
	}

	existing, err := e.votes.CountUserProductVotes(ctx, actor.UserID, productID)
	if err != nil {
		card.fail()
	} else if existing > 1 {
		card.flag(DuplicateVotePoints, ReasonDuplicateVote)
	}

	return card.result(VoteBlockThreshold)
}

// CheckSubmission scores a product draft submitted by actor.
func (e *Evaluator) CheckSubmission(ctx context.Context, actor model.Actor, draft model.ProductDraft) ActivityCheckResult {
	var card scorecard
	now := e.now()

	recent, err := e.submissions.CountSubmissionsSince(ctx, actor.UserID, now.Add(-SubmissionVolumeWindow))
	if err != nil {
		card.fail()
	} else if recent > SubmissionVolumeLimit {
		card.flag(SubmissionVolumePoints, ReasonSubmissionVolume)
	}

	wanted := strings.ToLower(draft.Name)
	similar, err := e.submissions.ProductNamesContaining(ctx, wanted, DuplicateNameSample)
	if err != nil {
		card.fail()
	} else {
		for _, name := range similar {
			if strings.ToLower(name) == wanted {
				card.flag(DuplicateNamePoints, ReasonDuplicateName)
				break
			}
		}
	}

	if utf8.RuneCountInString(draft.Description) < MinDescriptionLength {
		card.flag(ShortDescriptionPoints, ReasonShortDescription)
	}

	nameLen := utf8.RuneCountInString(draft.Name)
	if nameLen < MinNameLength {
		card.flag(ShortNamePoints, ReasonShortName)
	}

	if nameLen > ShoutingMinNameLength && upperRatio(draft.Name, nameLen) > ShoutingUpperRatio {
		card.flag(ShoutingPoints, ReasonShouting)
	}

	profile, err := e.profiles.FindProfile(ctx, actor.UserID)
	switch {
	case errors.Is(err, common.ErrNotFound):
	case err != nil:
		card.fail()
	case !profile.EmailVerified:
		card.flag(SubmissionUnverifiedPoints, ReasonUnverifiedEmail)
	}

	return card.result(SubmissionBlockThreshold)
}

func distinctNonEmpty(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// upperRatio is the share of ASCII capital letters among the name's runes.
func upperRatio(name string, runes int) float64 {
	if runes == 0 {
		return 0
	}
	upper := 0
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	return float64(upper) / float64(runes)
}
