package abuse

import (
	"context"
	"time"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
)

// Gate outcomes recorded in metrics.
const (
	OutcomeAllowed     = "allowed"
	OutcomeRateLimited = "rate_limited"
	OutcomeBlocked     = "blocked"
)

// Gate is the single checkpoint in front of vote casting and product
// submission. It never retries; callers decide whether to back off.
type Gate struct {
	votes       ratelimit.Limiter
	submissions ratelimit.Limiter
	evaluator   *Evaluator
	activity    ActivityLogger
	now         func() time.Time
}

// NewGate composes the per-action limiters with the evaluator.
func NewGate(votes, submissions ratelimit.Limiter, evaluator *Evaluator, activity ActivityLogger) *Gate {
	return &Gate{
		votes:       votes,
		submissions: submissions,
		evaluator:   evaluator,
		activity:    activity,
		now:         time.Now,
	}
}

// GuardVote admits or rejects a vote by actor on productID. It returns a
// *common.RateLimitError, common.ErrBlocked, or nil.
func (g *Gate) GuardVote(ctx context.Context, actor model.Actor, productID string) error {
	key := ratelimit.Key(ratelimit.ActionVote, actor.UserID)
	if !g.votes.Allow(key) {
		metrics.GateDecisions.WithLabelValues(string(ActivityVote), OutcomeRateLimited).Inc()
		return &common.RateLimitError{Action: ratelimit.ActionVote, ResetAt: g.votes.ResetAt(key)}
	}

	res := g.evaluator.CheckVote(ctx, actor, productID)
	if res.IsSuspicious {
		g.block(actor.UserID, ActivityVote, productID, res)
		return common.ErrBlocked
	}

	metrics.GateDecisions.WithLabelValues(string(ActivityVote), OutcomeAllowed).Inc()
	return nil
}

// GuardSubmission admits or rejects a product draft submitted by actor.
func (g *Gate) GuardSubmission(ctx context.Context, actor model.Actor, draft model.ProductDraft) error {
	key := ratelimit.Key(ratelimit.ActionSubmission, actor.UserID)
	if !g.submissions.Allow(key) {
		metrics.GateDecisions.WithLabelValues(string(ActivityProductSubmission), OutcomeRateLimited).Inc()
		return &common.RateLimitError{Action: ratelimit.ActionSubmission, ResetAt: g.submissions.ResetAt(key)}
	}

	res := g.evaluator.CheckSubmission(ctx, actor, draft)
	if res.IsSuspicious {
		g.block(actor.UserID, ActivityProductSubmission, "", res)
		return common.ErrBlocked
	}

	metrics.GateDecisions.WithLabelValues(string(ActivityProductSubmission), OutcomeAllowed).Inc()
	return nil
}

func (g *Gate) block(userID string, kind ActivityKind, productID string, res ActivityCheckResult) {
	metrics.GateDecisions.WithLabelValues(string(kind), OutcomeBlocked).Inc()
	if g.activity == nil {
		return
	}
	g.activity.LogSuspicious(ActivityRecord{
		UserID:    userID,
		Kind:      kind,
		ProductID: productID,
		RiskScore: res.RiskScore,
		Reasons:   res.Reasons,
		Timestamp: g.now().UTC(),
	})
}
