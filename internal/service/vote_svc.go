package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type VoteService struct {
	votes    VoteStore
	products ProductStore
	profiles *ProfileService
	gate     Guard
	cache    *CacheService
	log      zerolog.Logger
}

func NewVoteService(votes VoteStore, products ProductStore, profiles *ProfileService, gate Guard, cache *CacheService, log zerolog.Logger) *VoteService {
	return &VoteService{votes: votes, products: products, profiles: profiles, gate: gate, cache: cache, log: log}
}

// Cast records actor's vote on productID. Only products the actor can see
// take votes: verified ones, or their own pending submission. The abuse gate
// runs next; the store's uniqueness constraint settles duplicates with
// common.ErrConflict.
func (s *VoteService) Cast(ctx context.Context, actor model.Actor, productID string) (*model.VoteResponse, error) {
	if _, err := s.profiles.EnsureProfile(ctx, actor); err != nil {
		return nil, err
	}
	p, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Verified && p.AddedBy != actor.UserID {
		return nil, common.ErrNotFound
	}
	if err := s.gate.GuardVote(ctx, actor, productID); err != nil {
		return nil, err
	}

	vote, err := s.votes.InsertVote(ctx, actor.UserID, productID)
	if err != nil {
		return nil, err
	}
	metrics.VotesTotal.WithLabelValues("cast").Inc()

	return s.respond(ctx, vote), nil
}

// Retract removes actor's vote on productID. It returns common.ErrNotFound if
// there is none. Retraction is not gated.
func (s *VoteService) Retract(ctx context.Context, actor model.Actor, productID string) (*model.VoteResponse, error) {
	vote, err := s.votes.DeleteVote(ctx, actor.UserID, productID)
	if err != nil {
		return nil, err
	}
	metrics.VotesTotal.WithLabelValues("retract").Inc()

	return s.respond(ctx, vote), nil
}

// UserVotes lists userID's votes, newest first.
func (s *VoteService) UserVotes(ctx context.Context, userID string) ([]model.UserVote, error) {
	return s.votes.ListUserVotes(ctx, userID)
}

// respond builds the write response. The vote is already committed, so a
// failed tally read is logged and reported as zero rather than failing the call.
func (s *VoteService) respond(ctx context.Context, vote *model.Vote) *model.VoteResponse {
	// The vote listener also invalidates; doing it here keeps single-process
	// deployments without LISTEN consistent.
	if err := s.cache.InvalidateProducts(ctx, vote.ProductID); err != nil {
		s.log.Warn().Err(err).Str("productId", vote.ProductID).Msg("cache: invalidate product failed")
	}

	resp := &model.VoteResponse{Success: true, Vote: vote}
	p, err := s.products.FindProduct(ctx, vote.ProductID)
	if err != nil {
		s.log.Warn().Err(err).Str("productId", vote.ProductID).Msg("vote: tally read failed")
		return resp
	}
	resp.TotalVotes = p.TotalVotes
	return resp
}
