package service

import (
	"context"
	"time"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type ProfileService struct {
	store ProfileStore
	now   func() time.Time
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store, now: time.Now}
}

// EnsureProfile makes sure the actor has a profile row, creating it on first
// use. It is idempotent and safe to call before every write.
func (s *ProfileService) EnsureProfile(ctx context.Context, actor model.Actor) (*model.Profile, error) {
	return s.store.UpsertProfile(ctx, actor)
}

// Me ensures and returns the caller's profile with its age in whole days.
func (s *ProfileService) Me(ctx context.Context, actor model.Actor) (*model.ProfileResponse, error) {
	p, err := s.EnsureProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &model.ProfileResponse{
		Profile:        *p,
		AccountAgeDays: int(p.AccountAge(s.now()).Hours() / 24),
	}, nil
}
