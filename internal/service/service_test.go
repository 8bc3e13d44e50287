package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/abuse"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
)

type testEnv struct {
	store    *repository.MemoryStore
	profiles *ProfileService
	products *ProductService
	votes    *VoteService
}

func newTestEnv(t *testing.T, autoVerify bool) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	gate := abuse.NewGate(
		ratelimit.NewMemoryLimiter(ratelimit.VotePolicy),
		ratelimit.NewMemoryLimiter(ratelimit.SubmissionPolicy),
		abuse.NewEvaluator(store, store, store),
		nil,
	)
	profiles := NewProfileService(store)
	return &testEnv{
		store:    store,
		profiles: profiles,
		products: NewProductService(store, store, profiles, gate, nil, ProductOptions{AutoVerify: autoVerify}, zerolog.Nop()),
		votes:    NewVoteService(store, store, profiles, gate, nil, zerolog.Nop()),
	}
}

func actor(id string) model.Actor {
	return model.Actor{UserID: id, Email: id + "@example.com", EmailVerified: true}
}

// seedProducts inserts n verified products submitted by owner, bypassing the gate.
func (e *testEnv) seedProducts(t *testing.T, owner string, n int) []string {
	t.Helper()
	ctx := context.Background()
	if _, err := e.profiles.EnsureProfile(ctx, actor(owner)); err != nil {
		t.Fatal(err)
	}
	ids := make([]string, n)
	for i := range ids {
		p, err := e.store.InsertProduct(ctx, owner, model.ProductDraft{
			Name:        fmt.Sprintf("Seed product %d", i),
			Description: "A product seeded for service tests.",
			Categories:  []string{"office"},
		}, true)
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = p.ID
	}
	return ids
}
