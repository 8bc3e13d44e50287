package service

import (
	"context"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
)

// Store contracts. repository.MemoryStore satisfies all of them; the
// Postgres repos each satisfy one.

type ProductStore interface {
	ListProducts(ctx context.Context, q repository.ProductQuery) ([]model.Product, error)
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	InsertProduct(ctx context.Context, addedBy string, d model.ProductDraft, verified bool) (*model.Product, error)
}

type VoteStore interface {
	InsertVote(ctx context.Context, userID, productID string) (*model.Vote, error)
	DeleteVote(ctx context.Context, userID, productID string) (*model.Vote, error)
	HasVoted(ctx context.Context, userID, productID string) (bool, error)
	ListUserVotes(ctx context.Context, userID string) ([]model.UserVote, error)
}

type ProfileStore interface {
	FindProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, a model.Actor) (*model.Profile, error)
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type TallyStore interface {
	ReconcileTallies(ctx context.Context) (repository.TallyReport, error)
}

// Guard admits or rejects writes. *abuse.Gate implements it.
type Guard interface {
	GuardVote(ctx context.Context, actor model.Actor, productID string) error
	GuardSubmission(ctx context.Context, actor model.Actor, draft model.ProductDraft) error
}
