package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
)

// TrendingWindow bounds how recently a product must have been added to trend.
const (
	TrendingWindow       = 7 * 24 * time.Hour
	DefaultTrendingLimit = 10
)

// ProductOptions tunes submission handling.
type ProductOptions struct {
	// AutoVerify publishes submissions immediately instead of holding them
	// for moderation.
	AutoVerify bool
}

type ProductService struct {
	products ProductStore
	votes    VoteStore
	profiles *ProfileService
	gate     Guard
	cache    *CacheService
	opts     ProductOptions
	log      zerolog.Logger
	now      func() time.Time
}

func NewProductService(products ProductStore, votes VoteStore, profiles *ProfileService, gate Guard, cache *CacheService, opts ProductOptions, log zerolog.Logger) *ProductService {
	return &ProductService{
		products: products,
		votes:    votes,
		profiles: profiles,
		gate:     gate,
		cache:    cache,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// List returns a page of verified products matching filters.
func (s *ProductService) List(ctx context.Context, filters model.SearchFilters, limit, offset int) (*model.ProductPage, error) {
	return s.page(ctx, repository.NewProductQuery("", filters, s.now(), limit, offset))
}

// Search is List narrowed to products whose name or description contains
// term, case-insensitively.
func (s *ProductService) Search(ctx context.Context, term string, filters model.SearchFilters, limit, offset int) (*model.ProductPage, error) {
	return s.page(ctx, repository.NewProductQuery(term, filters, s.now(), limit, offset))
}

func (s *ProductService) page(ctx context.Context, q repository.ProductQuery) (*model.ProductPage, error) {
	rows, err := s.products.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	page := q.Page(rows)
	return &page, nil
}

// Get returns a product with the viewer's vote flag. Unverified products are
// visible only to their submitter. viewerID may be empty.
func (s *ProductService) Get(ctx context.Context, id, viewerID string) (*model.ProductDetail, error) {
	p, ok := s.cache.GetProduct(ctx, id)
	if !ok {
		var err error
		p, err = s.products.FindProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.Verified {
			s.cache.SetProduct(ctx, p)
		}
	}

	if !p.Verified && (viewerID == "" || viewerID != p.AddedBy) {
		return nil, common.ErrNotFound
	}

	detail := &model.ProductDetail{Product: *p}
	if viewerID != "" {
		voted, err := s.votes.HasVoted(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		detail.UserVoted = voted
	}
	return detail, nil
}

// Trending returns the most voted verified products added in the last week.
func (s *ProductService) Trending(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = DefaultTrendingLimit
	}
	if cached, ok := s.cache.GetTrending(ctx, limit); ok {
		return cached, nil
	}

	q := repository.TrendingQuery(s.now().Add(-TrendingWindow), limit)
	rows, err := s.products.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	products := q.Page(rows).Products
	s.cache.SetTrending(ctx, limit, products)
	return products, nil
}

// Submit validates draft, passes it through the abuse gate and stores it.
// The product is published immediately only when AutoVerify is set.
func (s *ProductService) Submit(ctx context.Context, actor model.Actor, draft model.ProductDraft) (*model.Product, error) {
	draft = NormalizeDraft(draft)
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}
	if _, err := s.profiles.EnsureProfile(ctx, actor); err != nil {
		return nil, err
	}
	if err := s.gate.GuardSubmission(ctx, actor, draft); err != nil {
		return nil, err
	}

	p, err := s.products.InsertProduct(ctx, actor.UserID, draft, s.opts.AutoVerify)
	if err != nil {
		return nil, err
	}
	metrics.ProductsSubmitted.Inc()

	if p.Verified {
		if err := s.cache.InvalidateCategories(ctx); err != nil {
			s.log.Warn().Err(err).Msg("cache: invalidate categories failed")
		}
	}
	s.log.Info().Str("productId", p.ID).Bool("verified", p.Verified).Msg("product submitted")
	return p, nil
}
