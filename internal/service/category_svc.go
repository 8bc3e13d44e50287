package service

import (
	"context"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type CategoryService struct {
	store CategoryStore
	cache *CacheService
}

func NewCategoryService(store CategoryStore, cache *CacheService) *CategoryService {
	return &CategoryService{store: store, cache: cache}
}

// List returns every category ordered by product count, busiest first.
// Uses cache-aside: check Redis first, fall back to the store, then populate.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	if cached, ok := s.cache.GetCategories(ctx); ok {
		return cached, nil
	}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetCategories(ctx, cats)
	return cats, nil
}
