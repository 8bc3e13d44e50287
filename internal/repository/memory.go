package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

// SeedCategories are the categories a fresh store starts with.
var SeedCategories = []struct{ Name, Slug, Description string }{
	{"Electronics", "electronics", "Gadgets, devices and accessories"},
	{"Home & Kitchen", "home-kitchen", "Appliances, cookware and home goods"},
	{"Sports & Outdoors", "sports-outdoors", "Gear for sports, fitness and the outdoors"},
	{"Books", "books", "Books and e-readers"},
	{"Automotive", "automotive", "Car parts, tools and accessories"},
	{"Health & Beauty", "health-beauty", "Personal care and wellness"},
	{"Toys & Games", "toys-games", "Toys, board games and puzzles"},
	{"Clothing", "clothing", "Apparel, shoes and accessories"},
	{"Food & Beverage", "food-beverage", "Groceries, snacks and drinks"},
	{"Office", "office", "Office supplies and furniture"},
}

type voteKey struct{ userID, productID string }

type storedVote struct {
	model.Vote
	seq uint64
}

// MemoryStore keeps the whole catalog in process. It honors the same
// constraints as the Postgres schema (one vote per user and product, vote
// tallies kept in step with votes) and is used for local development and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	seq        uint64
	products   []*model.Product
	byID       map[string]*model.Product
	votes      map[voteKey]*storedVote
	profiles   map[string]*model.Profile
	categories []model.Category
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the store's time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore returns an empty store seeded with the default categories.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:      time.Now,
		byID:     make(map[string]*model.Product),
		votes:    make(map[voteKey]*storedVote),
		profiles: make(map[string]*model.Profile),
	}
	for _, opt := range opts {
		opt(s)
	}
	created := s.now().UTC()
	for _, c := range SeedCategories {
		desc := c.Description
		s.categories = append(s.categories, model.Category{
			ID:          uuid.NewString(),
			Name:        c.Name,
			Slug:        c.Slug,
			Description: &desc,
			CreatedAt:   created,
		})
	}
	return s
}

// ListProducts returns the rows selected by q plus one lookahead row.
func (s *MemoryStore) ListProducts(_ context.Context, q ProductQuery) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return q.apply(s.products), nil
}

// FindProduct returns a single product by id, verified or not.
func (s *MemoryStore) FindProduct(_ context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := cloneProduct(p)
	return &cp, nil
}

// InsertProduct stores a new product submitted by addedBy.
func (s *MemoryStore) InsertProduct(_ context.Context, addedBy string, d model.ProductDraft, verified bool) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[addedBy]; !ok {
		return nil, common.ErrNotFound
	}

	now := s.now().UTC()
	p := &model.Product{
		ID:          uuid.NewString(),
		Name:        d.Name,
		Description: d.Description,
		Categories:  append([]string{}, d.Categories...),
		CreatedAt:   now,
		UpdatedAt:   now,
		AddedBy:     addedBy,
		Verified:    verified,
	}
	if d.ImageURL != "" {
		u := d.ImageURL
		p.ImageURL = &u
	}
	s.products = append(s.products, p)
	s.byID[p.ID] = p

	cp := cloneProduct(p)
	return &cp, nil
}

// setVerified flips a product's moderation flag.
func (s *MemoryStore) setVerified(id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Verified = verified
	p.UpdatedAt = s.now().UTC()
	return nil
}

// CountSubmissionsSince counts products added by userID at or after since.
func (s *MemoryStore) CountSubmissionsSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.products {
		if p.AddedBy == userID && !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ProductNamesContaining returns up to limit product names containing
// fragment, case-insensitively. Names equal to fragment come first.
func (s *MemoryStore) ProductNamesContaining(_ context.Context, fragment string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fragment = strings.ToLower(fragment)
	var exact, partial []string
	for _, p := range s.products {
		name := strings.ToLower(p.Name)
		switch {
		case name == fragment:
			exact = append(exact, p.Name)
		case strings.Contains(name, fragment):
			partial = append(partial, p.Name)
		}
	}
	names := append(exact, partial...)
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// InsertVote records userID's vote on productID. A second vote for the same
// pair fails with common.ErrConflict, however the calls interleave.
func (s *MemoryStore) InsertVote(_ context.Context, userID, productID string) (*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[productID]
	if !ok {
		return nil, common.ErrNotFound
	}
	if _, ok := s.profiles[userID]; !ok {
		return nil, common.ErrNotFound
	}
	key := voteKey{userID, productID}
	if _, dup := s.votes[key]; dup {
		return nil, common.ErrConflict
	}

	s.seq++
	now := s.now().UTC()
	v := &storedVote{
		Vote: model.Vote{ID: uuid.NewString(), UserID: userID, ProductID: productID, CreatedAt: now},
		seq:  s.seq,
	}
	s.votes[key] = v
	p.TotalVotes++
	p.UpdatedAt = now

	out := v.Vote
	return &out, nil
}

// DeleteVote removes userID's vote on productID.
func (s *MemoryStore) DeleteVote(_ context.Context, userID, productID string) (*model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{userID, productID}
	v, ok := s.votes[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(s.votes, key)
	if p, ok := s.byID[productID]; ok {
		if p.TotalVotes > 0 {
			p.TotalVotes--
		}
		p.UpdatedAt = s.now().UTC()
	}

	out := v.Vote
	return &out, nil
}

// HasVoted reports whether userID has a live vote on productID.
func (s *MemoryStore) HasVoted(_ context.Context, userID, productID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.votes[voteKey{userID, productID}]
	return ok, nil
}

// userVotes returns userID's votes newest first. Callers hold s.mu.
func (s *MemoryStore) userVotes(userID string) []*storedVote {
	var out []*storedVote
	for k, v := range s.votes {
		if k.userID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

// ListUserVotes returns userID's votes joined to product summaries, newest first.
func (s *MemoryStore) ListUserVotes(_ context.Context, userID string) ([]model.UserVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.UserVote{}
	for _, v := range s.userVotes(userID) {
		p, ok := s.byID[v.ProductID]
		if !ok {
			continue
		}
		out = append(out, model.UserVote{
			ID:        v.ID,
			CreatedAt: v.CreatedAt,
			ProductID: p.ID,
			Product: model.ProductSummary{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				TotalVotes:  p.TotalVotes,
				Categories:  append([]string{}, p.Categories...),
			},
		})
	}
	return out, nil
}

// CountVotesSince counts userID's votes cast at or after since.
func (s *MemoryStore) CountVotesSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k, v := range s.votes {
		if k.userID == userID && !v.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// RecentVoteSubmitters returns the submitter of each product userID voted on,
// newest vote first.
func (s *MemoryStore) RecentVoteSubmitters(_ context.Context, userID string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, v := range s.userVotes(userID) {
		if len(out) >= limit {
			break
		}
		if p, ok := s.byID[v.ProductID]; ok {
			out = append(out, p.AddedBy)
		}
	}
	return out, nil
}

// CountUserProductVotes counts userID's live votes on productID.
func (s *MemoryStore) CountUserProductVotes(_ context.Context, userID, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.votes[voteKey{userID, productID}]; ok {
		return 1, nil
	}
	return 0, nil
}

// FindProfile returns the profile for userID.
func (s *MemoryStore) FindProfile(_ context.Context, userID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpsertProfile creates the actor's profile or refreshes its email fields.
func (s *MemoryStore) UpsertProfile(_ context.Context, a model.Actor) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	p, ok := s.profiles[a.UserID]
	if !ok {
		p = &model.Profile{ID: a.UserID, Email: a.Email, EmailVerified: a.EmailVerified, CreatedAt: now, UpdatedAt: now}
		s.profiles[a.UserID] = p
	} else if p.Email != a.Email || p.EmailVerified != a.EmailVerified {
		p.Email = a.Email
		p.EmailVerified = a.EmailVerified
		p.UpdatedAt = now
	}
	cp := *p
	return &cp, nil
}

// ListCategories returns every category, busiest first.
func (s *MemoryStore) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range s.products {
		if !p.Verified {
			continue
		}
		for _, c := range p.Categories {
			counts[c]++
		}
	}

	out := make([]model.Category, len(s.categories))
	copy(out, s.categories)
	for i := range out {
		out[i].ProductCount = counts[out[i].Slug]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductCount != out[j].ProductCount {
			return out[i].ProductCount > out[j].ProductCount
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ReconcileTallies recomputes each product's total from its votes. Category
// counts are derived on read, so they never drift.
func (s *MemoryStore) ReconcileTallies(_ context.Context) (TallyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actual := make(map[string]int, len(s.byID))
	for k := range s.votes {
		actual[k.productID]++
	}
	var rep TallyReport
	for _, p := range s.products {
		if p.TotalVotes != actual[p.ID] {
			p.TotalVotes = actual[p.ID]
			rep.Products++
		}
	}
	return rep, nil
}
