package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) (*MemoryStore, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithMemoryClock(clock.Now))
	for _, id := range []string{"alice", "bob", "carol"} {
		if _, err := s.UpsertProfile(context.Background(), model.Actor{UserID: id, Email: id + "@example.com", EmailVerified: true}); err != nil {
			t.Fatalf("UpsertProfile(%s): %v", id, err)
		}
	}
	return s, clock
}

func mustInsertProduct(t *testing.T, s *MemoryStore, name string, cats ...string) *model.Product {
	t.Helper()
	p, err := s.InsertProduct(context.Background(), "alice", model.ProductDraft{
		Name:        name,
		Description: "Description for " + name,
		Categories:  cats,
	}, true)
	if err != nil {
		t.Fatalf("InsertProduct(%s): %v", name, err)
	}
	return p
}

func TestMemoryStore_ConcurrentCastOneWins(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustInsertProduct(t, s, "Widget", "electronics")
	ctx := context.Background()

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertVote(ctx, "bob", p.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, common.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != racers-1 {
		t.Fatalf("ok=%d conflicts=%d, want 1 and %d", ok, conflicts, racers-1)
	}
	got, _ := s.FindProduct(ctx, p.ID)
	if got.TotalVotes != 1 {
		t.Errorf("TotalVotes = %d, want 1", got.TotalVotes)
	}
}

func TestMemoryStore_CastThenRetractRestoresCount(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustInsertProduct(t, s, "Widget", "electronics")
	ctx := context.Background()

	if _, err := s.InsertVote(ctx, "carol", p.ID); err != nil {
		t.Fatalf("carol vote: %v", err)
	}
	before, _ := s.FindProduct(ctx, p.ID)

	v, err := s.InsertVote(ctx, "bob", p.ID)
	if err != nil {
		t.Fatalf("InsertVote: %v", err)
	}
	if v.UserID != "bob" || v.ProductID != p.ID || v.ID == "" {
		t.Errorf("vote = %+v", v)
	}
	mid, _ := s.FindProduct(ctx, p.ID)
	if mid.TotalVotes != before.TotalVotes+1 {
		t.Errorf("after cast TotalVotes = %d, want %d", mid.TotalVotes, before.TotalVotes+1)
	}

	removed, err := s.DeleteVote(ctx, "bob", p.ID)
	if err != nil {
		t.Fatalf("DeleteVote: %v", err)
	}
	if removed.ID != v.ID {
		t.Errorf("removed vote %s, want %s", removed.ID, v.ID)
	}
	after, _ := s.FindProduct(ctx, p.ID)
	if after.TotalVotes != before.TotalVotes {
		t.Errorf("after retract TotalVotes = %d, want %d", after.TotalVotes, before.TotalVotes)
	}

	if _, err := s.DeleteVote(ctx, "bob", p.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second retract: got %v, want ErrNotFound", err)
	}
	voted, _ := s.HasVoted(ctx, "bob", p.ID)
	if voted {
		t.Error("HasVoted should be false after retract")
	}
}

func TestMemoryStore_VoteRequiresProductAndProfile(t *testing.T) {
	s, _ := newTestStore(t)
	p := mustInsertProduct(t, s, "Widget", "electronics")
	ctx := context.Background()

	if _, err := s.InsertVote(ctx, "bob", "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing product: got %v", err)
	}
	if _, err := s.InsertVote(ctx, "stranger", p.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing profile: got %v", err)
	}
}

func TestMemoryStore_ListOrdersByVotes(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tallies := map[string]int{"Five": 5, "One": 1, "Nine": 9}
	for name, n := range tallies {
		p := mustInsertProduct(t, s, name, "books")
		for i := 0; i < n; i++ {
			voter := model.Actor{UserID: name + "-voter-" + string(rune('a'+i)), EmailVerified: true}
			if _, err := s.UpsertProfile(ctx, voter); err != nil {
				t.Fatal(err)
			}
			if _, err := s.InsertVote(ctx, voter.UserID, p.ID); err != nil {
				t.Fatalf("vote on %s: %v", name, err)
			}
		}
	}

	q := NewProductQuery("", model.SearchFilters{}, time.Now(), 10, 0)
	rows, _ := s.ListProducts(ctx, q)
	page := q.Page(rows)

	var got []int
	for _, p := range page.Products {
		got = append(got, p.TotalVotes)
	}
	want := []int{9, 5, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if !page.EndOfResults {
		t.Error("expected EndOfResults for a short page")
	}
}

func TestMemoryStore_ListFilters(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	mustInsertProduct(t, s, "Trail Shoes", "sports-outdoors", "clothing")
	mustInsertProduct(t, s, "Espresso Maker", "home-kitchen")
	hidden := mustInsertProduct(t, s, "Hidden Lamp", "home-kitchen")
	if err := s.setVerified(hidden.ID, false); err != nil {
		t.Fatal(err)
	}
	now := clock.Now()

	tests := []struct {
		name    string
		term    string
		filters model.SearchFilters
		want    []string
	}{
		{"all verified by name", "", model.SearchFilters{SortBy: model.SortByName}, []string{"Espresso Maker", "Trail Shoes"}},
		{"category overlap", "", model.SearchFilters{Categories: []string{"clothing", "books"}}, []string{"Trail Shoes"}},
		{"search name case-insensitive", "espresso", model.SearchFilters{}, []string{"Espresso Maker"}},
		{"search description", "description for trail", model.SearchFilters{}, []string{"Trail Shoes"}},
		{"unverified never listed", "lamp", model.SearchFilters{}, nil},
		{"recent first", "", model.SearchFilters{SortBy: model.SortByRecent}, []string{"Espresso Maker", "Trail Shoes"}},
		{"percent is literal", "%", model.SearchFilters{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewProductQuery(tt.term, tt.filters, now, 20, 0)
			rows, err := s.ListProducts(ctx, q)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, p := range q.Page(rows).Products {
				got = append(got, p.Name)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMemoryStore_TimeRange(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	current := start
	s := NewMemoryStore(WithMemoryClock(func() time.Time { return current }))
	ctx := context.Background()
	s.UpsertProfile(ctx, model.Actor{UserID: "alice"})

	mustInsertProduct(t, s, "Old", "books")
	current = start.Add(20 * 24 * time.Hour)
	mustInsertProduct(t, s, "New", "books")

	week := NewProductQuery("", model.SearchFilters{TimeRange: model.TimeRangeWeek}, current, 20, 0)
	rows, _ := s.ListProducts(ctx, week)
	if len(rows) != 1 || rows[0].Name != "New" {
		t.Errorf("week: got %v", rows)
	}

	month := NewProductQuery("", model.SearchFilters{TimeRange: model.TimeRangeMonth}, current, 20, 0)
	rows, _ = s.ListProducts(ctx, month)
	if len(rows) != 2 {
		t.Errorf("month: got %d rows, want 2", len(rows))
	}
}

func TestMemoryStore_Paging(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	for _, n := range []string{"A", "B", "C", "D", "E"} {
		mustInsertProduct(t, s, n, "office")
	}

	tests := []struct {
		offset  int
		want    []string
		wantEnd bool
	}{
		{0, []string{"A", "B"}, false},
		{2, []string{"C", "D"}, false},
		{4, []string{"E"}, true},
		{10, nil, true},
	}
	for _, tt := range tests {
		q := NewProductQuery("", model.SearchFilters{SortBy: model.SortByName}, time.Now(), 2, tt.offset)
		rows, _ := s.ListProducts(ctx, q)
		page := q.Page(rows)
		if page.EndOfResults != tt.wantEnd {
			t.Errorf("offset %d: EndOfResults = %v, want %v", tt.offset, page.EndOfResults, tt.wantEnd)
		}
		if len(page.Products) != len(tt.want) {
			t.Fatalf("offset %d: got %d products, want %d", tt.offset, len(page.Products), len(tt.want))
		}
		for i, p := range page.Products {
			if p.Name != tt.want[i] {
				t.Errorf("offset %d: product %d = %s, want %s", tt.offset, i, p.Name, tt.want[i])
			}
		}
	}
}

func TestMemoryStore_AbuseSignals(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, n := range []string{"SuperWidget", "Super Gadget", "Gizmo"} {
		ids = append(ids, mustInsertProduct(t, s, n, "electronics").ID)
	}
	for _, id := range ids {
		if _, err := s.InsertVote(ctx, "bob", id); err != nil {
			t.Fatal(err)
		}
	}
	now := clock.Now()

	n, _ := s.CountVotesSince(ctx, "bob", now.Add(-time.Hour))
	if n != 3 {
		t.Errorf("CountVotesSince = %d, want 3", n)
	}
	n, _ = s.CountVotesSince(ctx, "bob", now)
	if n != 0 {
		t.Errorf("CountVotesSince(now) = %d, want 0", n)
	}

	subs, _ := s.RecentVoteSubmitters(ctx, "bob", 2)
	if len(subs) != 2 || subs[0] != "alice" {
		t.Errorf("RecentVoteSubmitters = %v", subs)
	}

	names, _ := s.ProductNamesContaining(ctx, "super", 5)
	if len(names) != 2 {
		t.Errorf("ProductNamesContaining = %v", names)
	}

	count, _ := s.CountSubmissionsSince(ctx, "alice", now.Add(-24*time.Hour))
	if count != 3 {
		t.Errorf("CountSubmissionsSince = %d, want 3", count)
	}

	votes, _ := s.ListUserVotes(ctx, "bob")
	if len(votes) != 3 || votes[0].ProductID != ids[2] {
		t.Errorf("ListUserVotes newest first: got %+v", votes)
	}
}

func TestMemoryStore_NamesContainingExactFirst(t *testing.T) {
	s, _ := newTestStore(t)
	for _, n := range []string{"Widget Pro", "Mini Widget", "Widget Max", "Widget Lite", "Big Widget", "Widget Plus", "widget"} {
		mustInsertProduct(t, s, n, "electronics")
	}

	names, err := s.ProductNamesContaining(context.Background(), "Widget", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 5 {
		t.Fatalf("got %d names, want 5: %v", len(names), names)
	}
	if names[0] != "widget" {
		t.Errorf("exact match should lead past the limit, got %v", names)
	}
}

func TestMemoryStore_CategoriesAndProfiles(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustInsertProduct(t, s, "Novel", "books")
	mustInsertProduct(t, s, "Atlas", "books", "office")

	cats, _ := s.ListCategories(ctx)
	if len(cats) != len(SeedCategories) {
		t.Fatalf("got %d categories, want %d", len(cats), len(SeedCategories))
	}
	if cats[0].Slug != "books" || cats[0].ProductCount != 2 {
		t.Errorf("first category = %s (%d), want books (2)", cats[0].Slug, cats[0].ProductCount)
	}
	if cats[1].Slug != "office" || cats[1].ProductCount != 1 {
		t.Errorf("second category = %s (%d), want office (1)", cats[1].Slug, cats[1].ProductCount)
	}

	first, _ := s.FindProfile(ctx, "alice")
	again, err := s.UpsertProfile(ctx, model.Actor{UserID: "alice", Email: "new@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if !again.CreatedAt.Equal(first.CreatedAt) {
		t.Error("upsert must keep created_at")
	}
	if again.Email != "new@example.com" || again.EmailVerified {
		t.Errorf("upsert did not refresh email fields: %+v", again)
	}
	if _, err := s.FindProfile(ctx, "nobody"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("FindProfile(nobody) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ReconcileTallies(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	p := mustInsertProduct(t, s, "Widget", "electronics")
	s.InsertVote(ctx, "bob", p.ID)

	s.mu.Lock()
	s.byID[p.ID].TotalVotes = 42
	s.mu.Unlock()

	rep, err := s.ReconcileTallies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Products != 1 {
		t.Errorf("Products corrected = %d, want 1", rep.Products)
	}
	got, _ := s.FindProduct(ctx, p.ID)
	if got.TotalVotes != 1 {
		t.Errorf("TotalVotes = %d, want 1", got.TotalVotes)
	}

	rep, _ = s.ReconcileTallies(ctx)
	if rep.Products != 0 {
		t.Errorf("second pass corrected %d, want 0", rep.Products)
	}
}
