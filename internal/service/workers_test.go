package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
)

type fakeTallyStore struct {
	rep   repository.TallyReport
	err   error
	calls int
}

func (f *fakeTallyStore) ReconcileTallies(context.Context) (repository.TallyReport, error) {
	f.calls++
	return f.rep, f.err
}

func TestTallyWorker_Tick(t *testing.T) {
	store := &fakeTallyStore{rep: repository.TallyReport{Products: 2, Categories: 1}}
	w := NewTallyWorker(store, nil, zerolog.Nop())

	rep, err := w.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rep != store.rep || store.calls != 1 {
		t.Errorf("rep = %+v calls = %d", rep, store.calls)
	}

	store.err = errors.New("db down")
	if _, err := w.Tick(context.Background()); err == nil {
		t.Error("expected reconcile error to propagate")
	}
}

type recordingInvalidator struct {
	batches [][]string
	err     error
}

func (r *recordingInvalidator) InvalidateProducts(_ context.Context, ids ...string) error {
	cp := append([]string(nil), ids...)
	sort.Strings(cp)
	r.batches = append(r.batches, cp)
	return r.err
}

func TestVoteListener_FlushBatches(t *testing.T) {
	inv := &recordingInvalidator{}
	l := NewVoteListener(nil, inv, time.Second, zerolog.Nop())
	ctx := context.Background()

	if n := l.flush(ctx); n != 0 || len(inv.batches) != 0 {
		t.Fatalf("empty flush invalidated %d", n)
	}

	for _, id := range []string{"p1", "p2", "p1", "", "p1"} {
		l.enqueue(id)
	}
	if n := l.flush(ctx); n != 2 {
		t.Fatalf("flush = %d, want 2", n)
	}
	if len(inv.batches) != 1 || len(inv.batches[0]) != 2 || inv.batches[0][0] != "p1" || inv.batches[0][1] != "p2" {
		t.Errorf("batches = %v", inv.batches)
	}

	if n := l.flush(ctx); n != 0 {
		t.Errorf("second flush = %d, want 0", n)
	}
}

func TestVoteListener_FlushError(t *testing.T) {
	inv := &recordingInvalidator{err: errors.New("redis down")}
	l := NewVoteListener(nil, inv, time.Second, zerolog.Nop())
	l.enqueue("p1")
	if n := l.flush(context.Background()); n != 0 {
		t.Errorf("flush = %d, want 0 on error", n)
	}
}

func TestCacheService_Disabled(t *testing.T) {
	var c *CacheService
	ctx := context.Background()

	if _, ok := c.GetProduct(ctx, "p1"); ok {
		t.Error("nil cache should always miss")
	}
	if err := c.InvalidateProducts(ctx, "p1"); err != nil {
		t.Errorf("InvalidateProducts: %v", err)
	}
	if c.Client() != nil {
		t.Error("nil cache has no client")
	}

	disabled := NewCacheService(ctx, "", zerolog.Nop())
	if disabled.Client() != nil {
		t.Error("empty URL disables the cache")
	}
	if _, ok := disabled.GetTrending(ctx, 10); ok {
		t.Error("disabled cache should always miss")
	}
	if err := disabled.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	if got := productKey("abc"); got != "product:abc" {
		t.Errorf("productKey = %q", got)
	}
	if got := trendingKey(10); got != "trending:10" {
		t.Errorf("trendingKey = %q", got)
	}
}
