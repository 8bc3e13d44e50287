package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
)

// TallyWorker reconciles the denormalized vote and category counts with the
// rows they summarize. Triggers keep them current; this catches drift from
// manual edits or restores.
type TallyWorker struct {
	store TallyStore
	cache *CacheService
	log   zerolog.Logger
}

func NewTallyWorker(store TallyStore, cache *CacheService, log zerolog.Logger) *TallyWorker {
	return &TallyWorker{store: store, cache: cache, log: log}
}

// Tick runs one reconciliation cycle.
func (w *TallyWorker) Tick(ctx context.Context) (repository.TallyReport, error) {
	start := time.Now()

	rep, err := w.store.ReconcileTallies(ctx)
	metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		w.log.Error().Err(err).Msg("tally-worker: reconcile failed")
		return rep, err
	}

	if rep.Categories > 0 {
		if err := w.cache.InvalidateCategories(ctx); err != nil {
			w.log.Warn().Err(err).Msg("tally-worker: cache invalidate failed")
		}
	}

	evt := w.log.Debug()
	if rep.Products > 0 || rep.Categories > 0 {
		evt = w.log.Warn()
	}
	evt.Int("products_fixed", rep.Products).
		Int("categories_fixed", rep.Categories).
		Dur("elapsed", time.Since(start)).
		Msg("tally-worker: tick complete")
	return rep, nil
}
