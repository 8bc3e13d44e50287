package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// VoteChannel is the NOTIFY channel the vote tally trigger publishes on.
const VoteChannel = "vote_changes"

// productInvalidator drops cached product entries.
type productInvalidator interface {
	InvalidateProducts(ctx context.Context, ids ...string) error
}

// VoteListener listens for NOTIFY on vote_changes and invalidates the cached
// detail of every product whose tally moved. Notifications are batched: 50
// votes on one product inside a window cost one invalidation.
type VoteListener struct {
	pool   *pgxpool.Pool
	cache  productInvalidator
	window time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{} // product ids waiting for invalidation
}

// NewVoteListener creates a listener flushing every window.
func NewVoteListener(pool *pgxpool.Pool, cache productInvalidator, window time.Duration, log zerolog.Logger) *VoteListener {
	return &VoteListener{
		pool:    pool,
		cache:   cache,
		window:  window,
		log:     log,
		pending: make(map[string]struct{}),
	}
}

// Start listens until ctx is cancelled, reconnecting after errors.
func (l *VoteListener) Start(ctx context.Context) error {
	l.log.Info().Dur("batch_window", l.window).Msg("vote-listener: starting")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.flushLoop(flushCtx)
	}()
	defer func() { <-done }()

	for {
		err := l.listenLoop(ctx)
		if ctx.Err() != nil {
			l.log.Info().Msg("vote-listener: stopping (context cancelled)")
			return nil
		}
		l.log.Warn().Err(err).Msg("vote-listener: listen error, reconnecting in 5s")
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			l.log.Info().Msg("vote-listener: stopping (context cancelled)")
			return nil
		}
	}
}

// listenLoop holds a dedicated connection for LISTEN and queues payloads.
func (l *VoteListener) listenLoop(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+VoteChannel); err != nil {
		return err
	}
	l.log.Info().Str("channel", VoteChannel).Msg("vote-listener: listening")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.enqueue(n.Payload)
	}
}

func (l *VoteListener) enqueue(productID string) {
	if productID == "" {
		return
	}
	l.mu.Lock()
	l.pending[productID] = struct{}{}
	l.mu.Unlock()
}

func (l *VoteListener) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.flush(ctx)
		case <-ctx.Done():
			// Final flush with a short deadline of its own.
			finalCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			l.flush(finalCtx)
			cancel()
			return
		}
	}
}

// flush drains the pending set and invalidates it in one call.
func (l *VoteListener) flush(ctx context.Context) int {
	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return 0
	}
	batch := l.pending
	l.pending = make(map[string]struct{})
	l.mu.Unlock()

	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}

	if err := l.cache.InvalidateProducts(ctx, ids...); err != nil {
		l.log.Warn().Err(err).Int("products", len(ids)).Msg("vote-listener: cache invalidate failed")
		return 0
	}
	l.log.Debug().Int("products", len(ids)).Msg("vote-listener: batch invalidated")
	return len(ids)
}
