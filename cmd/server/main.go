package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/abuse"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/config"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/db"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/handler"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/identity"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/jobs"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/middleware"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/router"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

// stores groups the persistence contracts so either backend can be wired.
type stores struct {
	products    service.ProductStore
	votes       service.VoteStore
	profiles    service.ProfileStore
	categories  service.CategoryStore
	tallies     service.TallyStore
	voteHistory abuse.VoteHistory
	submissions abuse.SubmissionHistory
}

func postgresStores(pool *pgxpool.Pool) stores {
	products := repository.NewProductRepo(pool)
	votes := repository.NewVoteRepo(pool)
	return stores{
		products:    products,
		votes:       votes,
		profiles:    repository.NewProfileRepo(pool),
		categories:  repository.NewCategoryRepo(pool),
		tallies:     repository.NewTallyRepo(pool),
		voteHistory: votes,
		submissions: products,
	}
}

func memoryStores() stores {
	m := repository.NewMemoryStore()
	return stores{
		products:    m,
		votes:       m,
		profiles:    m,
		categories:  m,
		tallies:     m,
		voteHistory: m,
		submissions: m,
	}
}

func main() {
	if err := run(); err != nil {
		middleware.Logger.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	middleware.InitLogger("info", "productvote-api")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	middleware.InitLogger(cfg.LogLevel, "productvote-api")
	log := middleware.Logger
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence
	var (
		pool   *pgxpool.Pool
		st     stores
		pinger handler.Pinger
	)
	if cfg.MemoryStore() {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		st = memoryStores()
	} else {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st = postgresStores(pool)
		pinger = pool
	}
	metrics.Register(pool)

	cache := service.NewCacheService(ctx, cfg.RedisURL, log)
	defer cache.Close()

	// Abuse gate
	voteLimiter := ratelimit.NewMemoryLimiter(cfg.VotePolicy())
	submissionLimiter := ratelimit.NewMemoryLimiter(cfg.SubmissionPolicy())
	generalLimiter := ratelimit.NewMemoryLimiter(cfg.GeneralPolicy())

	evaluator := abuse.NewEvaluator(st.voteHistory, st.submissions, st.profiles)
	gate := abuse.NewGate(voteLimiter, submissionLimiter, evaluator,
		abuse.NewZerologActivityLogger(log.With().Str("component", "abuse").Logger()))

	// Services
	profileSvc := service.NewProfileService(st.profiles)
	productSvc := service.NewProductService(st.products, st.votes, profileSvc, gate, cache,
		service.ProductOptions{AutoVerify: cfg.ProductsAutoVerify}, log)
	voteSvc := service.NewVoteService(st.votes, st.products, profileSvc, gate, cache, log)
	categorySvc := service.NewCategoryService(st.categories, cache)
	tallyWorker := service.NewTallyWorker(st.tallies, cache, log.With().Str("component", "tally").Logger())

	// HTTP
	app := fiber.New(fiber.Config{
		AppName:      "ProductVote API",
		ServerHeader: "ProductVote",
	})
	router.Setup(app, &router.Handlers{
		Health:   handler.NewHealthHandler(pinger, cache.Client()),
		Product:  handler.NewProductHandler(productSvc),
		Vote:     handler.NewVoteHandler(voteSvc),
		Category: handler.NewCategoryHandler(categorySvc),
		Profile:  handler.NewProfileHandler(profileSvc),
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Verifier:    identity.NewVerifier(cfg.JWTSecret),
		General:     generalLimiter,
	})

	// Background jobs
	sched := jobs.NewScheduler(log.With().Str("component", "scheduler").Logger())
	if err := sched.AddSweep(cfg.SweepSchedule, map[string]jobs.Sweeper{
		ratelimit.ActionVote:       voteLimiter,
		ratelimit.ActionSubmission: submissionLimiter,
		ratelimit.ActionGeneral:    generalLimiter,
	}); err != nil {
		return err
	}
	if err := sched.AddReconcile(ctx, cfg.ReconcileSchedule, tallyWorker); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Bool("memory_store", cfg.MemoryStore()).
			Msg("ProductVote API starting")
		return app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: cfg.IsProduction()})
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if pool != nil {
		listener := service.NewVoteListener(pool, cache, cfg.VoteBatchWindow,
			log.With().Str("component", "vote-listener").Logger())
		g.Go(func() error {
			return listener.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
