package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/handler"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/metrics"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/middleware"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health   *handler.HealthHandler
	Product  *handler.ProductHandler
	Vote     *handler.VoteHandler
	Category *handler.CategoryHandler
	Profile  *handler.ProfileHandler
}

// Options carries the cross-cutting pieces the middleware stack needs.
type Options struct {
	CORSOrigins string
	Verifier    middleware.TokenVerifier
	// General bounds every /api request per caller.
	General ratelimit.Limiter
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, opts Options) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(metrics.Middleware())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(opts.CORSOrigins))

	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", metrics.Handler())

	auth := middleware.RequireAuth(opts.Verifier)

	api := app.Group("/api", middleware.OptionalAuth(opts.Verifier))
	if opts.General != nil {
		api.Use(middleware.NewRateLimit(opts.General, ratelimit.ActionGeneral))
	}

	// Product routes. Static segments are registered before :id.
	api.Get("/products", h.Product.List)
	api.Get("/products/search", h.Product.Search)
	api.Get("/products/trending", h.Product.Trending)
	api.Get("/products/:id", h.Product.Get)
	api.Post("/products", auth, h.Product.Submit)

	// Vote routes
	api.Post("/products/:id/vote", auth, h.Vote.Cast)
	api.Delete("/products/:id/vote", auth, h.Vote.Retract)

	// Category routes
	api.Get("/categories", h.Category.List)

	// Caller routes
	api.Get("/me", auth, h.Profile.Me)
	api.Get("/me/votes", auth, h.Vote.Mine)
}
