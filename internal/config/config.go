package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"` // empty runs on the in-memory store
	RedisURL    string `envconfig:"REDIS_URL"`    // empty disables caching
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	VoteLimit        int           `envconfig:"VOTE_LIMIT" default:"20"`
	VoteWindow       time.Duration `envconfig:"VOTE_WINDOW" default:"1m"`
	SubmissionLimit  int           `envconfig:"SUBMISSION_LIMIT" default:"5"`
	SubmissionWindow time.Duration `envconfig:"SUBMISSION_WINDOW" default:"5m"`
	GeneralLimit     int           `envconfig:"GENERAL_LIMIT" default:"100"`
	GeneralWindow    time.Duration `envconfig:"GENERAL_WINDOW" default:"1m"`

	SweepSchedule     string        `envconfig:"SWEEP_SCHEDULE" default:"@every 5m"`
	ReconcileSchedule string        `envconfig:"RECONCILE_SCHEDULE" default:"@every 15m"`
	VoteBatchWindow   time.Duration `envconfig:"VOTE_BATCH_WINDOW" default:"5s"`

	ProductsAutoVerify bool `envconfig:"PRODUCTS_AUTO_VERIFY" default:"false"`
}

// Load reads an optional .env file, then the process environment. Variables
// already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	for _, p := range []struct {
		name  string
		limit int
		win   time.Duration
	}{
		{"VOTE", c.VoteLimit, c.VoteWindow},
		{"SUBMISSION", c.SubmissionLimit, c.SubmissionWindow},
		{"GENERAL", c.GeneralLimit, c.GeneralWindow},
	} {
		if p.limit <= 0 || p.win <= 0 {
			return fmt.Errorf("%s_LIMIT and %s_WINDOW must be positive", p.name, p.name)
		}
	}
	if c.VoteBatchWindow <= 0 {
		return errors.New("VOTE_BATCH_WINDOW must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// MemoryStore reports whether no database is configured.
func (c *Config) MemoryStore() bool {
	return c.DatabaseURL == ""
}

// Warnings lists settings that start fine but likely do not do what the
// operator wants.
func (c *Config) Warnings() []string {
	var out []string
	if c.MemoryStore() && !c.ProductsAutoVerify {
		out = append(out, "in-memory store has no moderation step; set PRODUCTS_AUTO_VERIFY=true or submitted products never appear in the catalog")
	}
	return out
}

func (c *Config) VotePolicy() ratelimit.Policy {
	return ratelimit.Policy{Max: c.VoteLimit, Window: c.VoteWindow}
}

func (c *Config) SubmissionPolicy() ratelimit.Policy {
	return ratelimit.Policy{Max: c.SubmissionLimit, Window: c.SubmissionWindow}
}

func (c *Config) GeneralPolicy() ratelimit.Policy {
	return ratelimit.Policy{Max: c.GeneralLimit, Window: c.GeneralWindow}
}
