// Command devtoken mints a bearer token signed with JWT_SECRET for local
// testing against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/config"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/identity"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

func main() {
	userID := flag.String("user", "", "user id (uuid); a random one is generated when empty")
	email := flag.String("email", "dev@example.com", "email claim")
	verified := flag.Bool("verified", true, "email_verified claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	id := *userID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -user %q: must be a uuid\n", id)
		os.Exit(2)
	}

	token, err := identity.NewVerifier(cfg.JWTSecret).Sign(model.Actor{
		UserID:        id,
		Email:         *email,
		EmailVerified: *verified,
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
