// Package identity verifies the bearer tokens issued by the identity provider
// and turns them into the actor the rest of the service works with.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

type userMetadata struct {
	EmailVerified bool `json:"email_verified"`
}

type tokenClaims struct {
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens signed with the provider's secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), leeway: 30 * time.Second}
}

// Verify parses raw and returns the actor it identifies.
func (v *Verifier) Verify(raw string) (model.Actor, error) {
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired())
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return model.Actor{}, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return model.Actor{}, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}

	return model.Actor{
		UserID:        claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.UserMetadata.EmailVerified,
	}, nil
}

// Sign issues a token for actor valid for ttl. Used for local development
// tokens; production tokens come from the identity provider.
func (v *Verifier) Sign(actor model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Email:        actor.Email,
		UserMetadata: userMetadata{EmailVerified: actor.EmailVerified},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}
