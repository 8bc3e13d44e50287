package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `id::text, email, email_verified, display_name, created_at, updated_at`

// FindProfile returns the profile for userID.
func (r *ProfileRepo) FindProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID).Scan(
		&p.ID, &p.Email, &p.EmailVerified, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpsertProfile creates the actor's profile or refreshes its email fields.
// created_at is never changed, so account age survives repeated calls.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, a model.Actor) (*model.Profile, error) {
	var p model.Profile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, email_verified) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    email_verified = EXCLUDED.email_verified,
		    updated_at = CASE
		        WHEN profiles.email IS DISTINCT FROM EXCLUDED.email
		          OR profiles.email_verified IS DISTINCT FROM EXCLUDED.email_verified
		        THEN NOW() ELSE profiles.updated_at END
		RETURNING `+profileColumns,
		a.UserID, a.Email, a.EmailVerified).Scan(
		&p.ID, &p.Email, &p.EmailVerified, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
