package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

const voteColumns = `id::text, user_id::text, product_id::text, created_at`

func scanVote(row pgx.Row) (*model.Vote, error) {
	var v model.Vote
	if err := row.Scan(&v.ID, &v.UserID, &v.ProductID, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVote records userID's vote on productID. The (user_id, product_id)
// unique constraint decides races: the losing insert gets common.ErrConflict.
// The tally trigger bumps products.total_votes and notifies vote_changes.
func (r *VoteRepo) InsertVote(ctx context.Context, userID, productID string) (*model.Vote, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO votes (user_id, product_id) VALUES ($1, $2)
		RETURNING `+voteColumns,
		userID, productID)
	v, err := scanVote(row)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

// DeleteVote removes userID's vote on productID, returning common.ErrNotFound
// when there is none.
func (r *VoteRepo) DeleteVote(ctx context.Context, userID, productID string) (*model.Vote, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM votes WHERE user_id = $1 AND product_id = $2
		RETURNING `+voteColumns,
		userID, productID)
	v, err := scanVote(row)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

// HasVoted reports whether userID has a live vote on productID.
func (r *VoteRepo) HasVoted(ctx context.Context, userID, productID string) (bool, error) {
	n, err := r.CountUserProductVotes(ctx, userID, productID)
	return n > 0, err
}

// ListUserVotes returns userID's votes joined to product summaries, newest first.
func (r *VoteRepo) ListUserVotes(ctx context.Context, userID string) ([]model.UserVote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT v.id::text, v.created_at, p.id::text, p.name, p.description, p.total_votes, p.category
		FROM votes v
		JOIN products p ON p.id = v.product_id
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC, v.id`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	votes := []model.UserVote{}
	for rows.Next() {
		var uv model.UserVote
		err := rows.Scan(
			&uv.ID, &uv.CreatedAt, &uv.Product.ID, &uv.Product.Name,
			&uv.Product.Description, &uv.Product.TotalVotes, &uv.Product.Categories,
		)
		if err != nil {
			return nil, translate(err)
		}
		uv.ProductID = uv.Product.ID
		votes = append(votes, uv)
	}
	return votes, translate(rows.Err())
}

// CountVotesSince counts userID's votes cast at or after since.
func (r *VoteRepo) CountVotesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM votes WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&n)
	return n, translate(err)
}

const recentSubmittersSQL = `
		SELECT COALESCE(p.added_by::text, '')
		FROM votes v
		JOIN products p ON p.id = v.product_id
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC, v.id
		LIMIT $2`

// RecentVoteSubmitters returns the submitter of each product userID voted on,
// newest vote first. Products without a submitter yield "".
func (r *VoteRepo) RecentVoteSubmitters(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, recentSubmittersSQL, userID, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var submitters []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, translate(err)
		}
		submitters = append(submitters, s)
	}
	return submitters, translate(rows.Err())
}

// CountUserProductVotes counts userID's live votes on productID.
func (r *VoteRepo) CountUserProductVotes(ctx context.Context, userID, productID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM votes WHERE user_id = $1 AND product_id = $2`,
		userID, productID).Scan(&n)
	return n, translate(err)
}
