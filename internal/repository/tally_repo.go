package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TallyReport counts the denormalized rows a reconciliation corrected.
type TallyReport struct {
	Products   int
	Categories int
}

type TallyRepo struct {
	pool *pgxpool.Pool
}

func NewTallyRepo(pool *pgxpool.Pool) *TallyRepo {
	return &TallyRepo{pool: pool}
}

// ReconcileTallies recomputes products.total_votes from votes and
// categories.product_count from verified products, touching only rows that
// drifted from the triggers' running totals.
func (r *TallyRepo) ReconcileTallies(ctx context.Context) (TallyReport, error) {
	var rep TallyReport

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return rep, translate(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE products p
		SET total_votes = actual.n
		FROM (
			SELECT p2.id, COUNT(v.id)::int AS n
			FROM products p2
			LEFT JOIN votes v ON v.product_id = p2.id
			GROUP BY p2.id
		) actual
		WHERE p.id = actual.id AND p.total_votes <> actual.n`)
	if err != nil {
		return rep, translate(err)
	}
	rep.Products = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
		UPDATE categories c
		SET product_count = actual.n
		FROM (
			SELECT c2.id, COUNT(p.id)::int AS n
			FROM categories c2
			LEFT JOIN products p ON p.verified AND c2.slug = ANY (p.category)
			GROUP BY c2.id
		) actual
		WHERE c.id = actual.id AND c.product_count <> actual.n`)
	if err != nil {
		return rep, translate(err)
	}
	rep.Categories = int(tag.RowsAffected())

	return rep, translate(tx.Commit(ctx))
}
