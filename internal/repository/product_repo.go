package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Categories, &p.TotalVotes,
		&p.CreatedAt, &p.UpdatedAt, &p.AddedBy, &p.ImageURL, &p.Verified,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the rows selected by q plus one lookahead row.
func (r *ProductRepo) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	sql, args := buildProductQuery(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, translate(err)
		}
		products = append(products, *p)
	}
	return products, translate(rows.Err())
}

// FindProduct returns a single product by id, verified or not.
func (r *ProductRepo) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// InsertProduct stores a new product submitted by addedBy.
func (r *ProductRepo) InsertProduct(ctx context.Context, addedBy string, d model.ProductDraft, verified bool) (*model.Product, error) {
	var imageURL *string
	if d.ImageURL != "" {
		imageURL = &d.ImageURL
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, category, added_by, image_url, verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		d.Name, d.Description, d.Categories, addedBy, imageURL, verified)
	p, err := scanProduct(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CountSubmissionsSince counts products added by userID at or after since.
func (r *ProductRepo) CountSubmissionsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM products WHERE added_by = $1 AND created_at >= $2`,
		userID, since).Scan(&n)
	return n, translate(err)
}

// namesContainingSQL lists names containing $1, exact matches of $2 first so
// the limit never cuts them off.
const namesContainingSQL = `
		SELECT name FROM products
		WHERE name ILIKE $1
		ORDER BY (lower(name) = lower($2)) DESC, created_at DESC
		LIMIT $3`

// ProductNamesContaining returns up to limit product names containing
// fragment, case-insensitively. Names equal to fragment come first.
func (r *ProductRepo) ProductNamesContaining(ctx context.Context, fragment string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, namesContainingSQL,
		"%"+escapeLike(fragment)+"%", fragment, limit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, translate(err)
		}
		names = append(names, name)
	}
	return names, translate(rows.Err())
}
