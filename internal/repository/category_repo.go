package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

// ListCategories returns every category, busiest first.
func (r *CategoryRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, slug, description, product_count, created_at
		FROM categories
		ORDER BY product_count DESC, name`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ProductCount, &c.CreatedAt); err != nil {
			return nil, translate(err)
		}
		categories = append(categories, c)
	}
	return categories, translate(rows.Err())
}
