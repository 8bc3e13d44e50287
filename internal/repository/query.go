package repository

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

// Page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductQuery selects a page of verified products. Build it with
// NewProductQuery; the Postgres and in-memory stores both evaluate it.
type ProductQuery struct {
	term         string
	categories   []string
	createdAfter time.Time
	sortBy       model.SortBy
	limit        int
	offset       int
}

// NewProductQuery normalizes filters into a query. now anchors the time range.
// An empty term matches every product.
func NewProductQuery(term string, f model.SearchFilters, now time.Time, limit, offset int) ProductQuery {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	sortBy := f.SortBy
	switch sortBy {
	case model.SortByVotes, model.SortByRecent, model.SortByName:
	default:
		sortBy = model.SortByVotes
	}

	var after time.Time
	if d := f.TimeRange.Lookback(); d > 0 {
		after = now.Add(-d)
	}

	cats := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}

	return ProductQuery{
		term:         strings.TrimSpace(term),
		categories:   cats,
		createdAfter: after,
		sortBy:       sortBy,
		limit:        limit,
		offset:       offset,
	}
}

// TrendingQuery selects the most voted products created since after.
func TrendingQuery(after time.Time, limit int) ProductQuery {
	q := NewProductQuery("", model.SearchFilters{SortBy: model.SortByVotes}, after, limit, 0)
	q.createdAfter = after
	return q
}

// Limit is the page size.
func (q ProductQuery) Limit() int { return q.limit }

// Offset is the number of rows skipped.
func (q ProductQuery) Offset() int { return q.offset }

// Page trims rows fetched with one extra lookahead row into a page.
func (q ProductQuery) Page(rows []model.Product) model.ProductPage {
	end := len(rows) <= q.limit
	if !end {
		rows = rows[:q.limit]
	}
	if rows == nil {
		rows = []model.Product{}
	}
	return model.ProductPage{Products: rows, Limit: q.limit, Offset: q.offset, EndOfResults: end}
}

const productColumns = `id::text, name, description, category, total_votes, created_at, updated_at,
	COALESCE(added_by::text, ''), image_url, verified`

// buildProductQuery renders q as SQL. It fetches limit+1 rows so the caller
// can tell whether another page exists.
func buildProductQuery(q ProductQuery) (string, []any) {
	var (
		where = []string{"verified = TRUE"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.categories) > 0 {
		where = append(where, "category && "+arg(q.categories)+"::text[]")
	}
	if !q.createdAfter.IsZero() {
		where = append(where, "created_at >= "+arg(q.createdAfter))
	}
	if q.term != "" {
		p := arg("%" + escapeLike(q.term) + "%")
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}

	var order string
	switch q.sortBy {
	case model.SortByRecent:
		order = "created_at DESC, id"
	case model.SortByName:
		order = "name ASC, id"
	default:
		order = "total_votes DESC, created_at DESC, id"
	}

	sql := "SELECT " + productColumns + " FROM products WHERE " + strings.Join(where, " AND ") +
		" ORDER BY " + order +
		" LIMIT " + arg(q.limit+1) + " OFFSET " + arg(q.offset)
	return sql, args
}

// escapeLike escapes LIKE metacharacters so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// matches reports whether p satisfies q's filters.
func (q ProductQuery) matches(p *model.Product) bool {
	if !p.Verified {
		return false
	}
	if len(q.categories) > 0 && !overlaps(p.Categories, q.categories) {
		return false
	}
	if !q.createdAfter.IsZero() && p.CreatedAt.Before(q.createdAfter) {
		return false
	}
	if q.term != "" {
		term := strings.ToLower(q.term)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	return true
}

// apply filters, orders and pages products the same way buildProductQuery
// does, including the lookahead row.
func (q ProductQuery) apply(all []*model.Product) []model.Product {
	var hits []model.Product
	for _, p := range all {
		if q.matches(p) {
			hits = append(hits, cloneProduct(p))
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		switch q.sortBy {
		case model.SortByRecent:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case model.SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if a.TotalVotes != b.TotalVotes {
				return a.TotalVotes > b.TotalVotes
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	if q.offset >= len(hits) {
		return nil
	}
	hits = hits[q.offset:]
	if len(hits) > q.limit+1 {
		hits = hits[:q.limit+1]
	}
	return hits
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func cloneProduct(p *model.Product) model.Product {
	cp := *p
	cp.Categories = append([]string(nil), p.Categories...)
	if p.ImageURL != nil {
		u := *p.ImageURL
		cp.ImageURL = &u
	}
	return cp
}
