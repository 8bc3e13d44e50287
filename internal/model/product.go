package model

import "time"

// Product represents a submitted product in the catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Categories  []string  `json:"category"`
	TotalVotes  int       `json:"totalVotes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	AddedBy     string    `json:"addedBy"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Verified    bool      `json:"verified"`
}

// ProductDraft is the request body for submitting a product.
type ProductDraft struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=500"`
	Categories  []string `json:"category" validate:"required,min=1,max=10,unique,dive,category"`
	ImageURL    string   `json:"imageUrl,omitempty" validate:"omitempty,url,max=2048"`
}

// ProductDetail is the API response for a single product lookup.
type ProductDetail struct {
	Product
	UserVoted bool `json:"userVoted"`
}

// ProductPage is one page of catalog results. EndOfResults is set when no
// further page exists.
type ProductPage struct {
	Products     []Product `json:"products"`
	Limit        int       `json:"limit"`
	Offset       int       `json:"offset"`
	EndOfResults bool      `json:"endOfResults"`
}

// SortBy selects the catalog ordering.
type SortBy string

const (
	SortByVotes  SortBy = "votes"
	SortByRecent SortBy = "recent"
	SortByName   SortBy = "name"
)

// TimeRange bounds product creation time relative to now.
type TimeRange string

const (
	TimeRangeAll   TimeRange = "all"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// Lookback returns how far back the range reaches; zero means unbounded.
func (r TimeRange) Lookback() time.Duration {
	switch r {
	case TimeRangeWeek:
		return 7 * 24 * time.Hour
	case TimeRangeMonth:
		return 30 * 24 * time.Hour
	case TimeRangeYear:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// SearchFilters are the optional catalog filters shared by list and search.
type SearchFilters struct {
	Categories []string
	SortBy     SortBy
	TimeRange  TimeRange
}

// ValidCategories are the product categories accepted on submission.
var ValidCategories = map[string]bool{
	"electronics":     true,
	"home-kitchen":    true,
	"sports-outdoors": true,
	"books":           true,
	"automotive":      true,
	"health-beauty":   true,
	"toys-games":      true,
	"clothing":        true,
	"food-beverage":   true,
	"office":          true,
}
