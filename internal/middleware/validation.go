package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

// Query limits.
const (
	MaxSearchTermLen = 100
	MaxCategoryCount = 10
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateProductID checks that a product id is a UUID and returns it in
// canonical form.
func ValidateProductID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "product id is required"
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", "product id must be a UUID"
	}
	return parsed.String(), ""
}

// ValidateSearchTerm trims the search term and bounds its length.
func ValidateSearchTerm(q string) (string, string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", "q is required"
	}
	if len([]rune(q)) > MaxSearchTermLen {
		return "", fmt.Sprintf("q must be at most %d characters", MaxSearchTermLen)
	}
	return q, ""
}

// ParseFilters reads the category, sortBy and timeRange query parameters.
func ParseFilters(c fiber.Ctx) (model.SearchFilters, string) {
	var f model.SearchFilters

	if raw := c.Query("category"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			cat = strings.ToLower(strings.TrimSpace(cat))
			if cat == "" {
				continue
			}
			if !model.ValidCategories[cat] {
				return f, fmt.Sprintf("unknown category %q", cat)
			}
			f.Categories = append(f.Categories, cat)
		}
		if len(f.Categories) > MaxCategoryCount {
			return f, fmt.Sprintf("at most %d categories may be given", MaxCategoryCount)
		}
	}

	switch s := model.SortBy(c.Query("sortBy")); s {
	case "":
		f.SortBy = model.SortByVotes
	case model.SortByVotes, model.SortByRecent, model.SortByName:
		f.SortBy = s
	default:
		return f, "sortBy must be one of votes, recent, name"
	}

	switch r := model.TimeRange(c.Query("timeRange")); r {
	case "":
		f.TimeRange = model.TimeRangeAll
	case model.TimeRangeAll, model.TimeRangeWeek, model.TimeRangeMonth, model.TimeRangeYear:
		f.TimeRange = r
	default:
		return f, "timeRange must be one of all, week, month, year"
	}

	return f, ""
}

// ParsePaging reads limit and offset. A missing limit yields 0, which the
// catalog replaces with its default page size.
func ParsePaging(c fiber.Ctx, maxLimit int) (limit, offset int, errMsg string) {
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, fmt.Sprintf("limit must be between 1 and %d", maxLimit)
		}
		limit = n
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, "offset must be a non-negative integer"
		}
		offset = n
	}
	return limit, offset, ""
}
