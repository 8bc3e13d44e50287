package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/common"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return model.ValidCategories[fl.Field().String()]
	})
	return v
}

// fieldNames maps struct fields to their JSON names for error messages.
var fieldNames = map[string]string{
	"Name":        "name",
	"Description": "description",
	"Categories":  "category",
	"ImageURL":    "imageUrl",
}

// NormalizeDraft trims free-text fields and lowercases category slugs.
func NormalizeDraft(d model.ProductDraft) model.ProductDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	cats := make([]string, 0, len(d.Categories))
	for _, c := range d.Categories {
		cats = append(cats, strings.ToLower(strings.TrimSpace(c)))
	}
	d.Categories = cats
	return d
}

// ValidateDraft checks d against the submission rules and returns the first
// violation as a *common.ValidationError.
func ValidateDraft(d model.ProductDraft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &common.ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	field := fieldNames[fe.StructField()]
	if field == "" {
		// dive errors report the element, e.g. Categories[2].
		field = fieldNames[strings.SplitN(fe.StructField(), "[", 2)[0]]
	}
	return &common.ValidationError{Field: field, Message: draftMessage(field, fe)}
}

func draftMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if field == "category" {
			return "at least one category is required"
		}
		return field + " is required"
	case "max":
		if field == "category" {
			return "at most " + fe.Param() + " categories are allowed"
		}
		return field + " must be at most " + fe.Param() + " characters"
	case "min":
		return "at least one category is required"
	case "unique":
		return "categories must not repeat"
	case "category":
		return fmt.Sprintf("unknown category %q", fe.Value())
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}
