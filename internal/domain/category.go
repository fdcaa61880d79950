package domain

import "fmt"

// Category is the spending bucket of a merchant. The set is closed; anything
// not in the merchant table falls back to CategoryUncategorized.
type Category string

const (
	CategoryEntertainment Category = "entertainment"
	CategoryHousing       Category = "housing"
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryUncategorized Category = "uncategorized"
)

// AllCategories returns every known category, fallback last.
func AllCategories() []Category {
	return []Category{
		CategoryEntertainment,
		CategoryHousing,
		CategoryFood,
		CategoryTransport,
		CategoryUncategorized,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryEntertainment, CategoryHousing, CategoryFood, CategoryTransport, CategoryUncategorized:
		return true
	}
	return false
}

// ParseCategory converts user input into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
