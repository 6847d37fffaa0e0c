package domain

import "fmt"

// Category is the closed set of point-of-interest kinds the map can mark.
type Category string

const (
	CategoryCafe       Category = "cafe"
	CategoryPark       Category = "park"
	CategoryShopping   Category = "shopping"
	CategoryRestaurant Category = "restaurant"
	// CategoryVenue covers places the provider returns without a more
	// specific classification.
	CategoryVenue Category = "venue"
)

// ParseCategory validates a caller-supplied category string.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryCafe, CategoryPark, CategoryShopping, CategoryRestaurant, CategoryVenue:
		return Category(s), nil
	}
	return "", fmt.Errorf("unsupported POI category: %q", s)
}

func (c Category) String() string { return string(c) }

// DefaultCategories is the set searched when a caller does not narrow the
// lookup. The generic venue category is excluded to keep results specific.
func DefaultCategories() []Category {
	return []Category{CategoryCafe, CategoryPark, CategoryShopping, CategoryRestaurant}
}

// MarkerHint carries the rendering attributes the presentation layer applies
// to a POI marker of a given category.
type MarkerHint struct {
	Icon  string
	Color string
}

// markerHints is the fixed category-to-rendering dispatch table. Unknown
// categories fall back to the generic venue hint.
var markerHints = map[Category]MarkerHint{
	CategoryCafe:       {Icon: "cafe", Color: "#8d6e63"},
	CategoryPark:       {Icon: "park", Color: "#43a047"},
	CategoryShopping:   {Icon: "shop", Color: "#5e35b1"},
	CategoryRestaurant: {Icon: "restaurant", Color: "#e53935"},
	CategoryVenue:      {Icon: "marker", Color: "#546e7a"},
}

// Hint returns the rendering attributes for the category.
func (c Category) Hint() MarkerHint {
	if h, ok := markerHints[c]; ok {
		return h
	}
	return markerHints[CategoryVenue]
}

// A point of interest near the resolved midpoint.
type POI struct {
	Point    Coordinates
	Name     string
	Category Category
	Address  string
}
