// Package catalog refines server-paginated product listings with client-side
// facet filters and sort orders.
package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidFacet is returned when a facet query parameter cannot be parsed.
var ErrInvalidFacet = errors.New("catalog: invalid facet")

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// SortKey orders a refined page.
type SortKey string

const (
	SortRelevance  SortKey = "relevance"
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortPopularity SortKey = "popularity"
)

// ParseSortKey maps a raw value to a SortKey. Unknown values fall back to
// relevance.
func ParseSortKey(raw string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortPriceAsc, SortPriceDesc, SortPopularity:
		return k
	default:
		return SortRelevance
	}
}

// PriceRange is an inclusive price window. A nil bound is unbounded.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether price falls inside the range.
func (r PriceRange) Contains(price float64) bool {
	if r.Min != nil && price < *r.Min {
		return false
	}
	if r.Max != nil && price > *r.Max {
		return false
	}
	return true
}

// FacetState is the caller's current filter selection.
type FacetState struct {
	PriceRange     PriceRange `json:"price_range"`
	SelectedBrands []string   `json:"brands,omitempty"`
	SortKey        SortKey    `json:"sort"`
	Page           int        `json:"page"`
	PageSize       int        `json:"page_size"`
}

// Normalize returns a copy with min <= max, page >= 1 and a bounded page size.
func (f FacetState) Normalize() FacetState {
	out := f
	if out.PriceRange.Min != nil && out.PriceRange.Max != nil && *out.PriceRange.Min > *out.PriceRange.Max {
		out.PriceRange.Min, out.PriceRange.Max = out.PriceRange.Max, out.PriceRange.Min
	}
	if out.Page < 1 {
		out.Page = 1
	}
	switch {
	case out.PageSize <= 0:
		out.PageSize = DefaultPageSize
	case out.PageSize > MaxPageSize:
		out.PageSize = MaxPageSize
	}
	out.SortKey = ParseSortKey(string(out.SortKey))

	seen := make(map[string]struct{}, len(f.SelectedBrands))
	brands := make([]string, 0, len(f.SelectedBrands))
	for _, b := range f.SelectedBrands {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		brands = append(brands, b)
	}
	out.SelectedBrands = brands
	return out
}

func (f FacetState) brandSet() map[string]struct{} {
	if len(f.SelectedBrands) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(f.SelectedBrands))
	for _, b := range f.SelectedBrands {
		set[b] = struct{}{}
	}
	return set
}

// ParseFacetState reads facets from query parameters: brand (repeatable or
// comma separated), min_price, max_price, sort, page and page_size.
func ParseFacetState(values url.Values) (FacetState, error) {
	var f FacetState

	for _, raw := range values["brand"] {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				f.SelectedBrands = append(f.SelectedBrands, b)
			}
		}
	}

	var err error
	if f.PriceRange.Min, err = optionalFloat(values, "min_price"); err != nil {
		return FacetState{}, err
	}
	if f.PriceRange.Max, err = optionalFloat(values, "max_price"); err != nil {
		return FacetState{}, err
	}
	if f.Page, err = optionalInt(values, "page"); err != nil {
		return FacetState{}, err
	}
	if f.PageSize, err = optionalInt(values, "page_size"); err != nil {
		return FacetState{}, err
	}
	f.SortKey = ParseSortKey(values.Get("sort"))
	return f.Normalize(), nil
}

func optionalFloat(values url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidFacet, name, raw)
	}
	return &v, nil
}

func optionalInt(values url.Values, name string) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidFacet, name, raw)
	}
	return v, nil
}
