package catalog

import (
	"sort"
	"strings"

	"github.com/wolfman30/healthhub-platform/internal/domain"
)

// Query refines one server page: brand filter, inclusive price filter, then
// a stable sort by the facet's key. Relevance keeps server order. The input
// slice is never modified.
func Query(serverPage []domain.Product, facets FacetState) []domain.Product {
	brands := facets.brandSet()

	out := make([]domain.Product, 0, len(serverPage))
	for _, p := range serverPage {
		if brands != nil {
			if _, ok := brands[strings.TrimSpace(p.Brand)]; !ok {
				continue
			}
		}
		if !facets.PriceRange.Contains(p.Price.Float()) {
			continue
		}
		out = append(out, p)
	}

	switch ParseSortKey(string(facets.SortKey)) {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.Float() < out[j].Price.Float() })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.Float() > out[j].Price.Float() })
	case SortPopularity:
		sort.SliceStable(out, func(i, j int) bool { return out[i].SoldCount.Int() > out[j].SoldCount.Int() })
	}
	return out
}

// FacetOptions are the selectable values offered to the caller.
type FacetOptions struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
	MinPrice   float64  `json:"min_price"`
	MaxPrice   float64  `json:"max_price"`
}

// DeriveFacetOptions collects distinct non-empty categories and brands and
// the observed price bounds of a sample.
func DeriveFacetOptions(sample []domain.Product) FacetOptions {
	opts := FacetOptions{Categories: []string{}, Brands: []string{}}
	categories := make(map[string]struct{})
	brands := make(map[string]struct{})

	for i, p := range sample {
		if c := strings.TrimSpace(p.Category); c != "" {
			categories[c] = struct{}{}
		}
		if b := strings.TrimSpace(p.Brand); b != "" {
			brands[b] = struct{}{}
		}
		price := p.Price.Float()
		if i == 0 || price < opts.MinPrice {
			opts.MinPrice = price
		}
		if i == 0 || price > opts.MaxPrice {
			opts.MaxPrice = price
		}
	}

	for c := range categories {
		opts.Categories = append(opts.Categories, c)
	}
	for b := range brands {
		opts.Brands = append(opts.Brands, b)
	}
	sort.Strings(opts.Categories)
	sort.Strings(opts.Brands)
	return opts
}
