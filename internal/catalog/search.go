package catalog

import (
	"context"
	"strings"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/pricing"
	"github.com/soprim/pricebot/internal/textnorm"
)

// codeMatchBonus rewards a query that carries the entry's internal code
// verbatim. The boosted score is still clamped to 1.
const codeMatchBonus = 0.5

// Match pairs a catalog entry with its similarity score.
type Match struct {
	Entry model.CatalogEntry
	Score float64
}

// Search scores every catalog entry against the query and returns the best
// match at or above the threshold, or nil when nothing qualifies. Ties keep
// the first entry seen, so catalog order is the tiebreaker.
func (c *Cache) Search(ctx context.Context, query model.ProductQuery, threshold float64) (*Match, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}

	var best *Match
	for _, e := range entries {
		score := textnorm.Similarity(query.Normalized, textnorm.NormalizeProduct(e.Description))

		// Lookup-by-SKU: the whole query is the entry's internal code.
		if e.Code != "" && strings.EqualFold(e.Code, strings.TrimSpace(query.Normalized)) {
			score = min(score+codeMatchBonus, 1)
		}

		if best == nil || score > best.Score {
			best = &Match{Entry: e, Score: score}
		}
	}

	if best == nil || best.Score < threshold {
		return nil, nil
	}
	return best, nil
}

// SearchByCode returns the entry with the exact internal code, nil when
// absent.
func (c *Cache) SearchByCode(ctx context.Context, code string) (*model.CatalogEntry, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}

	code = strings.ToLower(strings.TrimSpace(code))
	for _, e := range entries {
		if strings.ToLower(e.Code) == code {
			return &e, nil
		}
	}
	return nil, nil
}

// EntriesWithStock returns the subset of the snapshot with units on hand.
func (c *Cache) EntriesWithStock(ctx context.Context) ([]model.CatalogEntry, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}

	var stocked []model.CatalogEntry
	for _, e := range entries {
		if pricing.ParseStock(e.StockRaw) > 0 {
			stocked = append(stocked, e)
		}
	}
	return stocked, nil
}

// Format converts a catalog entry into the canonical offer shape under the
// internal source.
func Format(e model.CatalogEntry) model.Offer {
	return model.Offer{
		Name:         e.Description,
		Lab:          e.Lab,
		Barcode:      e.Code,
		PriceText:    e.PriceRaw,
		PriceNumeric: pricing.ParsePrice(e.PriceRaw),
		StockText:    e.StockRaw,
		StockNumeric: pricing.ParseStock(e.StockRaw),
		Source:       model.SourceCatalog,
	}
}
