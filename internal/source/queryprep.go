package source

import (
	"strings"

	"github.com/soprim/pricebot/internal/model"
)

// PrepareQuery shapes the normalized query for a source's search box. The
// portals are picky in different ways: Sufarmed matches best on the active
// ingredient alone, Nadro wants ingredient and dosage as separate tokens,
// the rest take the full normalized text.
func PrepareQuery(src model.Source, q model.ProductQuery) string {
	switch src {
	case model.SourceSufarmed:
		if fields := strings.Fields(q.Normalized); len(fields) > 0 {
			return fields[0]
		}
		return q.Normalized
	case model.SourceNadro:
		if q.Dosage == nil {
			return q.Normalized
		}
		fields := strings.Fields(q.Normalized)
		if len(fields) == 0 {
			return q.Normalized
		}
		return fields[0] + " " + q.Dosage.ValueText + " " + q.Dosage.Unit
	default:
		return q.Normalized
	}
}
