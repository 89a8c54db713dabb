package resolve

import (
	"sort"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/pricing"
)

// SelectOffers applies the quoting policy to the collected offers.
//
// Offers with stock come first in every subsequent decision. The immediate
// option is the first offer from the designated fast source in that order.
// The best-price option sorts by price ascending with stocked offers
// winning price ties; a missing or zero price ranks behind every real
// price through the ranking sentinel, so such offers are kept but never
// win. The dual flag marks bundles whose two options are genuinely
// different quotes.
func SelectOffers(offers []model.Offer, fastSource model.Source) model.OfferBundle {
	if len(offers) == 0 {
		return model.OfferBundle{}
	}

	ordered := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if o.InStock() {
			ordered = append(ordered, o)
		}
	}
	for _, o := range offers {
		if !o.InStock() {
			ordered = append(ordered, o)
		}
	}

	var immediate *model.Offer
	for i := range ordered {
		if ordered[i].Source == fastSource {
			immediate = &ordered[i]
			break
		}
	}

	ranked := make([]model.Offer, len(ordered))
	copy(ranked, ordered)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := pricing.SortValue(ranked[i]), pricing.SortValue(ranked[j])
		if pi != pj {
			return pi < pj
		}
		return ranked[i].InStock() && !ranked[j].InStock()
	})
	best := &ranked[0]

	dual := immediate != nil && best != nil &&
		(immediate.Source != best.Source || immediate.PriceText != best.PriceText)

	return model.OfferBundle{
		Immediate: immediate,
		BestPrice: best,
		Dual:      dual,
	}
}
