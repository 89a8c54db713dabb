package pricing

import (
	"github.com/rotisserie/eris"

	"github.com/soprim/pricebot/internal/model"
)

// ErrNotComputable marks a margin at or above 100 percent, which leaves no
// finite sell price.
var ErrNotComputable = eris.New("pricing: margin leaves no computable sell price")

// Engine applies per-source sell margins to acquisition costs. The margin
// is taken on the sell price, not the cost: a 45 percent margin means 45
// percent of what the customer pays is gross profit.
type Engine struct {
	margins map[model.Source]float64
}

func NewEngine(margins map[model.Source]float64) *Engine {
	if margins == nil {
		margins = make(map[model.Source]float64)
	}
	return &Engine{margins: margins}
}

// Margin returns the configured margin percentage for a source, zero when
// none is set.
func (e *Engine) Margin(src model.Source) float64 {
	return e.margins[src]
}

// SellPrice computes the customer price for an acquisition cost from the
// given source: cost / (1 - margin/100). A zero or absent margin passes the
// cost through unchanged.
func (e *Engine) SellPrice(src model.Source, cost float64) (float64, error) {
	m := e.margins[src]
	if m <= 0 {
		return cost, nil
	}
	if m >= 100 {
		return 0, eris.Wrapf(ErrNotComputable, "source %s margin %.2f%%", src, m)
	}
	return cost / (1 - m/100), nil
}

// Quote renders the sell price for a cost as reply-ready text, falling back
// to a readable placeholder when no price can be computed.
func (e *Engine) Quote(src model.Source, cost float64) string {
	if cost <= 0 {
		return "Precio no disponible"
	}
	sell, err := e.SellPrice(src, cost)
	if err != nil {
		return "Precio no disponible"
	}
	return FormatPrice(sell)
}
