// Package model defines the value types shared across the quote engine:
// raw adapter results, normalized offers, catalog entries, and query shapes.
package model

// RawStatus tags the outcome of a single adapter search.
type RawStatus string

const (
	// RawFound means the adapter located a product page and scraped fields.
	RawFound RawStatus = "found"
	// RawNotFound means the search completed and the product does not exist there.
	RawNotFound RawStatus = "not_found"
	// RawError means the adapter failed internally (login, navigation, parsing).
	RawError RawStatus = "error"
)

// RawResult is the untrusted payload returned by a source adapter. Each
// supplier populates a different subset of the price fields; the normalizer
// picks one in a fixed per-source priority order.
type RawResult struct {
	Status RawStatus `json:"estado"`

	Name string `json:"nombre,omitempty"`
	Lab  string `json:"laboratorio,omitempty"`
	Code string `json:"codigo,omitempty"`

	// Supplier sites expose up to three price figures for the same product.
	MyPrice     string `json:"mi_precio,omitempty"`
	PublicPrice string `json:"precio_publico,omitempty"`
	NetPrice    string `json:"precio_neto,omitempty"`

	Stock      string `json:"existencia,omitempty"`
	RequiresRx bool   `json:"requiere_receta,omitempty"`

	// Message carries the error or not-found detail for diagnostics.
	Message string `json:"mensaje,omitempty"`
}

// Found reports whether the raw payload claims a product was located.
func (r RawResult) Found() bool { return r.Status == RawFound }

// Offer is the canonical product record every source result is normalized
// into. PriceNumeric is never negative; unparsable prices parse to zero and
// are substituted with a large sentinel at ranking time so they sort last.
type Offer struct {
	Name         string  `json:"nombre"`
	Lab          string  `json:"laboratorio"`
	Barcode      string  `json:"codigo_barras"`
	PriceText    string  `json:"precio"`
	PriceNumeric float64 `json:"precio_numerico"`
	StockText    string  `json:"existencia"`
	StockNumeric int     `json:"existencia_numerica"`
	Source       Source  `json:"fuente"`
	RequiresRx   bool    `json:"requiere_receta"`
}

// InStock reports whether the offer has a positive availability signal.
func (o Offer) InStock() bool { return o.StockNumeric > 0 }

// OfferBundle is the final answer for one query: the offer deliverable
// immediately, the cheapest offer, and whether the two are meaningfully
// different. Constructed fresh per query; never persisted by the resolver.
type OfferBundle struct {
	Immediate *Offer `json:"opcion_entrega_inmediata"`
	BestPrice *Offer `json:"opcion_mejor_precio"`
	Dual      bool   `json:"tiene_doble_opcion"`
}

// Empty reports whether the bundle carries no offer at all.
func (b OfferBundle) Empty() bool { return b.Immediate == nil && b.BestPrice == nil }
