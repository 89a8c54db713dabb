package model

// CatalogEntry is one row of the internal price list. Rows are loaded in
// bulk by the catalog cache and never mutated in place; a refresh replaces
// the whole snapshot.
type CatalogEntry struct {
	Description  string `json:"descripcion"`
	Code         string `json:"clave"`
	Lab          string `json:"laboratorio"`
	Registration string `json:"registro"`
	PriceRaw     string `json:"precio"`
	StockRaw     string `json:"existencia"`
}

// Dosage is a strength token extracted from product text, e.g. 500 mg.
// ValueText keeps the matched digits so callers can distinguish "parsed and
// equal" from "same unit but not numerically comparable".
type Dosage struct {
	ValueText string `json:"valor"`
	Unit      string `json:"unidad"`
}

// ProductQuery is a free-text query plus its derived normal forms. Built
// once per search request and treated as immutable afterward.
type ProductQuery struct {
	Raw        string  `json:"texto"`
	Normalized string  `json:"texto_normalizado"`
	Dosage     *Dosage `json:"dosis,omitempty"`
}
