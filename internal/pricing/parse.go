// Package pricing parses the free-form price and stock strings the sources
// return, applies per-source sell margins, and formats amounts for replies.
package pricing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/soprim/pricebot/internal/model"
)

// NoPriceSentinel sorts offers without a usable price after every offer
// that has one.
const NoPriceSentinel = 9_999_999

var numericToken = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice extracts the first numeric token from a raw price string and
// resolves separator ambiguity: a comma with no dot is a decimal separator
// ("120,50"), a comma alongside a dot is a thousands separator
// ("$1,234.56"). Returns 0 when nothing parses.
func ParsePrice(raw string) float64 {
	token := numericToken.FindString(raw)
	if token == "" {
		return 0
	}

	hasComma := strings.Contains(token, ",")
	hasDot := strings.Contains(token, ".")
	switch {
	case hasComma && hasDot:
		token = strings.ReplaceAll(token, ",", "")
	case hasComma:
		token = strings.ReplaceAll(token, ",", ".")
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

var (
	affirmativeStock = []string{"disponible", "si", "sí"}
	negativeStock    = []string{"no", "sin", "agotado"}
)

// ParseStock turns a raw existence string into a unit count. Non-numeric
// affirmative answers count as one unit so the offer still ranks as
// stocked.
func ParseStock(raw string) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	if token := numericToken.FindString(s); token != "" {
		token = strings.ReplaceAll(token, ",", "")
		if i := strings.IndexByte(token, '.'); i >= 0 {
			token = token[:i]
		}
		if n, err := strconv.Atoi(token); err == nil && n >= 0 {
			return n
		}
		return 0
	}

	// "sin existencia" and "no disponible" must not trip the affirmative
	// match.
	fields := strings.Fields(s)
	for _, f := range fields {
		for _, word := range negativeStock {
			if f == word {
				return 0
			}
		}
	}
	for _, f := range fields {
		for _, word := range affirmativeStock {
			if f == word {
				return 1
			}
		}
	}
	if strings.Contains(s, "en stock") {
		return 1
	}
	return 0
}

// SortValue is the price key used to rank offers. Zero or negative prices
// mean "price unknown" and must never win on cheapness, so they map to the
// sentinel.
func SortValue(o model.Offer) float64 {
	if o.PriceNumeric <= 0 {
		return NoPriceSentinel
	}
	return o.PriceNumeric
}
