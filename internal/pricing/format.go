package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders an amount with a dollar sign, thousands separators
// and two decimals, e.g. "$1,234.56".
func FormatPrice(v float64) string {
	return pricePrinter.Sprintf("$%.2f", v)
}
