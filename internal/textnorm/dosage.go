package textnorm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/soprim/pricebot/internal/model"
)

// dosagePattern matches a number (optionally decimal, comma or dot) directly
// followed by a unit from the fixed vocabulary. Input must already be
// normalized (lowercase, no punctuation other than the decimal mark).
var dosagePattern = regexp.MustCompile(`(\d+[.,]?\d*)\s*(mg|ml|mcg|g|ui|l|kg|unidades|unidad|unid)\b`)

// ExtractDosage finds the first dosage token in normalized text. A comma in
// the value is treated as a decimal point.
func ExtractDosage(normalized string) (model.Dosage, bool) {
	m := dosagePattern.FindStringSubmatch(normalized)
	if m == nil {
		return model.Dosage{}, false
	}
	return model.Dosage{
		ValueText: strings.ReplaceAll(m[1], ",", "."),
		Unit:      m[2],
	}, true
}

// DosageValue parses the numeric value of a dosage token.
func DosageValue(d model.Dosage) (float64, error) {
	return strconv.ParseFloat(d.ValueText, 64)
}
