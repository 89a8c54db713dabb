// Package textnorm normalizes pharmaceutical product text and scores query
// similarity against catalog descriptions.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/soprim/pricebot/internal/model"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpace = regexp.MustCompile(`\s+`)

	// stripMarks removes combining diacritical marks after NFD decomposition,
	// so "ácido" and "acido" normalize identically.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// leadingArticles are dropped from the front of a product name only.
var leadingArticles = []string{
	"el ", "la ", "los ", "las ", "un ", "una ", "unos ", "unas ", "de ", "del ",
}

// synonyms maps spelled-out pharmaceutical units and forms to the canonical
// abbreviations used in the catalog. Applied word by word, never as a
// substring replacement ("sol" must not fire inside "girasol").
var synonyms = map[string]string{
	"miligramos":  "mg",
	"mililitros":  "ml",
	"microgramos": "mcg",
	"gramos":      "g",
	"capsulas":    "cap",
	"tabletas":    "tab",
	"solucion":    "sol",
	"inyectable":  "iny",
	"acetato":     "ac",
}

// Normalize lowercases, strips diacritics, collapses punctuation to spaces,
// and collapses runs of whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = nonWord.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeProduct applies Normalize, drops one leading article, and expands
// unit/form synonyms to their canonical abbreviations.
func NormalizeProduct(name string) string {
	s := Normalize(name)
	if s == "" {
		return ""
	}

	for _, art := range leadingArticles {
		if strings.HasPrefix(s, art) {
			s = s[len(art):]
			break
		}
	}

	words := strings.Fields(s)
	for i, w := range words {
		if canon, ok := synonyms[w]; ok {
			words[i] = canon
		}
	}
	return strings.Join(words, " ")
}

// NewQuery derives the immutable query value used throughout one search.
func NewQuery(raw string) model.ProductQuery {
	normalized := NormalizeProduct(raw)
	q := model.ProductQuery{Raw: raw, Normalized: normalized}
	if d, ok := ExtractDosage(normalized); ok {
		q.Dosage = &d
	}
	return q
}
