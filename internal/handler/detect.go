package handler

import (
	"regexp"
	"strings"
)

// productPatterns capture the product phrase from common Spanish ways of
// asking for a medication. The capture runs to the end of the sentence or
// the first question mark.
var productPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:tienes|tienen|venden|hay|disponible|disponibles)\s+(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)(?:busco|necesito|quiero|ocupo)\s+(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)(?:me pueden conseguir|consiguen|habra)\s+(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)(?:precio de|cuanto cuesta|costo de|valor de|precio del|cuanto vale|cotiza(?:me|r)?)\s+(.+?)(?:\?|$)`),
	regexp.MustCompile(`(?i)(?:medicamento|medicina|farmaco|remedio)\s+(?:para|de|del|contra)\s+(.+?)(?:\?|$)`),
}

var fillerPrefixes = []string{
	"el ", "la ", "los ", "las ", "un ", "una ", "algun ", "alguna ",
	"este ", "esta ", "ese ", "esa ",
}

// knownDrugs is the keyword fallback when no pattern captures a phrase.
// Generic names the pharmacy quotes most often.
var knownDrugs = []string{
	"paracetamol", "ibuprofeno", "aspirina", "naproxeno", "diclofenaco",
	"ketorolaco", "meloxicam", "metamizol", "tramadol",
	"amoxicilina", "azitromicina", "ciprofloxacino", "cefalexina",
	"ampicilina", "penicilina", "claritromicina", "doxiciclina",
	"omeprazol", "pantoprazol", "esomeprazol", "ranitidina",
	"loratadina", "cetirizina", "clorfenamina", "difenhidramina",
	"metformina", "captopril", "enalapril", "losartan", "metoprolol",
	"amlodipino", "atorvastatina", "levotiroxina", "salbutamol",
	"prednisona", "dexametasona", "aciclovir", "fluconazol",
	"clonazepam", "diazepam", "fluoxetina", "sertralina",
	"ambroxol", "loperamida", "metoclopramida", "butilhioscina",
}

// DetectProduct extracts a product phrase from a customer message without
// calling the language model. It backs the classifier when that call fails.
func DetectProduct(message string) (string, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", false
	}
	lower := strings.ToLower(message)

	for _, pat := range productPatterns {
		m := pat.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		product := strings.TrimSpace(m[1])
		for _, prefix := range fillerPrefixes {
			product = strings.TrimPrefix(product, prefix)
		}
		if product != "" {
			return product, true
		}
	}

	for _, drug := range knownDrugs {
		if idx := wordIndex(lower, drug); idx >= 0 {
			// Keep what follows the drug name, it usually carries the
			// dosage.
			return strings.TrimSpace(lower[idx:]), true
		}
	}

	return "", false
}

// wordIndex returns the index of word in s when it appears as a whole word.
func wordIndex(s, word string) int {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(s[start-1])
		afterOK := end == len(s) || !isLetter(s[end])
		if beforeOK && afterOK {
			return start
		}
		idx = start + len(word)
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
