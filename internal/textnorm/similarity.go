package textnorm

import (
	"strings"

	"go.uber.org/zap"
)

// Scoring constants. These are the algorithm, not its tuning surface: the
// acceptance threshold lives in config, these do not.
const (
	startBonus       = 0.25 // target begins with the query's first characters
	densityBonusUnit = 0.05 // per common word, capped below
	densityBonusCap  = 0.15
	mainWordBonus    = 0.1  // longest query word (>3 chars) present in target
	lengthPenalty    = 0.95 // query much shorter than target
	lengthRatioFloor = 0.3

	dosageExactFactor    = 1.35 // both sides carry the same value+unit
	dosageMismatchFactor = 0.5  // both carry a dosage and it differs
	dosageQueryOnly      = 0.75 // only the query specifies a dosage
	dosageUnitOnlyFactor = 0.7  // values unparsable but units match
)

// Similarity scores how well a normalized catalog description matches a
// normalized query, in [0,1]. The base ratio divides by the query's word
// count, so the function is intentionally asymmetric: it measures how much
// of the query the target covers, not the reverse. A dosage mismatch is the
// decisive disambiguator and dominates the word-overlap score.
func Similarity(query, target string) float64 {
	if query == "" || target == "" {
		return 0
	}

	queryNorm := Normalize(query)
	targetNorm := Normalize(target)

	queryWords := wordSet(queryNorm)
	targetWords := wordSet(targetNorm)
	if len(queryWords) == 0 || len(targetWords) == 0 {
		return 0
	}

	common := 0
	for w := range queryWords {
		if _, ok := targetWords[w]; ok {
			common++
		}
	}

	score := float64(common) / float64(len(queryWords))

	prefix := queryNorm
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	if len(prefix) > 3 && strings.HasPrefix(targetNorm, prefix) {
		score += startBonus
	}

	if common >= 2 {
		score += min(densityBonusCap, float64(common)*densityBonusUnit)
	}

	if mw := mainWord(queryWords); mw != "" {
		if _, ok := targetWords[mw]; ok {
			score += mainWordBonus
		}
	}

	if float64(len(queryWords))/float64(len(targetWords)) < lengthRatioFloor {
		score *= lengthPenalty
	}

	score *= dosageFactor(queryNorm, targetNorm)

	return min(max(score, 0), 1)
}

// dosageFactor compares the dosage tokens of both sides. 1.0 when the query
// carries no dosage.
func dosageFactor(queryNorm, targetNorm string) float64 {
	qd, qok := ExtractDosage(queryNorm)
	if !qok {
		return 1.0
	}
	td, tok := ExtractDosage(targetNorm)
	if !tok {
		return dosageQueryOnly
	}

	qv, qerr := DosageValue(qd)
	tv, terr := DosageValue(td)
	if qerr != nil || terr != nil {
		zap.L().Debug("similarity: unparsable dosage value",
			zap.String("query_dosage", qd.ValueText),
			zap.String("target_dosage", td.ValueText),
		)
		if qd.Unit == td.Unit {
			return dosageUnitOnlyFactor
		}
		return 1.0
	}

	if qv == tv && qd.Unit == td.Unit {
		return dosageExactFactor
	}
	return dosageMismatchFactor
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// mainWord returns the longest query word longer than 3 characters.
func mainWord(words map[string]struct{}) string {
	best := ""
	for w := range words {
		if len(w) > 3 && (len(w) > len(best) || (len(w) == len(best) && w < best)) {
			best = w
		}
	}
	return best
}
