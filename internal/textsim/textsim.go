// Package textsim holds the pure text heuristics used by callback detection.
package textsim

import (
	"regexp"
	"strings"

	"ComedyAnalyzer/internal/domain"
)

const (
	samePhraseThreshold = 0.7
	thematicThreshold   = 0.5
)

var (
	punctuationExpr = regexp.MustCompile(`[^\w\s]`)
	properNounExpr  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

	potentialExprs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(always|never|every time)\b`),
		regexp.MustCompile(`(?i)\b(remember|forgot|mentioned)\b`),
		regexp.MustCompile(`(?i)\b(like|just like|similar to)\b`),
		regexp.MustCompile(`["'].*["']`),
	}
)

// Normalize lowercases text and strips everything but word characters and whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(punctuationExpr.ReplaceAllString(strings.ToLower(text), ""))
}

// Similarity is the Jaccard index of the normalized token sets of a and b.
func Similarity(a, b string) float64 {
	left := tokenSet(a)
	right := tokenSet(b)

	union := len(left)
	intersection := 0
	for token := range right {
		if _, ok := left[token]; ok {
			intersection++
			continue
		}
		union++
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// HasCallbackPotential reports whether text carries markers that usually set up a callback:
// temporal repetition, memory, comparison or a quoted phrase.
func HasCallbackPotential(text string) bool {
	for _, expr := range potentialExprs {
		if expr.MatchString(text) {
			return true
		}
	}
	return false
}

// SharesCharacter reports whether both texts mention the same capitalized word.
func SharesCharacter(a, b string) bool {
	names := properNounExpr.FindAllString(a, -1)
	if len(names) == 0 {
		return false
	}

	other := map[string]struct{}{}
	for _, name := range properNounExpr.FindAllString(b, -1) {
		other[name] = struct{}{}
	}
	for _, name := range names {
		if _, ok := other[name]; ok {
			return true
		}
	}
	return false
}

// RelationType classifies a setup/callback pair. Checks run in a fixed order.
func RelationType(setup, callback string, similarity float64) domain.Relation {
	switch {
	case similarity > samePhraseThreshold:
		return domain.RelationSamePunchline
	case similarity > thematicThreshold:
		return domain.RelationThematic
	case SharesCharacter(setup, callback):
		return domain.RelationCharacter
	default:
		return domain.RelationSituational
	}
}

func tokenSet(text string) map[string]struct{} {
	tokens := strings.Fields(Normalize(text))
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
