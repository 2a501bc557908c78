// Package callbacks finds setup/payoff clusters across a script.
package callbacks

import (
	"fmt"
	"math"
	"unicode/utf8"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/textsim"
)

const (
	// MinSetupLength is the shortest text (in characters, exclusive) that can carry a callback.
	MinSetupLength = 10
	// ReferenceThreshold is the similarity a later joke must exceed to count as a reference.
	ReferenceThreshold = 0.3
	// MaxMissedOpportunities caps the missed-opportunity list, in discovery order.
	MaxMissedOpportunities = 5

	highImpactLength   = 50
	mediumImpactLength = 30

	missedSuggestion = "Consider referencing this setup in a later scene for comedic payoff. The setup has strong callback potential."
)

// Detect groups jokes into setup/reference clusters and lists promising setups that never pay off.
// jokes must be sorted by Position. scriptText and timeline are accepted for parity with the
// stage inputs and are not consulted by the current heuristics.
func Detect(jokes []domain.Joke, scriptText string, timeline []domain.TimelinePoint) domain.CallbackAnalysis {
	clusters := make([]domain.CallbackCluster, 0)
	missed := make([]domain.MissedOpportunity, 0)
	processed := map[string]struct{}{}

	for idx, setup := range jokes {
		if utf8.RuneCountInString(setup.Text) <= MinSetupLength {
			continue
		}

		key := textsim.Normalize(setup.Text)
		if _, ok := processed[key]; ok {
			continue
		}

		references := findReferences(setup, jokes)
		if len(references) > 0 {
			clusters = append(clusters, domain.CallbackCluster{
				ID: fmt.Sprintf("callback_%d", len(clusters)+1),
				Setup: domain.CallbackSetup{
					Line:       setup.Text,
					LineNumber: lineNumberOr(setup, idx),
					Page:       setup.PageOr(fallbackPage(idx)),
					JokeID:     jokeIDOr(setup, idx),
				},
				References: references,
			})
			processed[key] = struct{}{}
			continue
		}

		if textsim.HasCallbackPotential(setup.Text) {
			missed = append(missed, domain.MissedOpportunity{
				Setup:           setup.Text,
				LineNumber:      lineNumberOr(setup, idx),
				Page:            setup.PageOr(fallbackPage(idx)),
				Suggestion:      missedSuggestion,
				PotentialImpact: assessImpact(setup.Text),
			})
		}
	}

	if len(missed) > MaxMissedOpportunities {
		missed = missed[:MaxMissedOpportunities]
	}

	return domain.CallbackAnalysis{
		Callbacks:           clusters,
		Metrics:             buildMetrics(clusters, len(jokes)),
		MissedOpportunities: missed,
	}
}

func findReferences(setup domain.Joke, jokes []domain.Joke) []domain.CallbackReference {
	var references []domain.CallbackReference
	for idx, later := range jokes {
		if later.Position <= setup.Position {
			continue
		}

		similarity := textsim.Similarity(setup.Text, later.Text)
		if similarity <= ReferenceThreshold {
			continue
		}

		references = append(references, domain.CallbackReference{
			LineNumber: lineNumberOr(later, idx),
			Page:       later.PageOr(fallbackPage(idx)),
			Relation:   textsim.RelationType(setup.Text, later.Text, similarity),
			Similarity: similarity,
		})
	}
	return references
}

func buildMetrics(clusters []domain.CallbackCluster, totalJokes int) domain.CallbackMetrics {
	references := 0
	for _, cluster := range clusters {
		references += len(cluster.References)
	}

	metrics := domain.CallbackMetrics{
		CallbackCount: len(clusters),
		TotalJokes:    totalJokes,
	}
	if totalJokes > 0 {
		metrics.CallbackFrequencyPercent = round1(float64(references) / float64(totalJokes) * 100)
	}
	if len(clusters) > 0 {
		metrics.AverageCallbacksPerSetup = round1(float64(references) / float64(len(clusters)))
	}
	return metrics
}

func assessImpact(text string) domain.Impact {
	length := utf8.RuneCountInString(text)
	switch {
	case length > highImpactLength && textsim.HasCallbackPotential(text):
		return domain.ImpactHigh
	case length > mediumImpactLength:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}

func lineNumberOr(joke domain.Joke, idx int) int {
	if joke.LineNumber != 0 {
		return joke.LineNumber
	}
	return idx
}

func jokeIDOr(joke domain.Joke, idx int) string {
	if joke.ID != "" {
		return joke.ID
	}
	return fmt.Sprintf("joke_%d", idx)
}

func fallbackPage(idx int) int {
	return domain.PositionPage(idx)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
