package stages

import (
	"fmt"
	"math"
	"slices"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/engagement"
)

const (
	positionsPerMinute = 10
	idealJokeSpacing   = 5.0
	actCount           = 3
)

// ComputeMetrics derives the headline numbers of a parsed script.
func ComputeMetrics(s1 domain.Stage1Output) domain.Stage2Output {
	total := len(s1.Jokes)
	out := domain.Stage2Output{TotalJokes: total}
	if total == 0 {
		return out
	}

	minutes := float64(len(s1.Timeline)) / positionsPerMinute
	if minutes == 0 {
		minutes = float64(s1.ScriptMetadata.EstimatedDuration)
	}
	if minutes > 0 {
		out.LaughsPerMinute = round1(float64(total) / minutes)
	}
	if len(s1.Timeline) > 0 {
		out.JokeDensity = round1(float64(total) * 100 / float64(len(s1.Timeline)))
	}

	rankSum := 0
	for _, joke := range s1.Jokes {
		rankSum += joke.Complexity.Rank()
	}
	out.AverageJokeComplexity = round1(float64(rankSum) / float64(total))
	return out
}

// ComputePacing scores the spacing between consecutive jokes. Evenly spaced jokes
// about half a minute apart score highest.
func ComputePacing(s1 domain.Stage1Output) domain.Stage3Output {
	jokes := sortedJokes(s1.Jokes)
	out := domain.Stage3Output{Rhythm: make([]domain.RhythmPoint, 0, len(jokes))}
	for _, joke := range jokes {
		out.Rhythm = append(out.Rhythm, domain.RhythmPoint{
			Position:  joke.Position,
			Intensity: engagement.JokeWeight(joke.Complexity),
			Time:      domain.PositionTime(joke.Position),
		})
	}
	if len(jokes) < 2 {
		return out
	}

	spacings := make([]float64, 0, len(jokes)-1)
	for i := 1; i < len(jokes); i++ {
		spacings = append(spacings, float64(jokes[i].Position-jokes[i-1].Position))
	}
	mean := 0.0
	for _, s := range spacings {
		mean += s
	}
	mean /= float64(len(spacings))

	score := 100 - math.Abs(mean-idealJokeSpacing)*5 - engagement.Volatility(spacings)*2
	out.PacingScore = round1(clamp(score, 0, 100))
	out.AverageTimeBetweenJokes = round1(mean)
	return out
}

// ComputeDistribution counts jokes per page and per act (thirds of the timeline).
func ComputeDistribution(s1 domain.Stage1Output) domain.Stage4Output {
	pages := s1.ScriptMetadata.TotalPages
	firstPosition := map[int]int{}
	for _, point := range s1.Timeline {
		pages = max(pages, point.Page)
		if _, ok := firstPosition[point.Page]; !ok {
			firstPosition[point.Page] = point.Position
		}
	}

	counts := map[int]int{}
	for _, joke := range s1.Jokes {
		page := joke.PageOr(domain.PositionPage(joke.Position))
		pages = max(pages, page)
		counts[page]++
	}

	out := domain.Stage4Output{Distribution: make([]domain.DistributionPoint, 0, pages)}
	for page := 1; page <= pages; page++ {
		position, ok := firstPosition[page]
		if !ok {
			position = (page - 1) * positionsPerMinute
		}
		out.Distribution = append(out.Distribution, domain.DistributionPoint{
			Position: position,
			Count:    counts[page],
			Page:     page,
		})
	}

	if len(s1.Timeline) == 0 {
		return out
	}
	acts := make([]int, actCount)
	for _, joke := range s1.Jokes {
		act := min(joke.Position*actCount/len(s1.Timeline), actCount-1)
		acts[max(act, 0)]++
	}
	for i, count := range acts {
		breakdown := domain.ActBreakdown{Act: i + 1, JokeCount: count}
		if len(s1.Jokes) > 0 {
			breakdown.Percentage = round1(float64(count) * 100 / float64(len(s1.Jokes)))
		}
		out.ActBreakdown = append(out.ActBreakdown, breakdown)
	}
	return out
}

// ClassifyJokes assigns every joke a quality tier and flags basic ones.
func ClassifyJokes(jokes []domain.Joke) domain.Stage7Output {
	out := domain.Stage7Output{Jokes: make([]domain.EnrichedJoke, 0, len(jokes))}
	for _, joke := range jokes {
		enriched := domain.EnrichedJoke{
			Joke:         joke,
			QualityScore: float64(joke.Complexity.Rank() * 20),
		}
		switch joke.Complexity {
		case domain.ComplexityHigh:
			enriched.ClassificationTier = "High"
			out.Distribution.High++
		case domain.ComplexityAdvanced:
			enriched.ClassificationTier = "Advanced"
			out.Distribution.Advanced++
		case domain.ComplexityIntermediate:
			enriched.ClassificationTier = "Intermediate"
			out.Distribution.Intermediate++
		case domain.ComplexityStandard:
			enriched.ClassificationTier = "Standard"
			out.Distribution.Standard++
		default:
			enriched.ClassificationTier = "Basic"
			enriched.FlaggedForImprovement = true
			enriched.ImprovementSuggestion = fmt.Sprintf("Sharpen %q with a specific detail or an unexpected turn", preview(joke.Text, 40))
			out.Distribution.Basic++
			out.FlaggedCount++
		}
		out.Jokes = append(out.Jokes, enriched)
	}
	return out
}

func sortedJokes(jokes []domain.Joke) []domain.Joke {
	sorted := slices.Clone(jokes)
	slices.SortStableFunc(sorted, func(a, b domain.Joke) int { return a.Position - b.Position })
	return sorted
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
