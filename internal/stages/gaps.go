package stages

import (
	"context"
	"fmt"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/infrastructure/parser"
	"ComedyAnalyzer/internal/stage"
)

const (
	// MinGapLength is the number of positions without a joke before a stretch counts as a gap.
	MinGapLength = 10
	// CliffLength is the minimum gap length that qualifies as a retention cliff.
	CliffLength = 30
)

// Severity grades a gap by its length in positions.
func Severity(duration int) domain.GapSeverity {
	switch {
	case duration > 40:
		return domain.GapCritical
	case duration > 25:
		return domain.GapHigh
	case duration > 15:
		return domain.GapMedium
	default:
		return domain.GapLow
	}
}

// DiagnoseGaps finds stretches longer than MinGapLength positions between consecutive
// jokes, including the stretches before the first and after the last joke.
func DiagnoseGaps(s1 domain.Stage1Output, dist domain.Stage4Output) domain.Stage5Output {
	out := domain.Stage5Output{Gaps: make([]domain.ComedyGap, 0)}

	end := len(s1.Timeline) - 1
	jokes := sortedJokes(s1.Jokes)
	if len(jokes) > 0 {
		end = max(end, jokes[len(jokes)-1].Position)
	}
	if end < 0 {
		return out
	}

	pageCounts := map[int]int{}
	for _, point := range dist.Distribution {
		pageCounts[point.Page] = point.Count
	}

	bounds := make([]int, 0, len(jokes)+2)
	bounds = append(bounds, 0)
	for _, joke := range jokes {
		bounds = append(bounds, joke.Position)
	}
	bounds = append(bounds, end)

	for i := 1; i < len(bounds); i++ {
		start, stop := bounds[i-1], bounds[i]
		duration := stop - start
		if duration <= MinGapLength {
			continue
		}
		page := domain.PositionPage(start)
		gap := domain.ComedyGap{
			ID:       fmt.Sprintf("gap_%d", len(out.Gaps)+1),
			Start:    start,
			End:      stop,
			Duration: duration,
			Severity: Severity(duration),
			Context:  fmt.Sprintf("page %d carries %d jokes", page, pageCounts[page]),
		}
		out.Gaps = append(out.Gaps, gap)

		out.GapMetrics.LongestGap = max(out.GapMetrics.LongestGap, duration)
		if duration >= CliffLength && (out.RetentionCliff == nil || duration > out.RetentionCliff.Duration) {
			out.RetentionCliff = &domain.RetentionCliff{
				Position:    start,
				Duration:    duration,
				ImpactScore: round1(min(100, float64(duration)*2)),
				Description: fmt.Sprintf("No laughs for %d positions starting at %s", duration, domain.PositionTime(start)),
			}
		}
	}

	out.GapMetrics.TotalGaps = len(out.Gaps)
	if len(out.Gaps) > 0 {
		total := 0
		for _, gap := range out.Gaps {
			total += gap.Duration
		}
		out.GapMetrics.AverageGapLength = round1(float64(total) / float64(len(out.Gaps)))
	}
	return out
}

type punchupTemplate struct {
	humorType  string
	complexity domain.Complexity
	confidence float64
	format     string
}

var punchupTemplates = []punchupTemplate{
	{humorType: "observational", complexity: domain.ComplexityStandard, confidence: 0.7, format: "Point out what everyone is ignoring about %q"},
	{humorType: "escalation", complexity: domain.ComplexityIntermediate, confidence: 0.6, format: "Push %q one step further than is reasonable"},
	{humorType: "callback", complexity: domain.ComplexityAdvanced, confidence: 0.5, format: "Bring back an earlier joke as a twist on %q"},
}

// SuggestPunchups drafts template suggestions for every gap. More severe gaps get more suggestions.
func SuggestPunchups(gaps domain.Stage5Output, lines []parser.Line) domain.Stage6Output {
	out := domain.Stage6Output{GapPunchups: make(map[string][]domain.PunchUpSuggestion, len(gaps.Gaps))}
	for _, gap := range gaps.Gaps {
		anchor := "this moment"
		if gap.Start < len(lines) {
			anchor = preview(lines[gap.Start].Text, 40)
		}

		count := 1
		switch gap.Severity {
		case domain.GapCritical, domain.GapHigh:
			count = 3
		case domain.GapMedium:
			count = 2
		}

		suggestions := make([]domain.PunchUpSuggestion, 0, count)
		for i, tpl := range punchupTemplates[:count] {
			suggestions = append(suggestions, domain.PunchUpSuggestion{
				ID:          fmt.Sprintf("%s_punchup_%d", gap.ID, i+1),
				Line:        fmt.Sprintf(tpl.format, anchor),
				HumorType:   tpl.humorType,
				Complexity:  string(tpl.complexity),
				Confidence:  tpl.confidence,
				Explanation: fmt.Sprintf("Fills a %d-position gap starting at %s", gap.Duration, domain.PositionTime(gap.Start)),
			})
		}
		out.GapPunchups[gap.ID] = suggestions
		out.TotalSuggestions += len(suggestions)
	}
	return out
}

func runGaps(_ context.Context, in stage.State) (domain.StageOutput, error) {
	s1, err := stage.Lookup[domain.Stage1Output](in, KeyJokes)
	if err != nil {
		return nil, err
	}
	dist, err := stage.Lookup[domain.Stage4Output](in, KeyDistribution)
	if err != nil {
		return nil, err
	}
	return DiagnoseGaps(s1, dist), nil
}

func runPunchups(_ context.Context, in stage.State) (domain.StageOutput, error) {
	gaps, err := stage.Lookup[domain.Stage5Output](in, KeyGaps)
	if err != nil {
		return nil, err
	}
	text, err := stage.Lookup[string](in, stage.KeyScriptText)
	if err != nil {
		return nil, err
	}
	lines, _, err := parser.SplitLines(text)
	if err != nil {
		return nil, fmt.Errorf("split script: %w", err)
	}
	return SuggestPunchups(gaps, lines), nil
}
