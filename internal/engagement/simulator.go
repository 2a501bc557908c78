// Package engagement models predicted audience attention across a script.
package engagement

import (
	"fmt"
	"math"
	"sort"

	"ComedyAnalyzer/internal/domain"
)

const (
	// DefaultDuration is used when the script carries no timeline.
	DefaultDuration = 100
	// TargetSamples is the approximate number of points on a curve.
	TargetSamples = 50
	// BaselineScore is the engagement of a window before jokes and decay.
	BaselineScore = 5.0
	// PeakThreshold is the minimum score of a reported peak.
	PeakThreshold = 7.5
	// MaxPeaks caps the reported peaks.
	MaxPeaks = 3
	// LowThreshold marks a point as part of a low-engagement run.
	LowThreshold = 4.0

	maxScore = 10.0
	minScore = 0.0

	defaultJokeWeight = 1.0
	noPriorJokeDecay  = 0.8
	longGapDecay      = 0.5
	shortGapDecay     = 0.7
	longGap           = 20
	shortGap          = 10
)

var complexityWeights = map[domain.Complexity]float64{
	domain.ComplexityHigh:         2.0,
	domain.ComplexityAdvanced:     1.5,
	domain.ComplexityIntermediate: 1.0,
	domain.ComplexityStandard:     0.7,
	domain.ComplexityBasic:        0.5,
}

// Simulate builds the engagement curve for jokes (sorted by Position) over the timeline
// and derives peaks, low segments and metrics from it. gaps is accepted for parity with
// the stage inputs and does not alter the curve.
func Simulate(jokes []domain.Joke, timeline []domain.TimelinePoint, gaps []domain.ComedyGap) domain.EngagementAnalysis {
	duration, segmentSize := segmentation(timeline)

	curve := make([]domain.EngagementPoint, 0, duration/segmentSize+1)
	for start := 0; start < duration; start += segmentSize {
		end := min(start+segmentSize, duration)

		score := BaselineScore
		for _, joke := range jokes {
			if joke.Position >= start && joke.Position < end {
				score += JokeWeight(joke.Complexity)
			}
		}
		score *= DecayFactor(start, jokes)

		curve = append(curve, newPoint(start, clamp(score)))
	}

	scores := make([]float64, len(curve))
	for i, point := range curve {
		scores[i] = point.Score
	}

	return domain.EngagementAnalysis{
		Curve:                 curve,
		PeakMoments:           findPeaks(curve, jokes, segmentSize),
		LowEngagementSegments: findLowSegments(curve, segmentSize),
		Metrics: domain.EngagementMetrics{
			AverageEngagement: round1(mean(scores)),
			PeakEngagement:    round1(maxOf(scores)),
			LowestEngagement:  round1(minOf(scores)),
			Volatility:        round1(Volatility(scores)),
		},
	}
}

// Preview is the cheap curve shown before a full simulation: no decay, and every joke
// weighs 1.0 except High-Complexity jokes which weigh 2.0.
func Preview(jokes []domain.Joke, timeline []domain.TimelinePoint) []domain.EngagementPoint {
	duration, segmentSize := segmentation(timeline)

	curve := make([]domain.EngagementPoint, 0, duration/segmentSize+1)
	for start := 0; start < duration; start += segmentSize {
		end := min(start+segmentSize, duration)

		score := BaselineScore
		for _, joke := range jokes {
			if joke.Position < start || joke.Position >= end {
				continue
			}
			if joke.Complexity == domain.ComplexityHigh {
				score += 2.0
			} else {
				score += 1.0
			}
		}

		curve = append(curve, newPoint(start, clamp(score)))
	}
	return curve
}

// SegmentSize returns the window width used for a timeline.
func SegmentSize(timeline []domain.TimelinePoint) int {
	_, size := segmentation(timeline)
	return size
}

// JokeWeight maps a complexity to its engagement boost.
func JokeWeight(c domain.Complexity) float64 {
	if weight, ok := complexityWeights[c]; ok {
		return weight
	}
	return defaultJokeWeight
}

// DecayFactor scales a window's score by the time elapsed since the last joke before position.
func DecayFactor(position int, jokes []domain.Joke) float64 {
	last, found := 0, false
	for _, joke := range jokes {
		if joke.Position < position && (!found || joke.Position > last) {
			last, found = joke.Position, true
		}
	}
	if !found {
		return noPriorJokeDecay
	}

	switch since := position - last; {
	case since > longGap:
		return longGapDecay
	case since > shortGap:
		return shortGapDecay
	default:
		return 1.0
	}
}

// Volatility is the mean absolute change between consecutive scores.
func Volatility(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(scores); i++ {
		total += math.Abs(scores[i] - scores[i-1])
	}
	return total / float64(len(scores)-1)
}

// FormatDuration renders a span of positions for humans.
func FormatDuration(span int) string {
	minutes := span / 10
	seconds := (span % 10) * 6

	switch {
	case minutes == 0:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds == 0 && minutes == 1:
		return "1 minute"
	case seconds == 0:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

func segmentation(timeline []domain.TimelinePoint) (int, int) {
	duration := len(timeline)
	if duration == 0 {
		duration = DefaultDuration
	}
	return duration, max(1, duration/TargetSamples)
}

func newPoint(position int, score float64) domain.EngagementPoint {
	return domain.EngagementPoint{
		Position: position,
		Score:    round1(score),
		Time:     domain.PositionTime(position),
		Page:     domain.PositionPage(position),
	}
}

func findPeaks(curve []domain.EngagementPoint, jokes []domain.Joke, segmentSize int) []domain.PeakMoment {
	sorted := make([]domain.EngagementPoint, len(curve))
	copy(sorted, curve)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	peaks := make([]domain.PeakMoment, 0, MaxPeaks)
	for _, point := range sorted[:min(MaxPeaks, len(sorted))] {
		if point.Score < PeakThreshold {
			continue
		}

		var nearby []domain.Joke
		for _, joke := range jokes {
			if abs(joke.Position-point.Position) < segmentSize {
				nearby = append(nearby, joke)
			}
		}

		peak := domain.PeakMoment{
			Position:    point.Position,
			Score:       point.Score,
			Description: peakDescription(point, len(nearby)),
			Page:        point.Page,
		}
		if len(nearby) > 0 {
			line := nearby[0].LineNumber
			peak.LineNumber = &line
		}
		peaks = append(peaks, peak)
	}
	return peaks
}

// findLowSegments emits runs below LowThreshold that span at least two segments.
// A run is closed by the first point at or above the threshold; a run still open
// at the end of the curve has no measurable end and is not reported.
func findLowSegments(curve []domain.EngagementPoint, segmentSize int) []domain.LowEngagementSegment {
	segments := make([]domain.LowEngagementSegment, 0)
	runStart := -1

	for i, point := range curve {
		if point.Score < LowThreshold {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart < 0 {
			continue
		}

		start, end := curve[runStart].Position, point.Position
		if span := end - start; span >= segmentSize*2 {
			total := 0.0
			for _, p := range curve[runStart:i] {
				total += p.Score
			}
			segments = append(segments, domain.LowEngagementSegment{
				Start:        start,
				End:          end,
				Duration:     FormatDuration(span),
				Description:  fmt.Sprintf("Low engagement period from %s to %s - consider adding jokes or callbacks here", domain.PositionTime(start), domain.PositionTime(end)),
				AverageScore: round1(total / float64(i-runStart)),
			})
		}
		runStart = -1
	}
	return segments
}

func peakDescription(point domain.EngagementPoint, jokeCount int) string {
	if jokeCount == 0 {
		return fmt.Sprintf("Strong engagement around %s", point.Time)
	}

	laughs, jokes := "Big laugh", "joke"
	if jokeCount > 1 {
		laughs = "Big laughs"
	}
	if jokeCount != 1 {
		jokes = "jokes"
	}
	return fmt.Sprintf("%s around %s with %d %s in quick succession", laughs, point.Time, jokeCount, jokes)
}

func clamp(score float64) float64 {
	return math.Min(maxScore, math.Max(minScore, score))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	result := values[0]
	for _, v := range values[1:] {
		result = math.Max(result, v)
	}
	return result
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	result := values[0]
	for _, v := range values[1:] {
		result = math.Min(result, v)
	}
	return result
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
