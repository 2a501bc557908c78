package stages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/infrastructure/parser"
)

func timeline(n int) []domain.TimelinePoint {
	points := make([]domain.TimelinePoint, n)
	for i := range points {
		points[i] = domain.TimelinePoint{Position: i, Time: domain.PositionTime(i), Page: domain.PositionPage(i)}
	}
	return points
}

func joke(id string, position int, c domain.Complexity) domain.Joke {
	return domain.Joke{ID: id, Text: "joke " + id, LineNumber: position + 1, Position: position, Complexity: c}
}

func threeJokes() domain.Stage1Output {
	return domain.Stage1Output{
		Jokes: []domain.Joke{
			joke("a", 2, domain.ComplexityBasic),
			joke("b", 5, domain.ComplexityStandard),
			joke("c", 15, domain.ComplexityHigh),
		},
		Timeline: timeline(20),
	}
}

func TestComputeMetrics(t *testing.T) {
	t.Parallel()

	out := ComputeMetrics(threeJokes())
	assert.Equal(t, domain.Stage2Output{
		LaughsPerMinute:       1.5,
		JokeDensity:           15,
		TotalJokes:            3,
		AverageJokeComplexity: 2.7,
	}, out)

	assert.Equal(t, domain.Stage2Output{}, ComputeMetrics(domain.Stage1Output{}))
}

func TestComputePacing(t *testing.T) {
	t.Parallel()

	out := ComputePacing(threeJokes())
	assert.Equal(t, 78.5, out.PacingScore)
	assert.Equal(t, 6.5, out.AverageTimeBetweenJokes)
	require.Len(t, out.Rhythm, 3)
	assert.Equal(t, domain.RhythmPoint{Position: 15, Intensity: 2.0, Time: "1:30"}, out.Rhythm[2])

	single := ComputePacing(domain.Stage1Output{Jokes: []domain.Joke{joke("a", 3, domain.ComplexityBasic)}})
	assert.Zero(t, single.PacingScore)
	assert.Len(t, single.Rhythm, 1)
}

func TestComputeDistribution(t *testing.T) {
	t.Parallel()

	out := ComputeDistribution(threeJokes())
	assert.Equal(t, []domain.DistributionPoint{
		{Position: 0, Count: 2, Page: 1},
		{Position: 10, Count: 1, Page: 2},
	}, out.Distribution)
	assert.Equal(t, []domain.ActBreakdown{
		{Act: 1, JokeCount: 2, Percentage: 66.7},
		{Act: 2, JokeCount: 0, Percentage: 0},
		{Act: 3, JokeCount: 1, Percentage: 33.3},
	}, out.ActBreakdown)
}

func TestDiagnoseGaps(t *testing.T) {
	t.Parallel()

	s1 := domain.Stage1Output{
		Jokes: []domain.Joke{
			joke("a", 5, domain.ComplexityBasic),
			joke("b", 20, domain.ComplexityBasic),
			joke("c", 55, domain.ComplexityBasic),
		},
		Timeline: timeline(60),
	}
	dist := domain.Stage4Output{Distribution: []domain.DistributionPoint{{Page: 1, Count: 1}, {Page: 3, Count: 1}}}

	out := DiagnoseGaps(s1, dist)
	assert.Equal(t, []domain.ComedyGap{
		{ID: "gap_1", Start: 5, End: 20, Duration: 15, Severity: domain.GapLow, Context: "page 1 carries 1 jokes"},
		{ID: "gap_2", Start: 20, End: 55, Duration: 35, Severity: domain.GapHigh, Context: "page 3 carries 1 jokes"},
	}, out.Gaps)
	assert.Equal(t, &domain.RetentionCliff{
		Position:    20,
		Duration:    35,
		ImpactScore: 70,
		Description: "No laughs for 35 positions starting at 2:00",
	}, out.RetentionCliff)
	assert.Equal(t, domain.GapMetrics{TotalGaps: 2, LongestGap: 35, AverageGapLength: 25}, out.GapMetrics)
}

func TestDiagnoseGapsEdges(t *testing.T) {
	t.Parallel()

	empty := DiagnoseGaps(domain.Stage1Output{}, domain.Stage4Output{})
	assert.NotNil(t, empty.Gaps)
	assert.Empty(t, empty.Gaps)
	assert.Nil(t, empty.RetentionCliff)

	noJokes := DiagnoseGaps(domain.Stage1Output{Timeline: timeline(15)}, domain.Stage4Output{})
	require.Len(t, noJokes.Gaps, 1)
	assert.Equal(t, 14, noJokes.Gaps[0].Duration)
	assert.Nil(t, noJokes.RetentionCliff)
}

func TestSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.GapLow, Severity(11))
	assert.Equal(t, domain.GapMedium, Severity(16))
	assert.Equal(t, domain.GapHigh, Severity(26))
	assert.Equal(t, domain.GapCritical, Severity(41))
}

func TestSuggestPunchups(t *testing.T) {
	t.Parallel()

	gaps := domain.Stage5Output{Gaps: []domain.ComedyGap{
		{ID: "gap_1", Start: 0, Duration: 12, Severity: domain.GapLow},
		{ID: "gap_2", Start: 40, Duration: 45, Severity: domain.GapCritical},
	}}
	lines := []parser.Line{{Number: 1, Text: "The office is quiet"}}

	out := SuggestPunchups(gaps, lines)
	assert.Equal(t, 4, out.TotalSuggestions)
	require.Len(t, out.GapPunchups["gap_1"], 1)
	assert.Equal(t, `Point out what everyone is ignoring about "The office is quiet"`, out.GapPunchups["gap_1"][0].Line)
	require.Len(t, out.GapPunchups["gap_2"], 3)
	assert.Equal(t, "gap_2_punchup_3", out.GapPunchups["gap_2"][2].ID)
	assert.Contains(t, out.GapPunchups["gap_2"][0].Line, "this moment")
}

func TestClassifyJokes(t *testing.T) {
	t.Parallel()

	out := ClassifyJokes(threeJokes().Jokes)
	assert.Equal(t, domain.QualityDistribution{Basic: 1, Standard: 1, High: 1}, out.Distribution)
	assert.Equal(t, 1, out.FlaggedCount)
	require.Len(t, out.Jokes, 3)
	assert.True(t, out.Jokes[0].FlaggedForImprovement)
	assert.Equal(t, "Basic", out.Jokes[0].ClassificationTier)
	assert.Equal(t, "High", out.Jokes[2].ClassificationTier)
	assert.Equal(t, 100.0, out.Jokes[2].QualityScore)
}

func TestAnalyzeCharacters(t *testing.T) {
	t.Parallel()

	lines := []parser.Line{
		{Number: 1, Speaker: "ALICE", Text: "So I bought a duck."},
		{Number: 2, Speaker: "BOB", Text: "Does it quack in French?"},
		{Number: 3, Speaker: "ALICE", Text: "Only on weekends."},
		{Number: 4, Speaker: "BOB", Text: "Figures."},
		{Number: 5, Text: "Lights dim."},
		{Number: 6, Speaker: "CAROL", Text: "Hi."},
	}
	jokes := []domain.Joke{{ID: "j1", LineNumber: 2}, {ID: "j2", LineNumber: 3}}

	out := AnalyzeCharacters(jokes, lines)
	assert.Equal(t, []domain.CharacterAnalysis{
		{Name: "ALICE", TotalLines: 2, TotalJokes: 1, JokePercentage: 50, HumorScoreContribution: 50, Role: "lead comedian"},
		{Name: "BOB", TotalLines: 2, TotalJokes: 1, JokePercentage: 50, HumorScoreContribution: 50, Role: "lead comedian"},
		{Name: "CAROL", TotalLines: 1, Role: "straight man"},
	}, out.Characters)
	assert.Equal(t, []domain.RelationshipAnalysis{{
		Pair:          [2]string{"ALICE", "BOB"},
		BanterMoments: 2,
		Dynamic:       "occasional banter",
		Description:   "ALICE and BOB trade 2 laughs",
	}}, out.Relationships)
	assert.Equal(t, "ALICE", out.TopComedian)
	assert.Equal(t, "ALICE drives 50.0% of the attributed laughs", out.Insights)

	none := AnalyzeCharacters(nil, nil)
	assert.Empty(t, none.Characters)
	assert.Equal(t, "No speaker-attributed jokes detected", none.Insights)
}
