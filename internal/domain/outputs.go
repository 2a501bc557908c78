package domain

// StageOutput is the closed set of typed values a stage may produce.
// StageID reports which catalog stage owns the shape.
type StageOutput interface {
	StageID() int
}

// ScriptMetadata summarizes the parsed script.
type ScriptMetadata struct {
	TotalLines        int `json:"totalLines"`
	TotalPages        int `json:"totalPages"`
	EstimatedDuration int `json:"estimatedDuration"`
}

// Stage1Output is the parsed script: jokes plus the progression timeline.
type Stage1Output struct {
	Jokes          []Joke          `json:"jokes"`
	Timeline       []TimelinePoint `json:"timeline"`
	ScriptMetadata ScriptMetadata  `json:"scriptMetadata"`
}

// Stage2Output carries headline metrics.
type Stage2Output struct {
	LaughsPerMinute       float64 `json:"laughsPerMinute"`
	JokeDensity           float64 `json:"jokeDensity"`
	TotalJokes            int     `json:"totalJokes"`
	AverageJokeComplexity float64 `json:"averageJokeComplexity"`
}

// RhythmPoint is one beat of the pacing rhythm.
type RhythmPoint struct {
	Position  int     `json:"position"`
	Intensity float64 `json:"intensity"`
	Time      string  `json:"time"`
}

// Stage3Output describes comedic timing.
type Stage3Output struct {
	PacingScore             float64       `json:"pacingScore"`
	Rhythm                  []RhythmPoint `json:"rhythm"`
	AverageTimeBetweenJokes float64       `json:"averageTimeBetweenJokes"`
}

// DistributionPoint counts jokes on a page.
type DistributionPoint struct {
	Position int `json:"position"`
	Count    int `json:"count"`
	Page     int `json:"page"`
}

// ActBreakdown counts jokes per act.
type ActBreakdown struct {
	Act        int     `json:"act"`
	JokeCount  int     `json:"jokeCount"`
	Percentage float64 `json:"percentage"`
}

// Stage4Output maps where laughs occur.
type Stage4Output struct {
	Distribution []DistributionPoint `json:"distribution"`
	ActBreakdown []ActBreakdown      `json:"actBreakdown,omitempty"`
}

// GapSeverity grades a stretch without jokes.
type GapSeverity string

const (
	GapLow      GapSeverity = "low"
	GapMedium   GapSeverity = "medium"
	GapHigh     GapSeverity = "high"
	GapCritical GapSeverity = "critical"
)

// ComedyGap is a stretch of the script without jokes.
type ComedyGap struct {
	ID       string      `json:"id"`
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Duration int         `json:"duration"`
	Severity GapSeverity `json:"severity"`
	Context  string      `json:"context,omitempty"`
}

// RetentionCliff marks the gap most likely to lose the audience.
type RetentionCliff struct {
	Position    int     `json:"position"`
	Duration    int     `json:"duration"`
	ImpactScore float64 `json:"impactScore"`
	Description string  `json:"description"`
}

// GapMetrics aggregates gap statistics.
type GapMetrics struct {
	TotalGaps        int     `json:"totalGaps"`
	LongestGap       int     `json:"longestGap"`
	AverageGapLength float64 `json:"averageGapLength"`
}

// Stage5Output lists humor gaps.
type Stage5Output struct {
	Gaps           []ComedyGap     `json:"gaps"`
	RetentionCliff *RetentionCliff `json:"retentionCliff"`
	GapMetrics     GapMetrics      `json:"gapMetrics"`
}

// PunchUpSuggestion proposes material for a gap.
type PunchUpSuggestion struct {
	ID          string  `json:"id"`
	Line        string  `json:"line"`
	HumorType   string  `json:"humorType"`
	Complexity  string  `json:"complexity"`
	Confidence  float64 `json:"confidence,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

// Stage6Output groups punch-ups by gap id.
type Stage6Output struct {
	GapPunchups      map[string][]PunchUpSuggestion `json:"gapPunchups"`
	TotalSuggestions int                            `json:"totalSuggestions"`
}

// EnrichedJoke is a joke with its quality classification.
type EnrichedJoke struct {
	Joke
	ClassificationTier    string  `json:"classificationTier"`
	FlaggedForImprovement bool    `json:"flaggedForImprovement"`
	ImprovementSuggestion string  `json:"improvementSuggestion,omitempty"`
	QualityScore          float64 `json:"qualityScore,omitempty"`
}

// QualityDistribution counts jokes per classification tier.
type QualityDistribution struct {
	Basic        int `json:"Basic"`
	Standard     int `json:"Standard"`
	Intermediate int `json:"Intermediate"`
	Advanced     int `json:"Advanced"`
	High         int `json:"High"`
}

// Stage7Output classifies every joke.
type Stage7Output struct {
	Jokes        []EnrichedJoke      `json:"jokes"`
	Distribution QualityDistribution `json:"distribution"`
	FlaggedCount int                 `json:"flaggedCount"`
}

// CharacterAnalysis summarizes one speaker.
type CharacterAnalysis struct {
	Name                   string  `json:"name"`
	TotalLines             int     `json:"totalLines"`
	TotalJokes             int     `json:"totalJokes"`
	JokePercentage         float64 `json:"jokePercentage"`
	HumorScoreContribution float64 `json:"humorScoreContribution"`
	Role                   string  `json:"role,omitempty"`
}

// RelationshipAnalysis summarizes banter between two speakers.
type RelationshipAnalysis struct {
	Pair          [2]string `json:"pair"`
	BanterMoments int       `json:"banterMoments"`
	Dynamic       string    `json:"dynamic"`
	Description   string    `json:"description,omitempty"`
}

// Stage8Output is the character breakdown.
type Stage8Output struct {
	Characters    []CharacterAnalysis    `json:"characters"`
	Relationships []RelationshipAnalysis `json:"relationships"`
	Insights      string                 `json:"insights"`
	TopComedian   string                 `json:"topComedian,omitempty"`
}

// SessionOutput describes an activated collaboration feature (stages 11-14).
type SessionOutput struct {
	Stage     int    `json:"-"`
	Feature   string `json:"feature"`
	Active    bool   `json:"active"`
	ScriptID  string `json:"scriptId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func (Stage1Output) StageID() int { return 1 }
func (Stage2Output) StageID() int { return 2 }
func (Stage3Output) StageID() int { return 3 }
func (Stage4Output) StageID() int { return 4 }
func (Stage5Output) StageID() int { return 5 }
func (Stage6Output) StageID() int { return 6 }
func (Stage7Output) StageID() int { return 7 }
func (Stage8Output) StageID() int { return 8 }
func (CallbackAnalysis) StageID() int { return 9 }
func (EngagementAnalysis) StageID() int { return 10 }
func (s SessionOutput) StageID() int { return s.Stage }
