package domain

// Relation classifies how a later line echoes its setup.
type Relation string

const (
	RelationSamePunchline Relation = "same_punchline_phrase"
	RelationSituational   Relation = "situational_echo"
	RelationCharacter     Relation = "character_callback"
	RelationThematic      Relation = "thematic_callback"
)

// Impact grades a missed callback opportunity.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// CallbackSetup is the origin line of a callback cluster.
type CallbackSetup struct {
	Line       string `json:"line"`
	LineNumber int    `json:"lineNumber"`
	Page       int    `json:"page"`
	JokeID     string `json:"jokeId"`
}

// CallbackReference is a later line echoing a setup.
type CallbackReference struct {
	LineNumber int      `json:"lineNumber"`
	Page       int      `json:"page"`
	Relation   Relation `json:"relation"`
	Similarity float64  `json:"similarity"`
}

// CallbackCluster groups a setup with its payoffs.
type CallbackCluster struct {
	ID         string              `json:"id"`
	Setup      CallbackSetup       `json:"setup"`
	References []CallbackReference `json:"references"`
}

// CallbackMetrics aggregates callback usage.
type CallbackMetrics struct {
	CallbackCount            int     `json:"callbackCount"`
	CallbackFrequencyPercent float64 `json:"callbackFrequencyPercent"`
	TotalJokes               int     `json:"totalJokes"`
	AverageCallbacksPerSetup float64 `json:"averageCallbacksPerSetup"`
}

// MissedOpportunity is a promising setup that never pays off.
type MissedOpportunity struct {
	Setup           string `json:"setup"`
	LineNumber      int    `json:"lineNumber"`
	Page            int    `json:"page"`
	Suggestion      string `json:"suggestion"`
	PotentialImpact Impact `json:"potentialImpact"`
}

// CallbackAnalysis is the stage 9 output.
type CallbackAnalysis struct {
	Callbacks           []CallbackCluster   `json:"callbacks"`
	Metrics             CallbackMetrics     `json:"metrics"`
	MissedOpportunities []MissedOpportunity `json:"missedOpportunities"`
}
