package domain

// EngagementPoint is one sample of the predicted attention curve.
type EngagementPoint struct {
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Time     string  `json:"time"`
	Page     int     `json:"page,omitempty"`
}

// PeakMoment is a high point derived from the curve.
type PeakMoment struct {
	Position    int     `json:"position"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
	Page        int     `json:"page,omitempty"`
	LineNumber  *int    `json:"lineNumber,omitempty"`
}

// LowEngagementSegment is a sustained dip derived from the curve.
type LowEngagementSegment struct {
	Start        int     `json:"start"`
	End          int     `json:"end"`
	Duration     string  `json:"duration"`
	Description  string  `json:"description"`
	AverageScore float64 `json:"averageScore"`
}

// EngagementMetrics aggregates curve statistics.
type EngagementMetrics struct {
	AverageEngagement float64 `json:"averageEngagement"`
	PeakEngagement    float64 `json:"peakEngagement"`
	LowestEngagement  float64 `json:"lowestEngagement"`
	Volatility        float64 `json:"volatility"`
}

// EngagementAnalysis is the stage 10 output.
type EngagementAnalysis struct {
	Curve                 []EngagementPoint      `json:"curve"`
	PeakMoments           []PeakMoment           `json:"peakMoments"`
	LowEngagementSegments []LowEngagementSegment `json:"lowEngagementSegments"`
	Metrics               EngagementMetrics      `json:"metrics"`
}
