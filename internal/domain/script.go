package domain

import "fmt"

// Complexity ranks how elaborate a joke's construction is.
type Complexity string

const (
	ComplexityBasic        Complexity = "Basic"
	ComplexityStandard     Complexity = "Standard"
	ComplexityIntermediate Complexity = "Intermediate"
	ComplexityAdvanced     Complexity = "Advanced"
	ComplexityHigh         Complexity = "High-Complexity"
)

// Rank maps a complexity onto 1..5; unknown values rank 0.
func (c Complexity) Rank() int {
	switch c {
	case ComplexityBasic:
		return 1
	case ComplexityStandard:
		return 2
	case ComplexityIntermediate:
		return 3
	case ComplexityAdvanced:
		return 4
	case ComplexityHigh:
		return 5
	default:
		return 0
	}
}

// Joke is a single detected comedic beat. Sequences of jokes are sorted by Position.
type Joke struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	LineNumber int        `json:"lineNumber"`
	Page       *int       `json:"page,omitempty"`
	Position   int        `json:"position"`
	Complexity Complexity `json:"complexity"`
	Type       string     `json:"type,omitempty"`
}

// PageOr returns the joke's page, or fallback when the parser did not assign one.
func (j Joke) PageOr(fallback int) int {
	if j.Page != nil && *j.Page != 0 {
		return *j.Page
	}
	return fallback
}

// TimelinePoint is one unit of script progression.
type TimelinePoint struct {
	Position int    `json:"position"`
	Time     string `json:"time"`
	Page     int    `json:"page"`
	HasJoke  bool   `json:"hasJoke"`
	JokeID   string `json:"jokeId,omitempty"`
}

// Tier is an access level gating which stages a caller may run or view.
type Tier string

const (
	TierFree   Tier = "free"
	TierPro    Tier = "pro"
	TierExpert Tier = "expert"
)

// ParseTier validates a tier label. The empty string is not a caller tier.
func ParseTier(value string) (Tier, bool) {
	switch Tier(value) {
	case TierFree, TierPro, TierExpert:
		return Tier(value), true
	default:
		return "", false
	}
}

// PositionTime renders a timeline position as minutes:seconds, ten positions per minute.
func PositionTime(position int) string {
	return fmt.Sprintf("%d:%02d", position/10, (position%10)*6)
}

// PositionPage is the page a timeline position falls on, ten positions per page.
func PositionPage(position int) int {
	return position/10 + 1
}
