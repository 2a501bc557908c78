// Package stages holds the analysis catalog registered into a stage.Registry.
package stages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
	"ComedyAnalyzer/internal/stage"
)

// Output keys under which each stage stores its result in the run state.
const (
	KeyJokes                = "jokes"
	KeyMetrics              = "metrics"
	KeyPacing               = "pacing"
	KeyDistribution         = "distribution"
	KeyGaps                 = "gaps"
	KeyPunchups             = "punchups"
	KeyJokeQuality          = "jokeQuality"
	KeyCharacterAnalysis    = "characterAnalysis"
	KeyCallbackAnalysis     = "callbackAnalysis"
	KeyAudienceEngagement   = "audienceEngagement"
	KeyCollaborationSession = "collaborationSession"
	KeyChatSession          = "chatSession"
	KeyBrainstormBoard      = "brainstormBoard"
	KeyComments             = "comments"
)

// Stage ids of the catalog.
const (
	ParseAndDetect = iota + 1
	CoreMetrics
	PacingAnalysis
	LaughDistribution
	GapDiagnosis
	GapPunchups
	JokeQuality
	CharacterAnalytics
	CallbackMapping
	EngagementSimulation
	CollaborativeEditing
	WritersChat
	BrainstormBoard
	CollaborativeCommenting
)

// Deps carries what the catalog executors need.
type Deps struct {
	Parser ports.ScriptParser
	// Store receives every output when the run state carries a job id. Optional.
	Store  ports.StageOutputStore
	Logger *slog.Logger
	Now    func() time.Time
}

// Definitions returns the full catalog in id order.
func Definitions(deps Deps) []stage.Definition {
	return []stage.Definition{
		{
			ID:                ParseAndDetect,
			Name:              "parse_and_detect",
			Title:             "Parse & Detect",
			Description:       "Segments the script into a timeline and detects jokes",
			RequiredInputs:    []string{stage.KeyScriptText},
			OutputKey:         KeyJokes,
			Tier:              domain.TierFree,
			EstimatedDuration: 2 * time.Second,
			Stage:             parseStage(deps.Parser),
		},
		{
			ID:                CoreMetrics,
			Name:              "core_metrics",
			Title:             "Core Metrics",
			Description:       "Laughs per minute, joke density and average complexity",
			RequiredInputs:    []string{KeyJokes},
			OutputKey:         KeyMetrics,
			Tier:              domain.TierFree,
			EstimatedDuration: time.Second,
			Stage:             jokesStage(func(s1 domain.Stage1Output) domain.StageOutput { return ComputeMetrics(s1) }),
		},
		{
			ID:                PacingAnalysis,
			Name:              "pacing_analysis",
			Title:             "Pacing Analysis",
			Description:       "Comedic rhythm and spacing between jokes",
			RequiredInputs:    []string{KeyJokes},
			OutputKey:         KeyPacing,
			Tier:              domain.TierFree,
			EstimatedDuration: time.Second,
			Stage:             jokesStage(func(s1 domain.Stage1Output) domain.StageOutput { return ComputePacing(s1) }),
		},
		{
			ID:                LaughDistribution,
			Name:              "laugh_distribution",
			Title:             "Laugh Distribution",
			Description:       "Where the laughs land per page and per act",
			RequiredInputs:    []string{KeyJokes},
			OutputKey:         KeyDistribution,
			Tier:              domain.TierFree,
			EstimatedDuration: time.Second,
			Stage:             jokesStage(func(s1 domain.Stage1Output) domain.StageOutput { return ComputeDistribution(s1) }),
		},
		{
			ID:                GapDiagnosis,
			Name:              "gap_diagnosis",
			Title:             "Gap Diagnosis",
			Description:       "Stretches without laughs and the biggest retention cliff",
			RequiredInputs:    []string{KeyJokes, KeyDistribution},
			OutputKey:         KeyGaps,
			Tier:              domain.TierPro,
			EstimatedDuration: time.Second,
			Stage:             stage.Func(runGaps),
		},
		{
			ID:                GapPunchups,
			Name:              "gap_punchups",
			Title:             "Gap Punch-ups",
			Description:       "Suggested material for every humor gap",
			RequiredInputs:    []string{KeyGaps, stage.KeyScriptText, KeyJokes},
			OutputKey:         KeyPunchups,
			Tier:              domain.TierPro,
			EstimatedDuration: 3 * time.Second,
			Stage:             stage.Func(runPunchups),
		},
		{
			ID:                JokeQuality,
			Name:              "joke_quality",
			Title:             "Joke Quality",
			Description:       "Classifies every joke and flags weak ones",
			RequiredInputs:    []string{KeyJokes},
			OutputKey:         KeyJokeQuality,
			Tier:              domain.TierPro,
			EstimatedDuration: 2 * time.Second,
			Stage:             jokesStage(func(s1 domain.Stage1Output) domain.StageOutput { return ClassifyJokes(s1.Jokes) }),
		},
		{
			ID:                CharacterAnalytics,
			Name:              "character_analytics",
			Title:             "Character Analytics",
			Description:       "Who gets the laughs and who banters with whom",
			RequiredInputs:    []string{KeyJokes, stage.KeyScriptText},
			OutputKey:         KeyCharacterAnalysis,
			Tier:              domain.TierPro,
			EstimatedDuration: 2 * time.Second,
			Stage:             stage.Func(runCharacters),
		},
		{
			ID:                CallbackMapping,
			Name:              "callback_mapping",
			Title:             "Callback Mapping",
			Description:       "Setups that pay off later and the ones that never do",
			RequiredInputs:    []string{KeyJokes, stage.KeyScriptText},
			OutputKey:         KeyCallbackAnalysis,
			Tier:              domain.TierPro,
			EstimatedDuration: 2 * time.Second,
			Stage:             stage.Func(runCallbacks),
		},
		{
			ID:                EngagementSimulation,
			Name:              "engagement_simulation",
			Title:             "Engagement Simulation",
			Description:       "Predicted audience attention across the script",
			RequiredInputs:    []string{KeyJokes, KeyGaps},
			OutputKey:         KeyAudienceEngagement,
			Tier:              domain.TierPro,
			EstimatedDuration: 2 * time.Second,
			Stage:             stage.Func(runEngagement),
		},
		sessionDefinition(CollaborativeEditing, "collaborative_editing", "Collaborative Editing",
			"Opens a shared editing session", KeyCollaborationSession, stage.KeyScriptID, stage.KeySessionID),
		sessionDefinition(WritersChat, "writers_chat", "Writers Chat",
			"Opens the writers room chat", KeyChatSession, stage.KeySessionID),
		sessionDefinition(BrainstormBoard, "brainstorm_board", "Brainstorm Board",
			"Opens a shared brainstorm board", KeyBrainstormBoard, stage.KeySessionID),
		sessionDefinition(CollaborativeCommenting, "collaborative_commenting", "Collaborative Commenting",
			"Enables inline comments on the script", KeyComments, stage.KeyScriptID),
	}
}

// Register adds the whole catalog to reg. With a store every executor is wrapped by Persisted.
func Register(reg *stage.Registry, deps Deps) error {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	for _, def := range Definitions(deps) {
		if deps.Store != nil {
			def.Stage = Persisted(def.ID, deps.Store, def.Stage, deps.Now, deps.Logger)
		}
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("register catalog: %w", err)
		}
	}
	return nil
}

func parseStage(parser ports.ScriptParser) stage.Stage {
	return stage.Func(func(ctx context.Context, in stage.State) (domain.StageOutput, error) {
		if parser == nil {
			return nil, fmt.Errorf("script parser is not configured")
		}
		text, err := stage.Lookup[string](in, stage.KeyScriptText)
		if err != nil {
			return nil, err
		}
		out, err := parser.Parse(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
		return out, nil
	})
}

// jokesStage adapts a pure function over the stage 1 output.
func jokesStage(fn func(domain.Stage1Output) domain.StageOutput) stage.Stage {
	return stage.Func(func(_ context.Context, in stage.State) (domain.StageOutput, error) {
		s1, err := stage.Lookup[domain.Stage1Output](in, KeyJokes)
		if err != nil {
			return nil, err
		}
		return fn(s1), nil
	})
}
