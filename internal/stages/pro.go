package stages

import (
	"context"

	"ComedyAnalyzer/internal/callbacks"
	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/engagement"
	"ComedyAnalyzer/internal/stage"
)

func runCallbacks(_ context.Context, in stage.State) (domain.StageOutput, error) {
	s1, err := stage.Lookup[domain.Stage1Output](in, KeyJokes)
	if err != nil {
		return nil, err
	}
	text, err := stage.Lookup[string](in, stage.KeyScriptText)
	if err != nil {
		return nil, err
	}
	return callbacks.Detect(s1.Jokes, text, s1.Timeline), nil
}

func runEngagement(_ context.Context, in stage.State) (domain.StageOutput, error) {
	s1, err := stage.Lookup[domain.Stage1Output](in, KeyJokes)
	if err != nil {
		return nil, err
	}
	gaps, err := stage.Lookup[domain.Stage5Output](in, KeyGaps)
	if err != nil {
		return nil, err
	}
	return engagement.Simulate(s1.Jokes, s1.Timeline, gaps.Gaps), nil
}

func sessionDefinition(id int, name, title, description, outputKey string, inputs ...string) stage.Definition {
	run := stage.Func(func(_ context.Context, in stage.State) (domain.StageOutput, error) {
		return domain.SessionOutput{
			Stage:     id,
			Feature:   name,
			Active:    true,
			ScriptID:  stage.LookupOr(in, stage.KeyScriptID, ""),
			SessionID: stage.LookupOr(in, stage.KeySessionID, ""),
		}, nil
	})

	return stage.Definition{
		ID:             id,
		Name:           name,
		Title:          title,
		Description:    description,
		RequiredInputs: inputs,
		OutputKey:      outputKey,
		Tier:           domain.TierExpert,
		Stage:          run,
	}
}
