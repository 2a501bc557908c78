package stages

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/infrastructure/parser"
	"ComedyAnalyzer/internal/stage"
)

const (
	leadShare          = 40.0
	strongRapportBeats = 3
)

// AnalyzeCharacters attributes jokes to the speaker of their line and counts banter,
// a joke landing right after another speaker's line.
func AnalyzeCharacters(jokes []domain.Joke, lines []parser.Line) domain.Stage8Output {
	jokeLines := make(map[int]bool, len(jokes))
	for _, joke := range jokes {
		jokeLines[joke.LineNumber] = true
	}

	type tally struct{ lines, jokes int }
	tallies := map[string]*tally{}
	banter := map[[2]string]int{}
	attributed := 0
	previous := ""

	for _, line := range lines {
		if line.Speaker == "" {
			continue
		}
		t, ok := tallies[line.Speaker]
		if !ok {
			t = &tally{}
			tallies[line.Speaker] = t
		}
		t.lines++
		if jokeLines[line.Number] {
			t.jokes++
			attributed++
			if previous != "" && previous != line.Speaker {
				banter[pairOf(previous, line.Speaker)]++
			}
		}
		previous = line.Speaker
	}

	out := domain.Stage8Output{
		Characters:    make([]domain.CharacterAnalysis, 0, len(tallies)),
		Relationships: make([]domain.RelationshipAnalysis, 0, len(banter)),
	}
	for name, t := range tallies {
		c := domain.CharacterAnalysis{
			Name:           name,
			TotalLines:     t.lines,
			TotalJokes:     t.jokes,
			JokePercentage: round1(float64(t.jokes) * 100 / float64(t.lines)),
		}
		if attributed > 0 {
			c.HumorScoreContribution = round1(float64(t.jokes) * 100 / float64(attributed))
		}
		switch {
		case c.HumorScoreContribution >= leadShare:
			c.Role = "lead comedian"
		case t.jokes > 0:
			c.Role = "supporting"
		default:
			c.Role = "straight man"
		}
		out.Characters = append(out.Characters, c)
	}
	slices.SortFunc(out.Characters, func(a, b domain.CharacterAnalysis) int {
		if n := cmp.Compare(b.TotalJokes, a.TotalJokes); n != 0 {
			return n
		}
		return cmp.Compare(a.Name, b.Name)
	})

	for pair, beats := range banter {
		r := domain.RelationshipAnalysis{Pair: pair, BanterMoments: beats, Dynamic: "occasional banter"}
		if beats >= strongRapportBeats {
			r.Dynamic = "strong rapport"
		}
		r.Description = fmt.Sprintf("%s and %s trade %d laughs", pair[0], pair[1], beats)
		out.Relationships = append(out.Relationships, r)
	}
	slices.SortFunc(out.Relationships, func(a, b domain.RelationshipAnalysis) int {
		if n := cmp.Compare(b.BanterMoments, a.BanterMoments); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Pair[0], b.Pair[0]); n != 0 {
			return n
		}
		return cmp.Compare(a.Pair[1], b.Pair[1])
	})

	if len(out.Characters) > 0 && out.Characters[0].TotalJokes > 0 {
		top := out.Characters[0]
		out.TopComedian = top.Name
		out.Insights = fmt.Sprintf("%s drives %.1f%% of the attributed laughs", top.Name, top.HumorScoreContribution)
	} else {
		out.Insights = "No speaker-attributed jokes detected"
	}
	return out
}

func pairOf(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func runCharacters(_ context.Context, in stage.State) (domain.StageOutput, error) {
	s1, err := stage.Lookup[domain.Stage1Output](in, KeyJokes)
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
	return AnalyzeCharacters(s1.Jokes, lines), nil
}
