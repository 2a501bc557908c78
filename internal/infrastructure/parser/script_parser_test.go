package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ComedyAnalyzer/internal/domain"
)

const sampleScript = `INT. DINER - NIGHT

GARY: I always order the soup. [laugh]
LINDA: You hate soup.

GARY: That's why I order it, so I never finish it. (laughter)
JOKE: The waiter has been here since the Nixon administration.
`

func TestParsePlainText(t *testing.T) {
	t.Parallel()

	p := NewScriptParser(0, nil)

	out, err := p.Parse(context.Background(), sampleScript)
	require.NoError(t, err)

	require.Len(t, out.Timeline, 5)
	require.Len(t, out.Jokes, 3)

	first := out.Jokes[0]
	assert.Equal(t, "joke_1", first.ID)
	assert.Equal(t, "I always order the soup.", first.Text)
	assert.Equal(t, 3, first.LineNumber)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, domain.ComplexityBasic, first.Complexity)
	require.NotNil(t, first.Page)
	assert.Equal(t, 1, *first.Page)

	assert.Equal(t, "That's why I order it, so I never finish it.", out.Jokes[1].Text)
	assert.Equal(t, 3, out.Jokes[1].Position)
	assert.Equal(t, "The waiter has been here since the Nixon administration.", out.Jokes[2].Text)
	assert.Equal(t, 4, out.Jokes[2].Position)

	assert.True(t, out.Timeline[1].HasJoke)
	assert.Equal(t, "joke_1", out.Timeline[1].JokeID)
	assert.False(t, out.Timeline[2].HasJoke)
	assert.Equal(t, "0:06", out.Timeline[1].Time)

	assert.Equal(t, 7, out.ScriptMetadata.TotalLines)
	assert.Equal(t, 1, out.ScriptMetadata.TotalPages)
	assert.Equal(t, 1, out.ScriptMetadata.EstimatedDuration)
}

func TestParseHTML(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<h1>Pilot</h1>
	<p>GARY: My therapist says I have a preoccupation with vengeance. [laugh]</p>
	<blockquote><p>We'll see about that.</p></blockquote>
	<p>LINDA: Nothing happens here.</p>
	</body></html>`

	out, err := NewScriptParser(0, nil).Parse(context.Background(), html)
	require.NoError(t, err)

	require.Len(t, out.Timeline, 4)
	require.Len(t, out.Jokes, 1)
	assert.Equal(t, "My therapist says I have a preoccupation with vengeance.", out.Jokes[0].Text)
	assert.Equal(t, 1, out.Jokes[0].Position)
	assert.Equal(t, domain.ComplexityStandard, out.Jokes[0].Complexity)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	out, err := NewScriptParser(0, nil).Parse(context.Background(), "   \n\n")
	require.NoError(t, err)

	assert.Empty(t, out.Jokes)
	assert.NotNil(t, out.Jokes)
	assert.Empty(t, out.Timeline)
	assert.Equal(t, 0, out.ScriptMetadata.TotalPages)
}

func TestParsePagination(t *testing.T) {
	t.Parallel()

	script := "line one\nline two\nline three [laugh]\n"
	out, err := NewScriptParser(2, nil).Parse(context.Background(), script)
	require.NoError(t, err)

	require.Len(t, out.Jokes, 1)
	assert.Equal(t, 2, *out.Jokes[0].Page)
	assert.Equal(t, 2, out.Timeline[2].Page)
	assert.Equal(t, 2, out.ScriptMetadata.TotalPages)
}

func TestSplitLinesSpeakers(t *testing.T) {
	t.Parallel()

	lines, total, err := SplitLines("GARY: hello\n\nnarration here\nDR. O'NEIL: hi")
	require.NoError(t, err)

	assert.Equal(t, 4, total)
	require.Len(t, lines, 3)
	assert.Equal(t, Line{Number: 1, Speaker: "GARY", Text: "hello"}, lines[0])
	assert.Equal(t, Line{Number: 3, Text: "narration here"}, lines[1])
	assert.Equal(t, "DR. O'NEIL", lines[2].Speaker)
}

func TestClassifyComplexity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.ComplexityBasic, ClassifyComplexity("one two three"))
	assert.Equal(t, domain.ComplexityStandard, ClassifyComplexity("one two three four five six"))
	assert.Equal(t, domain.ComplexityIntermediate, ClassifyComplexity("a b c d e f g h i j"))
	assert.Equal(t, domain.ComplexityAdvanced, ClassifyComplexity("a b c d e f g h i j k l m n o"))
	assert.Equal(t, domain.ComplexityHigh, ClassifyComplexity("a b c d e f g h i j k l m n o p q r s t u"))
}
