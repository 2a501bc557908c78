package parser

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ComedyAnalyzer/internal/domain"
	"ComedyAnalyzer/internal/ports"
)

const (
	defaultLinesPerPage = 55
	htmlLineSelector    = "p, li, h1, h2, h3, h4, h5, h6, blockquote, pre, .line"
)

var (
	laughMarkerExpr = regexp.MustCompile(`(?i)\s*[\[(](?:laugh|laughs|laughter|joke|punchline|rimshot)[\])]\s*`)
	jokePrefixExpr  = regexp.MustCompile(`(?i)^joke:\s*`)
	speakerExpr     = regexp.MustCompile(`^([A-Z][A-Z .'\-]{0,40}):\s*(.*)$`)
)

// Line is one non-blank line of a script.
type Line struct {
	Number  int
	Speaker string
	Text    string
}

// ScriptParser segments plain-text or HTML scripts into jokes and a timeline.
// Jokes are the lines carrying an explicit laugh marker such as "[laugh]" or "(laughter)"
// or a "JOKE:" prefix.
type ScriptParser struct {
	linesPerPage int
	logger       *slog.Logger
}

var _ ports.ScriptParser = (*ScriptParser)(nil)

// NewScriptParser builds a parser; linesPerPage defaults to 55 when not positive.
func NewScriptParser(linesPerPage int, logger *slog.Logger) *ScriptParser {
	if linesPerPage <= 0 {
		linesPerPage = defaultLinesPerPage
	}
	return &ScriptParser{linesPerPage: linesPerPage, logger: logger}
}

// Parse builds the stage 1 output. Every non-blank line is one timeline position.
func (p *ScriptParser) Parse(ctx context.Context, scriptText string) (domain.Stage1Output, error) {
	if err := ctx.Err(); err != nil {
		return domain.Stage1Output{}, err
	}

	lines, totalLines, err := SplitLines(scriptText)
	if err != nil {
		return domain.Stage1Output{}, fmt.Errorf("split script: %w", err)
	}

	out := domain.Stage1Output{
		Jokes:    make([]domain.Joke, 0),
		Timeline: make([]domain.TimelinePoint, 0, len(lines)),
	}

	for position, line := range lines {
		page := (line.Number-1)/p.linesPerPage + 1
		point := domain.TimelinePoint{
			Position: position,
			Time:     domain.PositionTime(position),
			Page:     page,
		}

		if text, ok := jokeText(line.Text); ok {
			joke := domain.Joke{
				ID:         fmt.Sprintf("joke_%d", len(out.Jokes)+1),
				Text:       text,
				LineNumber: line.Number,
				Page:       &page,
				Position:   position,
				Complexity: ClassifyComplexity(text),
			}
			out.Jokes = append(out.Jokes, joke)
			point.HasJoke = true
			point.JokeID = joke.ID
		}

		out.Timeline = append(out.Timeline, point)
	}

	totalPages := 0
	if totalLines > 0 {
		totalPages = (totalLines-1)/p.linesPerPage + 1
	}
	out.ScriptMetadata = domain.ScriptMetadata{
		TotalLines:        totalLines,
		TotalPages:        totalPages,
		EstimatedDuration: (len(out.Timeline) + 9) / 10,
	}

	p.debug("script parsed", "lines", len(lines), "jokes", len(out.Jokes), "pages", totalPages)
	return out, nil
}

// SplitLines returns the non-blank lines of a script together with the raw line count.
// HTML input is flattened to the text of its block elements first.
func SplitLines(scriptText string) ([]Line, int, error) {
	raw := scriptText
	if looksLikeHTML(scriptText) {
		extracted, err := htmlText(scriptText)
		if err != nil {
			return nil, 0, err
		}
		raw = extracted
	}

	var (
		lines []Line
		total int
	)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		total++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		line := Line{Number: total, Text: text}
		if m := speakerExpr.FindStringSubmatch(text); m != nil && !strings.EqualFold(m[1], "joke") {
			line.Speaker = strings.TrimSpace(m[1])
			line.Text = strings.TrimSpace(m[2])
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan lines: %w", err)
	}

	return lines, total, nil
}

// ClassifyComplexity grades a joke by its word count.
func ClassifyComplexity(text string) domain.Complexity {
	switch words := len(strings.Fields(text)); {
	case words <= 5:
		return domain.ComplexityBasic
	case words <= 9:
		return domain.ComplexityStandard
	case words <= 14:
		return domain.ComplexityIntermediate
	case words <= 20:
		return domain.ComplexityAdvanced
	default:
		return domain.ComplexityHigh
	}
}

func jokeText(text string) (string, bool) {
	marked := false
	if laughMarkerExpr.MatchString(text) {
		text = laughMarkerExpr.ReplaceAllString(text, " ")
		marked = true
	}
	if jokePrefixExpr.MatchString(text) {
		text = jokePrefixExpr.ReplaceAllString(text, "")
		marked = true
	}
	text = strings.Join(strings.Fields(text), " ")
	return text, marked && text != ""
}

func looksLikeHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}

func htmlText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	blocks := doc.Find(htmlLineSelector)
	blocks.Each(func(_ int, s *goquery.Selection) {
		// Nested matches are emitted by their outermost block.
		if s.ParentsFiltered(htmlLineSelector).Length() > 0 {
			return
		}
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})

	if blocks.Length() == 0 {
		return doc.Find("body").Text(), nil
	}
	return b.String(), nil
}

func (p *ScriptParser) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
