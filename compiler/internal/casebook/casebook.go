// Package casebook reads compiler cases written as Markdown.
//
// A case starts at a "Case: name" heading. It holds exactly one "o" fence with the source
// and any number of expectation fences:
//
//	ir      every non-blank line occurs, in order, inside a line of the generated IR
//	format  the canonical printing of the parsed source
//	error   the message of the error compilation fails with
package casebook

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const SourceFence = "o"

type ExpectKind string

const (
	ExpectIR     ExpectKind = "ir"
	ExpectFormat ExpectKind = "format"
	ExpectError  ExpectKind = "error"
)

type Expect struct {
	Kind    ExpectKind
	Content string
	Line    int
}

type Case struct {
	Name    string
	Source  string
	Expects []Expect
}

// Expecting returns the expectations of kind k.
func (c *Case) Expecting(k ExpectKind) []Expect {
	var expects []Expect
	for _, expect := range c.Expects {
		if expect.Kind == k {
			expects = append(expects, expect)
		}
	}
	return expects
}

// Extract returns the cases of a Markdown document in document order.
func Extract(markdown string) ([]*Case, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var cases []*Case
	var current *Case
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := headingText(n, source)
			if !strings.HasPrefix(heading, "Case: ") {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validate(current); err != nil {
					return ast.WalkStop, err
				}
				cases = append(cases, current)
			}
			current = &Case{Name: strings.TrimPrefix(heading, "Case: ")}
		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			line := lineOf(n, source)
			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence outside of a case", line, language)
				}
				return ast.WalkContinue, nil
			}
			content := strings.TrimRight(fenceContent(n, source), "\n")
			switch kind := ExpectKind(language); kind {
			case SourceFence:
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: case '%s' has more than one source fence", line, current.Name)
				}
				current.Source = content
			case ExpectIR, ExpectFormat, ExpectError:
				current.Expects = append(current.Expects, Expect{Kind: kind, Content: content, Line: line})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence '%s' in case '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if current != nil {
		if err := validate(current); err != nil {
			return nil, err
		}
		cases = append(cases, current)
	}
	return cases, nil
}

// MatchIR reports the first expected line missing from ir. Expected lines are matched in
// order, each against a later IR line than the previous one.
func MatchIR(expected string, ir string) (string, bool) {
	lines := strings.Split(ir, "\n")
	pos := 0
	for _, want := range strings.Split(expected, "\n") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for pos < len(lines) && !strings.Contains(lines[pos], want) {
			pos++
		}
		if pos == len(lines) {
			return want, false
		}
		pos++
	}
	return "", true
}

func validate(c *Case) error {
	if c.Source == "" {
		return fmt.Errorf("case '%s' has no source fence", c.Name)
	}
	if len(c.Expects) == 0 {
		return fmt.Errorf("case '%s' has no expectation fences", c.Name)
	}
	return nil
}

func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineOf(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:start], []byte("\n")) + 1
}
