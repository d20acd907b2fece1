package markdown

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// referencePattern matches a Slack user or channel reference: <@U...> or
// <#C...>. It never triggers on plain angle-bracket autolinks because those
// start with a scheme or bare URL character, not '@' or '#'.
var referencePattern = regexp.MustCompile(`^<((@U|#C)[A-Z0-9]+)>`)

// KindReference is the goldmark node kind for a parsed Slack reference.
var KindReference = ast.NewNodeKind("SlackReference")

// ReferenceNode is an inline leaf produced by the reference parser. It is
// never given children: the bracketed token is opaque, matching the
// original Marko extension's `parse_children = False`.
type ReferenceNode struct {
	ast.BaseInline
	Token string // "@U0123ABCD" or "#C0123ABCD", brackets stripped
}

// Kind implements ast.Node.
func (n *ReferenceNode) Kind() ast.NodeKind { return KindReference }

// Dump implements ast.Node.
func (n *ReferenceNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Token": n.Token}, nil)
}

// IsUser reports whether this reference is a user mention.
func (n *ReferenceNode) IsUser() bool { return len(n.Token) > 0 && n.Token[0] == '@' }

// IsChannel reports whether this reference is a channel mention.
func (n *ReferenceNode) IsChannel() bool { return len(n.Token) > 0 && n.Token[0] == '#' }

// ID returns the user or channel ID with the sigil stripped.
func (n *ReferenceNode) ID() string {
	if n.Token == "" {
		return ""
	}
	return n.Token[1:]
}

type referenceParser struct{}

// newReferenceParser returns the goldmark inline parser for Slack
// references, registered at priority 5 (ahead of the generic autolink and
// raw-HTML parsers, which would otherwise claim the leading '<').
func newReferenceParser() parser.InlineParser { return &referenceParser{} }

func (p *referenceParser) Trigger() []byte { return []byte{'<'} }

func (p *referenceParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	loc := referencePattern.FindSubmatchIndex(line)
	if loc == nil {
		return nil
	}
	token := string(line[loc[2]:loc[3]])
	block.Advance(loc[1])
	return &ReferenceNode{Token: token}
}

// referencePriority is the priority this parser is registered at (lower
// values run earlier in goldmark).
const referencePriority = 5
