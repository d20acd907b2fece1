package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

func newGoldmark() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithInlineParsers(
				util.Prioritized(newReferenceParser(), referencePriority),
			),
		),
	)
}

// Document is a parsed Markdown source held alongside its top-level block
// nodes, so callers (the chunker) can slice a contiguous run of top-level
// siblings and render just that run without re-parenting the tree.
type Document struct {
	Source []byte
	Top    []ast.Node
}

// Parse parses a Markdown string and returns its top-level block nodes.
func Parse(src string) *Document {
	source := []byte(src)
	root := newGoldmark().Parser().Parse(text.NewReader(source))
	d := &Document{Source: source}
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		d.Top = append(d.Top, c)
	}
	return d
}

// NodeType maps a goldmark node to the closed vocabulary of block-level
// type tags the chunker partitions on.
func NodeType(n ast.Node) string {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		return "paragraph"
	case ast.KindList:
		return "list"
	case ast.KindListItem:
		return "list_item"
	case ast.KindBlockquote:
		return "quote"
	case ast.KindFencedCodeBlock:
		return "fenced_code"
	case ast.KindCodeBlock:
		return "code_block"
	case ast.KindHTMLBlock:
		return "html_block"
	case ast.KindThematicBreak:
		return "thematic_break"
	case ast.KindHeading:
		return "heading"
	default:
		if t := tableNodeType(n); t != "" {
			return t
		}
		return "unknown"
	}
}
