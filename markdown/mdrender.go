package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// renderInlineAsMarkdown re-serializes a node's inline children back into
// Markdown source text. It is used for link and image label bodies and
// table cell contents, matching render_link/render_image/render_table's
// reuse of the plain Markdown renderer for that purpose: Slack's
// rich_text "link" element has a flat text field with no nested styling,
// so nested emphasis/strike/code inside link text is kept as literal
// Markdown syntax rather than discarded or flattened to plain text.
func (r *renderer) renderInlineAsMarkdown(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.WriteString(r.inlineToMarkdown(c))
	}
	return b.String()
}

func (r *renderer) inlineToMarkdown(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Text:
		s := string(v.Segment.Value(r.source))
		if v.SoftLineBreak() || v.HardLineBreak() {
			s += "\n"
		}
		return s
	case *ast.Emphasis:
		marker := "*"
		if v.Level >= 2 {
			marker = "**"
		}
		return marker + r.renderInlineAsMarkdown(v) + marker
	case *east.Strikethrough:
		return "~~" + r.renderInlineAsMarkdown(v) + "~~"
	case *ast.CodeSpan:
		return "`" + r.textContent(v) + "`"
	case *ast.Link:
		return "[" + r.renderInlineAsMarkdown(v) + "](" + string(v.Destination) + ")"
	case *ast.AutoLink:
		return "<" + string(v.Label(r.source)) + ">"
	case *ast.Image:
		return "![" + r.renderInlineAsMarkdown(v) + "](" + string(v.Destination) + ")"
	case *ast.RawHTML:
		return rawHTMLText(v, r.source)
	case *ReferenceNode:
		return "<" + v.Token + ">"
	default:
		return r.renderInlineAsMarkdown(n)
	}
}
