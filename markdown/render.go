package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// renderer holds the transient, per-call state render_list.py's
// SlackRenderer keeps on the instance: the nesting depth of the list
// currently being rendered. A fresh renderer is created for every Render
// call, so this state never leaks across calls or goroutines.
type renderer struct {
	source    []byte
	listDepth int
}

// Render renders a contiguous run of top-level Markdown block nodes into
// the flat, pre-postprocess block sequence: a mix of *Block (rich_text_*
// containers or the internal _embed_file sentinel) and, for headings, bare
// inline leaves promoted straight into the sequence (see renderHeading).
func Render(nodes []ast.Node, source []byte) []any {
	r := &renderer{source: source}
	return r.renderAll(nodes)
}

// RenderAndPostprocess is the full C1 pipeline: render, then group the
// wrappable block-level results into top-level rich_text wrappers.
func RenderAndPostprocess(nodes []ast.Node, source []byte) []any {
	return Postprocess(Render(nodes, source))
}

func (r *renderer) renderAll(nodes []ast.Node) []any {
	var out []any
	for _, n := range nodes {
		out = append(out, r.renderNode(n)...)
	}
	return out
}

func (r *renderer) renderChildren(n ast.Node) []any {
	var out []any
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, r.renderNode(c)...)
	}
	return out
}

func (r *renderer) renderNode(n ast.Node) []any {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		children := r.renderInlineChildren(n)
		if len(children) == 0 {
			return nil
		}
		return []any{section(children...)}
	case ast.KindList:
		return r.renderList(n.(*ast.List))
	case ast.KindListItem:
		return r.renderListItem(n.(*ast.ListItem))
	case ast.KindBlockquote:
		return r.renderQuote(n)
	case ast.KindFencedCodeBlock:
		return r.renderFencedCode(n.(*ast.FencedCodeBlock))
	case ast.KindCodeBlock:
		return r.renderCodeBlock(n.(*ast.CodeBlock))
	case ast.KindHTMLBlock:
		return r.renderHTMLBlock(n.(*ast.HTMLBlock))
	case ast.KindThematicBreak:
		return nil
	case ast.KindHeading:
		return r.renderInlineChildren(n)
	default:
		if n.Kind() == east.KindTable {
			return []any{r.renderTable(n.(*east.Table))}
		}
		return r.renderChildren(n)
	}
}

// renderInlineChildren renders every inline child of a block node (a
// paragraph, heading, text block, list-item text line, quote line, ...)
// into a flat []any of *Inline leaves (and, rarely, bare passthrough
// strings from inline HTML).
func (r *renderer) renderInlineChildren(n ast.Node) []any {
	var out []any
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, r.renderInline(c)...)
	}
	return out
}

func (r *renderer) renderInline(n ast.Node) []any {
	switch v := n.(type) {
	case *ast.Text:
		out := []any{textLeaf(string(v.Segment.Value(r.source)))}
		if v.SoftLineBreak() || v.HardLineBreak() {
			out = append(out, newline())
		}
		return out
	case *ast.Emphasis:
		style := "italic"
		if v.Level >= 2 {
			style = "bold"
		}
		return applyStyle(r.renderInlineChildren(v), style)
	case *east.Strikethrough:
		return applyStyle(r.renderInlineChildren(v), "strike")
	case *ast.CodeSpan:
		return []any{&Inline{Type: "text", Text: r.textContent(v), Style: &Style{Code: true}}}
	case *ast.Link:
		url := escapeURL(string(v.Destination))
		body := r.renderInlineAsMarkdown(v)
		if body == "" {
			body = url
		}
		return []any{linkLeaf(url, body)}
	case *ast.AutoLink:
		url := escapeURL(string(v.URL(r.source)))
		label := string(v.Label(r.source))
		return []any{linkLeaf(url, label)}
	case *ast.Image:
		url := escapeURL(string(v.Destination))
		body := r.renderInlineAsMarkdown(v)
		if body == "" {
			body = url
		}
		return []any{linkLeaf(url, body)}
	case *ast.RawHTML:
		// Opaque passthrough: the original returns the raw child string
		// rather than a typed leaf. We do the same, matching
		// render_inline_html exactly.
		return []any{rawHTMLText(v, r.source)}
	case *ReferenceNode:
		if v.IsUser() {
			return []any{&Inline{Type: "user", UserID: v.ID()}}
		}
		return []any{&Inline{Type: "channel", ChannelID: v.ID()}}
	default:
		return r.renderInlineChildren(n)
	}
}

func rawHTMLText(n *ast.RawHTML, source []byte) string {
	var b strings.Builder
	segs := n.Segments
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// applyStyle adds a style key to every child. A child already carrying a
// style map gets the key added; a bare passthrough string is first
// promoted to a text leaf, matching _render_text_style's two branches.
func applyStyle(children []any, style string) []any {
	out := make([]any, len(children))
	for i, c := range children {
		switch v := c.(type) {
		case *Inline:
			cl := *v
			cl.Style = cl.Style.clone()
			setStyle(cl.Style, style)
			out[i] = &cl
		case string:
			st := &Style{}
			setStyle(st, style)
			out[i] = &Inline{Type: "text", Text: v, Style: st}
		default:
			out[i] = c
		}
	}
	return out
}

func setStyle(s *Style, name string) {
	switch name {
	case "bold":
		s.Bold = true
	case "italic":
		s.Italic = true
	case "strike":
		s.Strike = true
	case "code":
		s.Code = true
	}
}

// textContent concatenates the raw text of every Text descendant of n,
// used for code spans (which are never further inline-parsed).
func (r *renderer) textContent(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(r.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteString(r.textContent(c))
	}
	return b.String()
}

func (r *renderer) renderQuote(n ast.Node) []any {
	var out []any
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == ast.KindList {
			// A list directly inside a quote is wrapped in its own
			// rich_text container rather than flattened into the quote's
			// own section/inline sequence, matching render_quote.
			listBlocks := r.renderList(c.(*ast.List))
			out = append(out, &Block{Type: "rich_text", Elements: listBlocks})
			continue
		}
		children := r.renderInline(c)
		if c.Kind() != ast.KindParagraph && c.Kind() != ast.KindTextBlock {
			// Non-paragraph, non-list quote content (rare: nested
			// blockquote, code) renders through the generic dispatch.
			children = r.renderNode(c)
		}
		if len(children) > 0 {
			out = append(out, &Block{Type: "rich_text_quote", Elements: children})
		}
	}
	return out
}

func (r *renderer) renderFencedCode(n *ast.FencedCodeBlock) []any {
	content := linesText(n, r.source)
	return []any{&Block{Type: "rich_text_preformatted", Elements: []any{textLeaf(content)}}}
}

func (r *renderer) renderCodeBlock(n *ast.CodeBlock) []any {
	content := linesText(n, r.source)
	return []any{&Block{Type: "rich_text_preformatted", Elements: []any{textLeaf(content)}}}
}

func (r *renderer) renderHTMLBlock(n *ast.HTMLBlock) []any {
	content := escapeHTMLBlock(linesText(n, r.source))
	if content == "" {
		return nil
	}
	return []any{&Block{Type: "rich_text_preformatted", Elements: []any{textLeaf(content)}}}
}

// linesNode is satisfied by leaf block nodes (fenced/indented code, raw
// HTML blocks) that keep their raw source lines instead of inline children.
type linesNode interface {
	Lines() *text.Segments
}

func linesText(n linesNode, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		b.Write(lines.At(i).Value(source))
	}
	return strings.TrimSpace(b.String())
}
