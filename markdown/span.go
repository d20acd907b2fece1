package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
)

// Span returns the byte offset range [start, end) in the original source
// that a node (and its descendants) occupies, derived from the Text leaves
// and raw Lines() segments under it. The chunker uses this to measure a
// group's rendered-Markdown size and to slice reference_md directly out
// of the source rather than re-serializing it.
//
// Some leaf blocks (a thematic break, chiefly) carry no Text children and
// never have Lines() populated by goldmark's parser, since nothing about
// their content needs preserving for rendering. Such a node still occupies
// a real line of source, so when the content walk comes up empty, Span
// falls back to locating that line in the gap between the nearest
// sibling that does have a real extent on either side.
func Span(n ast.Node, source []byte) (start, end int) {
	if s, e, ok := nodeExtent(n); ok {
		return s, e
	}

	lower := 0
	for p := n.PreviousSibling(); p != nil; p = p.PreviousSibling() {
		if _, e, ok := nodeExtent(p); ok {
			lower = e
			break
		}
	}
	upper := len(source)
	for nx := n.NextSibling(); nx != nil; nx = nx.NextSibling() {
		if s, _, ok := nodeExtent(nx); ok {
			upper = s
			break
		}
	}
	return leafLineSpan(source, lower, upper)
}

// nodeExtent is the content-only walk: it reports ok=false when n and its
// descendants carry no Text segment and no Lines() of their own.
func nodeExtent(n ast.Node) (start, end int, ok bool) {
	start, end = -1, -1
	update := func(s, e int) {
		if s < 0 || e < s {
			return
		}
		if start == -1 || s < start {
			start = s
		}
		if e > end {
			end = e
		}
	}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if t, ok := n.(*ast.Text); ok {
			update(t.Segment.Start, t.Segment.Stop)
		}
		if lv, ok := n.(linesNode); ok {
			lines := lv.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				update(seg.Start, seg.Stop)
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	if start == -1 {
		return 0, 0, false
	}
	return start, end, true
}

// leafLineSpan finds the first non-blank line within source[lower:upper]
// and returns its trimmed byte range — the single source line a
// content-less leaf (a thematic break) consumed, bounded by its nearest
// neighbors that do carry a real extent.
func leafLineSpan(source []byte, lower, upper int) (int, int) {
	if lower < 0 {
		lower = 0
	}
	if upper > len(source) {
		upper = len(source)
	}
	if upper < lower {
		upper = lower
	}
	region := source[lower:upper]
	off := 0
	for off <= len(region) {
		rest := region[off:]
		nl := bytes.IndexByte(rest, '\n')
		var line []byte
		var advance int
		if nl < 0 {
			line = rest
			advance = len(rest)
		} else {
			line = rest[:nl]
			advance = nl + 1
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			rel := bytes.Index(line, trimmed)
			s := lower + off + rel
			return s, s + len(trimmed)
		}
		if nl < 0 {
			break
		}
		off += advance
	}
	return lower, lower
}
