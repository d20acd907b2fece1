package markdown

import "github.com/yuin/goldmark/ast"

// renderList renders a list node's items, then compacts adjacent
// rich_text_list siblings sharing the same indent into one node,
// concatenating their elements — this is what lets a plain multi-item
// list collapse into a single Slack rich_text_list block with one
// rich_text_section per item, which is how Slack's real wire format
// represents it. See DESIGN.md's "List compaction" note.
func (r *renderer) renderList(n *ast.List) []any {
	r.listDepth++
	style := "bullet"
	if isOrdered(n) {
		style = "ordered"
	}
	depth := r.listDepth
	var children []any
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if li, ok := c.(*ast.ListItem); ok {
			children = append(children, r.renderListItemAt(li, depth, style)...)
		}
	}
	r.listDepth--
	return shrinkSiblings(children)
}

func isOrdered(n *ast.List) bool {
	return n.Marker == '.' || n.Marker == ')'
}

func (r *renderer) renderListItem(n *ast.ListItem) []any {
	// Only reached if a list item is visited outside of renderList's own
	// dispatch (should not normally happen); fall back to depth 1 bullet.
	depth := r.listDepth
	if depth < 1 {
		depth = 1
	}
	return r.renderListItemAt(n, depth, "bullet")
}

func (r *renderer) renderListItemAt(n *ast.ListItem, depth int, style string) []any {
	children := r.renderChildren(n)

	allSections := true
	for _, c := range children {
		if b, ok := c.(*Block); !ok || b.Type != "rich_text_section" {
			allSections = false
			break
		}
	}

	primary := &Block{Type: "rich_text_list", Style: style, Indent: depth - 1}

	if allSections {
		var merged []any
		for _, c := range children {
			merged = append(merged, c.(*Block).Elements...)
		}
		primary.Elements = []any{section(merged...)}
		return []any{primary}
	}

	out := []any{primary}
	for _, c := range children {
		switch v := c.(type) {
		case *Block:
			switch v.Type {
			case "rich_text_list", "rich_text_preformatted":
				out = append(out, v)
			case "rich_text_section":
				primary.Elements = append(primary.Elements, v.Elements...)
			default:
				primary.Elements = append(primary.Elements, v)
			}
		default:
			primary.Elements = append(primary.Elements, v)
		}
	}
	if len(primary.Elements) == 0 {
		primary.Elements = []any{section()}
	} else {
		primary.Elements = []any{section(primary.Elements...)}
	}
	return out
}

// shrinkSiblings merges consecutive entries of children sharing the same
// indent into one node, extending the earlier node's Elements.
func shrinkSiblings(children []any) []any {
	var shrunk []*Block
	indent := -1
	for _, c := range children {
		b, ok := c.(*Block)
		if !ok {
			continue
		}
		if b.Indent == indent && len(shrunk) > 0 {
			shrunk[len(shrunk)-1].Elements = append(shrunk[len(shrunk)-1].Elements, b.Elements...)
			continue
		}
		shrunk = append(shrunk, b)
		indent = b.Indent
	}
	out := make([]any, len(shrunk))
	for i, b := range shrunk {
		out[i] = b
	}
	return out
}
