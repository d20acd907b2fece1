package markdown

// Postprocess groups the flat render() output into top-level rich_text
// wrappers: consecutive wrappable elements (sections/lists/quotes/
// preformatted, or bare inline leaves promoted by a heading) are
// accumulated and flushed into one rich_text container whenever a
// already-wrapped rich_text block (produced by a quote containing a
// list) is encountered, or at the end of the sequence.
func Postprocess(nodes []any) []any {
	var out []any
	var pending []any
	flush := func() {
		if len(pending) == 0 {
			return
		}
		out = append(out, &Block{Type: "rich_text", Elements: pending})
		pending = nil
	}
	for _, n := range nodes {
		if b, ok := n.(*Block); ok && b.Type == "rich_text" {
			flush()
			out = append(out, b)
			continue
		}
		pending = append(pending, n)
	}
	flush()
	return out
}
