package markdown

import "testing"

func renderMarkdown(t *testing.T, src string) []any {
	t.Helper()
	doc := Parse(src)
	return RenderAndPostprocess(doc.Top, doc.Source)
}

func TestRenderSimpleParagraphWrapsInRichText(t *testing.T) {
	out := renderMarkdown(t, "hello world\n")
	if len(out) != 1 {
		t.Fatalf("want 1 top-level block, got %d", len(out))
	}
	wrapper, ok := out[0].(*Block)
	if !ok || wrapper.Type != "rich_text" {
		t.Fatalf("want rich_text wrapper, got %#v", out[0])
	}
	if len(wrapper.Elements) != 1 {
		t.Fatalf("want 1 section inside wrapper, got %d", len(wrapper.Elements))
	}
	section, ok := wrapper.Elements[0].(*Block)
	if !ok || section.Type != "rich_text_section" {
		t.Fatalf("want rich_text_section, got %#v", wrapper.Elements[0])
	}
}

func TestRenderEmphasisAndStrikeComposeStyles(t *testing.T) {
	out := renderMarkdown(t, "**bold *and italic***\n~~strike~~\n")
	if !Validate(out) {
		t.Fatalf("rendered tree failed Validate")
	}
	wrapper := out[0].(*Block)
	sec := wrapper.Elements[0].(*Block)
	var sawNewline bool
	for _, el := range sec.Elements {
		if inl, ok := el.(*Inline); ok && inl.Type == "text" && inl.Text == "\n" {
			sawNewline = true
		}
	}
	if !sawNewline {
		t.Fatalf("want an interleaved newline leaf between the two lines, got %#v", sec.Elements)
	}
}

func TestRenderReferenceProducesUserLeaf(t *testing.T) {
	out := renderMarkdown(t, "ping <@U12345>\n")
	wrapper := out[0].(*Block)
	sec := wrapper.Elements[0].(*Block)
	var found bool
	for _, el := range sec.Elements {
		if inl, ok := el.(*Inline); ok && inl.Type == "user" && inl.UserID == "U12345" {
			found = true
		}
	}
	if !found {
		t.Fatalf("want a user leaf for U12345, got %#v", sec.Elements)
	}
}

func TestRenderThematicBreakProducesNothing(t *testing.T) {
	out := renderMarkdown(t, "---\n")
	if len(out) != 0 {
		t.Fatalf("want an empty result for a lone thematic break, got %#v", out)
	}
}

func TestRenderTableProducesEmbedFileSentinel(t *testing.T) {
	src := "| a | b |\n| - | - |\n| 1 | 2 |\n"
	doc := Parse(src)
	raw := Render(doc.Top, doc.Source)
	if len(raw) != 1 {
		t.Fatalf("want 1 raw block for a table, got %d", len(raw))
	}
	blk, ok := raw[0].(*Block)
	if !ok || blk.Type != "_embed_file" {
		t.Fatalf("want _embed_file sentinel, got %#v", raw[0])
	}
	if Validate(raw) {
		t.Fatalf("a tree containing _embed_file must fail Validate")
	}
}

func TestRenderHTMLBlockProducesPreformatted(t *testing.T) {
	src := "<div>\n  hi\n</div>\n"
	doc := Parse(src)
	raw := Render(doc.Top, doc.Source)
	if len(raw) != 1 {
		t.Fatalf("want 1 raw block for an HTML block, got %d: %#v", len(raw), raw)
	}
	blk, ok := raw[0].(*Block)
	if !ok || blk.Type != "rich_text_preformatted" {
		t.Fatalf("want rich_text_preformatted, got %#v", raw[0])
	}
}

func TestRenderNestedListCompactsSiblingsByIndent(t *testing.T) {
	src := "- A\n    - A1\n    - A2\n        - A1a\n"
	doc := Parse(src)
	raw := Render(doc.Top, doc.Source)
	if len(raw) != 3 {
		t.Fatalf("want 3 compacted rich_text_list nodes, got %d: %#v", len(raw), raw)
	}
	indents := []int{}
	for _, n := range raw {
		indents = append(indents, n.(*Block).Indent)
	}
	want := []int{0, 1, 2}
	for i, ind := range want {
		if indents[i] != ind {
			t.Fatalf("indent[%d] = %d, want %d (all indents: %v)", i, indents[i], ind, indents)
		}
	}
}
