package chunker

import (
	"testing"

	"github.com/linanwx/suichan/markdown"
)

func drain(t *testing.T, c *Chunker) []Result {
	t.Helper()
	var out []Result
	for {
		res, ok, err := c.Consume()
		if err != nil {
			t.Fatalf("Consume error: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, res)
	}
}

func TestStreamingBoundaryHoldsUntilEnoughAccumulates(t *testing.T) {
	c := New(8)
	c.Feed("para one.\n\npara two")

	results := drain(t, c)
	if len(results) == 0 {
		t.Fatalf("want at least one emission once the boundary is safe, got none")
	}
	if results[0].ReferenceMD == "" {
		t.Fatalf("want non-empty reference markdown for first emission")
	}

	c.Finish()
	results2 := drain(t, c)
	if len(results2) == 0 {
		t.Fatalf("want the second paragraph to drain after finish, got none")
	}
}

func TestThematicBreakStartsGroupWithFollowingParagraph(t *testing.T) {
	c := New(1024)
	c.Feed("para one\n\n---\n\npara two\n")
	c.Finish()

	results := drain(t, c)
	for _, r := range results {
		if r.ReferenceMD == "---" {
			t.Fatalf("a lone thematic-break group must be swallowed, not emitted")
		}
	}
	if len(results) != 2 {
		t.Fatalf("want exactly 2 emissions, got %d: %#v", len(results), results)
	}
	if results[0].ReferenceMD != "para one" {
		t.Fatalf("want first emission's reference markdown to be %q, got %q", "para one", results[0].ReferenceMD)
	}
	// The break starts the second group and stays attached to the
	// paragraph that follows it (neither is swallowed on its own), so the
	// reference markdown must be exactly that slice of source — not the
	// whole document, which is what a thematic break with no span of its
	// own used to produce.
	want := "---\n\npara two"
	if results[1].ReferenceMD != want {
		t.Fatalf("want second emission's reference markdown to be exactly %q, got %q", want, results[1].ReferenceMD)
	}
}

func TestTableFormsSingletonGroup(t *testing.T) {
	c := New(1024)
	// A table renders to an _embed_file sentinel; without a hook that
	// resolves it, Consume reports a hard error.
	c.FixRendered = func(rendered []any) []any {
		out := make([]any, 0, len(rendered))
		for _, n := range rendered {
			if b, ok := n.(*markdown.Block); ok && b.Type == "_embed_file" {
				out = append(out, &markdown.Block{Type: "rich_text_section"})
				continue
			}
			out = append(out, n)
		}
		return out
	}
	c.Feed("before\n\n| a | b |\n| - | - |\n| 1 | 2 |\n\nafter\n")
	c.Finish()

	results := drain(t, c)
	if len(results) != 3 {
		t.Fatalf("want 3 groups (before, table, after), got %d", len(results))
	}
}

func TestFinishDrainsEverythingThenReturnsNoneForever(t *testing.T) {
	c := New(1024)
	c.Feed("hello world\n")
	c.Finish()

	results := drain(t, c)
	if len(results) != 1 {
		t.Fatalf("want 1 group, got %d", len(results))
	}

	for i := 0; i < 3; i++ {
		_, ok, err := c.Consume()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Fatalf("consume after drain must keep returning none")
		}
	}
}
