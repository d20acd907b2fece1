package markdown

import "testing"

func TestSpanOfThematicBreakIsItsOwnLine(t *testing.T) {
	src := "para one\n\n---\n\npara two"
	doc := Parse(src)
	if len(doc.Top) != 3 {
		t.Fatalf("want 3 top-level nodes, got %d: %#v", len(doc.Top), doc.Top)
	}

	start, end := Span(doc.Top[1], doc.Source)
	got := string(doc.Source[start:end])
	if got != "---" {
		t.Fatalf("want the thematic break's span to cover exactly %q, got %q (start=%d end=%d)", "---", got, start, end)
	}
}

func TestSpanOfLeadingThematicBreakFallsBackToDocumentStart(t *testing.T) {
	src := "---\n\npara two"
	doc := Parse(src)
	if len(doc.Top) != 2 {
		t.Fatalf("want 2 top-level nodes, got %d: %#v", len(doc.Top), doc.Top)
	}

	start, end := Span(doc.Top[0], doc.Source)
	got := string(doc.Source[start:end])
	if got != "---" {
		t.Fatalf("want the leading thematic break's span to cover exactly %q, got %q", "---", got)
	}
}
