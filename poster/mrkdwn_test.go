package poster

import "testing"

func TestToMrkdwnRewritesEmphasisAndLinks(t *testing.T) {
	got := ToMrkdwn("**bold** and *italic* and ~~gone~~ and [text](http://x)")
	want := "*bold* and _italic_ and ~gone~ and <http://x|text>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestToMrkdwnLeavesCodeSpansUntouched(t *testing.T) {
	in := "see `**not bold**` here"
	got := ToMrkdwn(in)
	if got != in {
		t.Fatalf("got %q, want unchanged %q", got, in)
	}
}
