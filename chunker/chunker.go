// Package chunker implements the stateful streaming Markdown-to-blocks
// chunker: it buffers a token stream, decides which prefix of the
// accumulated Markdown is safe to emit as one chat message, renders that
// prefix through the markdown package, and hands back the rendered block
// tree alongside its Markdown source for use as a plain-text fallback.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"

	"github.com/linanwx/suichan/markdown"
)

// DefaultMaxChunkSize is the soft target size, in Unicode scalars of
// source Markdown, used when a Chunker is constructed with a zero or
// negative size.
const DefaultMaxChunkSize = 1024

// mayContinue lists top-level node types that can still be extended by a
// future feed — a group ending in one of these must not be released
// before finish() unless a later, non-continuing node already closed it.
var mayContinue = map[string]bool{
	"list":        true,
	"table":       true,
	"fenced_code": true,
}

// Chunker is the C2 component: a stateful line buffer plus a pull-style
// Consume step function. It is owned by exactly one goroutine for the
// lifetime of one generation turn; see the thread package for the owner
// that serializes feed/consume/post around it.
type Chunker struct {
	lines        []string
	buffer       string
	index        int
	finished     bool
	maxChunkSize int

	// FixRendered lets an embedding adapter (the poster) repair a tree
	// that fails Validate — e.g. replacing an _embed_file sentinel after
	// uploading its payload as a real file. The zero value is identity,
	// matching C2's default no-op hook.
	FixRendered func([]any) []any
}

// New constructs a Chunker with the given soft size target.
func New(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{maxChunkSize: maxChunkSize}
}

var inlineFenceOpener = regexp.MustCompile("^(.*\\S)```$")

// Feed appends chunk to the pending buffer and commits any newly
// completed lines. chunk may be any substring boundary; it does not need
// to align with line breaks.
func (c *Chunker) Feed(chunk string) {
	c.buffer += chunk
	for {
		i := strings.IndexByte(c.buffer, '\n')
		if i < 0 {
			break
		}
		line := c.buffer[:i]
		c.buffer = c.buffer[i+1:]
		c.commitLine(line)
	}
}

// commitLine right-trims the line and, if it looks like prose glued
// directly to a fence opener with no preceding newline (a common LLM
// formatting slip), splits it into the prose line and a bare ``` line so
// the next parse recognizes the fence.
func (c *Chunker) commitLine(line string) {
	line = strings.TrimRight(line, "\n \t")
	if m := inlineFenceOpener.FindStringSubmatch(line); m != nil {
		c.lines = append(c.lines, strings.TrimRight(m[1], " \t"), "```")
		return
	}
	c.lines = append(c.lines, line)
}

// Finish flushes any pending partial line into lines and marks the
// chunker finished; after this, repeated Consume calls must eventually
// drain all remaining content. It returns a snapshot of lines for callers
// that want to log or persist the final raw text.
func (c *Chunker) Finish() []string {
	if c.buffer != "" {
		c.commitLine(c.buffer)
		c.buffer = ""
	}
	c.finished = true
	return append([]string(nil), c.lines...)
}

// Result is one emitted group: its postprocessed block tree and the
// Markdown source it was rendered from.
type Result struct {
	Blocks      []any
	ReferenceMD string
}

// Consume attempts to emit the next ready group. ok is false when nothing
// is ready yet (the caller should feed more or, if finished, poll again
// only if more content remains). err is non-nil only for the "Unrepresentable
// block" hard failure: a rendered tree that still fails Validate after
// FixRendered has had a chance to repair it.
func (c *Chunker) Consume() (res Result, ok bool, err error) {
	joined := strings.Join(c.lines, "\n")
	doc := markdown.Parse(joined)

	if c.index > len(doc.Top) {
		c.index = len(doc.Top)
	}
	tail := doc.Top[c.index:]
	if len(tail) == 0 {
		return Result{}, false, nil
	}

	groups := c.partition(tail, doc.Source)
	if len(groups) == 0 {
		return Result{}, false, nil
	}

	releasable := c.releasableGroups(groups)
	if len(releasable) == 0 {
		return Result{}, false, nil
	}

	first := releasable[0]
	if isEmptyGroup(first) {
		c.index += len(first.nodes)
		return Result{}, false, nil
	}

	if len(releasable) == 1 && !c.finished && utf8.RuneCountInString(joined) < c.maxChunkSize {
		return Result{}, false, nil
	}

	c.index += len(first.nodes)

	rendered := markdown.Render(first.nodes, doc.Source)
	if !markdown.Validate(rendered) {
		if c.FixRendered != nil {
			rendered = c.FixRendered(rendered)
		}
		if !markdown.Validate(rendered) {
			return Result{}, false, fmt.Errorf("chunker: rendered group still contains a sentinel node after fix_rendered")
		}
	}

	refMD := referenceMarkdown(doc.Source, first)
	return Result{Blocks: markdown.Postprocess(rendered), ReferenceMD: refMD}, true, nil
}

type group struct {
	nodes []ast.Node
	types []string
}

func (c *Chunker) partition(nodes []ast.Node, source []byte) []*group {
	var groups []*group
	var cur *group

	closeCur := func() {
		if cur != nil && len(cur.nodes) > 0 {
			groups = append(groups, cur)
		}
		cur = nil
	}

	for _, n := range nodes {
		typ := markdown.NodeType(n)

		if typ == "table" {
			closeCur()
			groups = append(groups, &group{nodes: []ast.Node{n}, types: []string{typ}})
			continue
		}

		if typ == "thematic_break" {
			closeCur()
		}

		if cur == nil {
			cur = &group{}
		}
		cur.nodes = append(cur.nodes, n)
		cur.types = append(cur.types, typ)

		start, _ := markdown.Span(cur.nodes[0], source)
		_, end := markdown.Span(n, source)
		if end > start && utf8.RuneCount(source[start:end]) > 2*c.maxChunkSize {
			closeCur()
		}
	}
	closeCur()
	return groups
}

// releasableGroups returns the prefix of groups that may be emitted now:
// every group but the last is always releasable; the last is releasable
// only once finished, or when it does not end in a "may continue" type.
func (c *Chunker) releasableGroups(groups []*group) []*group {
	if len(groups) == 0 {
		return nil
	}
	last := groups[len(groups)-1]
	lastType := last.types[len(last.types)-1]
	if c.finished || !mayContinue[lastType] {
		return groups
	}
	return groups[:len(groups)-1]
}

func isEmptyGroup(g *group) bool {
	for _, t := range g.types {
		if t != "thematic_break" && t != "blank_line" {
			return false
		}
	}
	return true
}

// referenceMarkdown slices the original source text spanning the group's
// first to last node, giving an exact reproduction of the group's
// Markdown rather than a re-serialization — strictly faithful since no
// round-trip drift is possible, and it still satisfies the "Markdown
// rendered back to Markdown" contract the group's reference text needs.
// Span resolves a real source offset for every node, including
// content-less leaves like a thematic break, so this never slices from
// further back than the group's own first node.
func referenceMarkdown(source []byte, g *group) string {
	if len(g.nodes) == 0 {
		return ""
	}
	start, _ := markdown.Span(g.nodes[0], source)
	_, end := markdown.Span(g.nodes[len(g.nodes)-1], source)
	if end <= start || end > len(source) {
		return ""
	}
	return string(source[start:end])
}
