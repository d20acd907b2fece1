package markdown

import "strings"

// Style is the set-valued style map carried by text and link leaves.
// Composition just sets bits, matching the "a child already carrying a
// style map has the new key added" rule.
type Style struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Strike bool `json:"strike,omitempty"`
	Code   bool `json:"code,omitempty"`
}

func (s *Style) clone() *Style {
	if s == nil {
		return &Style{}
	}
	c := *s
	return &c
}

// Inline is one leaf of a rich_text_section / rich_text_quote /
// rich_text_preformatted element list. Type selects which fields apply;
// this mirrors Slack's own wire shape (and the real slack-go/slack
// library's block-kit element structs) rather than a closed set of Go
// types, since the leaves genuinely share optional fields and the tree is
// reassembled dynamically during postprocessing.
type Inline struct {
	Type string `json:"type"`

	Text  string `json:"text,omitempty"`
	Style *Style `json:"style,omitempty"`

	URL string `json:"url,omitempty"`

	Name string `json:"name,omitempty"` // emoji name

	UserID    string `json:"user_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

func textLeaf(s string) *Inline { return &Inline{Type: "text", Text: s} }
func newline() *Inline          { return textLeaf("\n") }
func linkLeaf(url, txt string) *Inline {
	return &Inline{Type: "link", URL: url, Text: txt}
}

// Block is one node of the container tree: rich_text, rich_text_section,
// rich_text_list, rich_text_quote, rich_text_preformatted, or the internal
// `_embed_file` sentinel produced for GFM tables.
//
// Elements holds either []*Block (for rich_text / rich_text_list) or a
// mixed []any of *Inline and (rarely) bare strings, for rich_text_section /
// rich_text_quote / rich_text_preformatted — the last after an
// opaque-passthrough inline_html node, which original_source returns as a
// raw string rather than a typed leaf.
type Block struct {
	Type     string `json:"type"`
	Elements []any  `json:"elements,omitempty"`

	Style  string `json:"style,omitempty"` // rich_text_list: "bullet" | "ordered"
	Indent int    `json:"indent,omitempty"`
	Border int    `json:"border,omitempty"`

	// _embed_file sentinel payload.
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

func section(elements ...any) *Block {
	return &Block{Type: "rich_text_section", Elements: elements}
}

func isSentinel(typ string) bool { return strings.HasPrefix(typ, "_") }

// Validate reports whether a rendered block tree is free of internal
// sentinel nodes (anything whose type begins with "_", such as
// `_embed_file`). A poster must resolve every sentinel via its
// fix_rendered hook before the tree is postprocessed and posted.
func Validate(nodes []any) bool {
	for _, n := range nodes {
		if !validateOne(n) {
			return false
		}
	}
	return true
}

func validateOne(n any) bool {
	switch v := n.(type) {
	case *Block:
		if isSentinel(v.Type) {
			return false
		}
		for _, c := range v.Elements {
			if !validateOne(c) {
				return false
			}
		}
		return true
	case *Inline:
		return !isSentinel(v.Type)
	case string:
		return true
	default:
		return true
	}
}
