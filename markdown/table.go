package markdown

import (
	"encoding/csv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

func tableNodeType(n ast.Node) string {
	if n.Kind() == east.KindTable {
		return "table"
	}
	return ""
}

// renderTable has no representation in Slack's rich_text format, so a GFM
// table is serialized to CSV and returned as the `_embed_file` sentinel —
// an internal marker a poster must resolve (by uploading the CSV as a
// file) before the tree can pass Validate. Each cell's content is
// serialized back to Markdown text first, matching render_table's reuse
// of the Markdown renderer for cell bodies.
func (r *renderer) renderTable(tbl *east.Table) *Block {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		var record []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			record = append(record, r.renderInlineAsMarkdown(cell))
		}
		_ = w.Write(record)
	}
	w.Flush()
	return &Block{Type: "_embed_file", Content: buf.String(), Name: "table.csv"}
}
