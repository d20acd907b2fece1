// Package markdown renders CommonMark+GFM Markdown into the Slack
// rich_text block tree and, separately, back into plain Markdown text.
//
// It is the C1 component of the suichan bridge: a pure function from a
// Markdown string (or a slice of already-parsed top-level nodes) to the
// dynamic, tagged-union block tree Slack's Web API expects. Parsing is
// goldmark with the GFM extension bundle plus a custom inline parser for
// the `<@Uxxxx>` / `<#Cxxxx>` reference syntax.
package markdown
