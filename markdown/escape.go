package markdown

import (
	"html"
	"strings"
)

// urlSafeChars are left unescaped by escapeURL, matching
// urllib.parse.quote(raw, safe="/#:()*?=%@+,&") in the original renderer.
const urlSafeChars = "/#:()*?=%@+,&"

func isURLUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	}
	return strings.IndexByte(urlSafeChars, b) >= 0
}

func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURLUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteString("%")
		b.WriteString(strings.ToUpper(hexByte(c)))
	}
	return b.String()
}

func hexByte(b byte) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0x0f]})
}

// escapeURL mirrors renderer.py's escape_url: unescape any HTML entities,
// re-encode with a custom safe set (which keeps '%', so existing percent
// sequences pass through unchanged rather than being decoded), then
// HTML-escape the result so it is safe to drop into a JSON string that may
// itself later be interpolated into an HTML surface upstream of Slack.
func escapeURL(raw string) string {
	unescaped := html.UnescapeString(raw)
	return html.EscapeString(percentEncode(unescaped))
}

// escapeHTMLBlock mirrors the plain `html.escape(...).strip()` call
// render_html_block makes directly (not via the unused escape_html helper
// renderer.py defines but never calls).
func escapeHTMLBlock(raw string) string {
	return strings.TrimSpace(html.EscapeString(raw))
}
