package poster

import "regexp"

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	inlineCode = regexp.MustCompile("`[^`\n]*`")

	mdBold      = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	mdItalic    = regexp.MustCompile(`(^|[^*])\*([^*\n]+)\*`)
	mdStrike    = regexp.MustCompile(`~~([^~\n]+)~~`)
	mdLink      = regexp.MustCompile(`\[([^\]\n]*)\]\(([^)\n]+)\)`)
)

// ToMrkdwn rewrites CommonMark emphasis/strike/link syntax into Slack's
// legacy mrkdwn syntax, used only as the plain-text fallback body a poster
// sends when a structured-blocks post fails. Fenced and inline code spans
// are left untouched.
func ToMrkdwn(src string) string {
	return mapOutsideCode(src, func(s string) string {
		s = mdLink.ReplaceAllString(s, "<$2|$1>")
		s = mdItalic.ReplaceAllString(s, "${1}_${2}_")
		s = mdBold.ReplaceAllString(s, "*$1*")
		s = mdStrike.ReplaceAllString(s, "~$1~")
		return s
	})
}

// mapOutsideCode applies fn to every substring of src that is not inside a
// fenced or inline code span, leaving code spans byte-for-byte unchanged.
func mapOutsideCode(src string, fn func(string) string) string {
	var out []byte
	rest := src
	for {
		loc := firstCodeSpan(rest)
		if loc == nil {
			out = append(out, fn(rest)...)
			break
		}
		out = append(out, fn(rest[:loc[0]])...)
		out = append(out, rest[loc[0]:loc[1]]...)
		rest = rest[loc[1]:]
	}
	return string(out)
}

func firstCodeSpan(s string) []int {
	fenced := fencedCode.FindStringIndex(s)
	inline := inlineCode.FindStringIndex(s)
	switch {
	case fenced == nil:
		return inline
	case inline == nil:
		return fenced
	case fenced[0] <= inline[0]:
		return fenced
	default:
		return inline
	}
}
