package parser

import (
	"strings"
)

// NormalizeHeader 规范化列名: trim, lower-case, keep only [a-z0-9].
// "Quick Cash" -> "quickcash", "NET-INCOME" -> "netincome".
func NormalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// NormalizeHeaders applies NormalizeHeader to every header, keeping positions.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// rowHasValue raw emptiness check: whitespace counts as a value.
func rowHasValue(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return true
		}
	}
	return false
}
