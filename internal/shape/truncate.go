// Package shape bounds upstream payloads to fixed size budgets before they
// are serialized onto the wire. Shaping never fails on size alone: oversized
// data degrades into a truncated view plus metadata the caller can use to
// fetch the remainder.
package shape

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Report carries truncation metadata for bounded fields. Keys are prefixed
// with the field name so several bounded fields can share one response
// without colliding. A nil Report means nothing was truncated.
type Report map[string]any

// Merge folds other into r, returning the combined report. Either side may
// be nil.
func (r Report) Merge(other Report) Report {
	if len(other) == 0 {
		return r
	}
	if r == nil {
		r = make(Report, len(other))
	}
	for k, v := range other {
		r[k] = v
	}
	return r
}

// BoundText truncates text to budget characters. Within budget the input is
// returned untouched with a nil Report. Over budget the first budget
// characters are returned with a suffix stating how much was shown, and the
// Report records the truncation keyed by field. The cut backs off to a rune
// boundary so the truncated view is always valid UTF-8. Empty input is a
// no-op.
func BoundText(text string, budget int, field string) (string, Report) {
	if text == "" || len(text) <= budget {
		return text, nil
	}

	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	report := Report{
		field + "_truncated":  true,
		field + "_total_size": len(text),
		field + "_shown_size": cut,
	}
	suffix := fmt.Sprintf("\n\n[... truncated, showing %s of %s chars]",
		groupDigits(cut), groupDigits(len(text)))
	return text[:cut] + suffix, report
}

// groupDigits renders n with comma-separated thousands groups.
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return s
	}
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
