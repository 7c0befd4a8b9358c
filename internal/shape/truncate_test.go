package shape

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBoundText_WithinBudget(t *testing.T) {
	t.Parallel()

	text := "small payload"
	out, report := BoundText(text, 100, "content")
	if out != text {
		t.Errorf("text should pass through unchanged, got %q", out)
	}
	if report != nil {
		t.Errorf("report should be nil when nothing was truncated, got %v", report)
	}
}

func TestBoundText_EmptyInput(t *testing.T) {
	t.Parallel()

	out, report := BoundText("", 10, "content")
	if out != "" || report != nil {
		t.Errorf("empty input must be a no-op, got %q, %v", out, report)
	}
}

func TestBoundText_OverBudget(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 5000)
	out, report := BoundText(text, 1000, "logs")

	if !strings.HasPrefix(out, strings.Repeat("x", 1000)) {
		t.Error("output should start with the first budget chars")
	}
	if !strings.Contains(out, "[... truncated, showing 1,000 of 5,000 chars]") {
		t.Errorf("missing truncation suffix, got tail %q", out[990:])
	}
	if report["logs_truncated"] != true {
		t.Error("logs_truncated should be true")
	}
	if report["logs_total_size"] != 5000 {
		t.Errorf("logs_total_size = %v, want 5000", report["logs_total_size"])
	}
	if report["logs_shown_size"] != 1000 {
		t.Errorf("logs_shown_size = %v, want 1000", report["logs_shown_size"])
	}
}

func TestBoundText_ExactBudgetIsNotTruncated(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("y", 50)
	out, report := BoundText(text, 50, "content")
	if out != text || report != nil {
		t.Error("len(text) == budget must not truncate")
	}
}

func TestBoundText_CutLandsOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// é is 2 bytes; a budget of 5 falls mid-rune.
	text := strings.Repeat("é", 10)
	out, report := BoundText(text, 5, "content")

	if !utf8.ValidString(out) {
		t.Errorf("truncated view is not valid UTF-8: %q", out)
	}
	shown := strings.SplitN(out, "\n\n[...", 2)[0]
	if shown != strings.Repeat("é", 2) {
		t.Errorf("shown prefix = %q, want two runes", shown)
	}
	if report["content_shown_size"] != 4 {
		t.Errorf("content_shown_size = %v, want 4", report["content_shown_size"])
	}
	if !strings.Contains(out, "showing 4 of 20 chars") {
		t.Errorf("suffix should state the actual cut, got %q", out)
	}
}

func TestBoundText_SuffixOverheadIsBounded(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("z", 200)
	out, _ := BoundText(text, 80, "data")
	// Budget plus a short human-readable suffix, never unbounded.
	if len(out) > 80+len("\n\n[... truncated, showing 99,999,999 of 99,999,999 chars]") {
		t.Errorf("suffix overhead too large: %d chars", len(out)-80)
	}
}

func TestReportMerge(t *testing.T) {
	t.Parallel()

	var base Report
	base = base.Merge(Report{"a_truncated": true})
	base = base.Merge(nil)
	base = base.Merge(Report{"b_truncated": true})

	if len(base) != 2 {
		t.Errorf("merged report has %d keys, want 2", len(base))
	}
}

func TestGroupDigits(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		80000:   "80,000",
		100000:  "100,000",
		1234567: "1,234,567",
	}
	for in, want := range cases {
		if got := groupDigits(in); got != want {
			t.Errorf("groupDigits(%d) = %q, want %q", in, got, want)
		}
	}
}
