package notebook

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"workbridge/internal/tools"
)

func TestParse_ThreeCells(t *testing.T) {
	t.Parallel()

	src := "a\n# COMMAND ----------\nb\n# COMMAND ----------\nc"
	got := Parse(src)
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoSeparator(t *testing.T) {
	t.Parallel()

	src := "print('hello')\nprint('world')"
	got := Parse(src)
	if diff := cmp.Diff([]string{src}, got); diff != "" {
		t.Errorf("zero-separator doc should be one cell (-want +got):\n%s", diff)
	}
}

func TestParse_DropsEmptyBoundaryCells(t *testing.T) {
	t.Parallel()

	src := "# COMMAND ----------\na\n# COMMAND ----------\n# COMMAND ----------\nb\n# COMMAND ----------"
	got := Parse(src)
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("empty cells should be dropped (-want +got):\n%s", diff)
	}
}

func TestParse_IndentedSeparatorLine(t *testing.T) {
	t.Parallel()

	src := "a\n   # COMMAND ----------\nb"
	got := Parse(src)
	if len(got) != 2 {
		t.Errorf("whitespace-led separator line should still split, got %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"a", "b", "c"},
		{"single cell"},
		{"def f():\n    return 1", "f()"},
		{"x = 1\n\ny = 2", "print(x + y)"},
	}
	for _, cells := range cases {
		got := Parse(Reconstruct(cells))
		if diff := cmp.Diff(cells, got); diff != "" {
			t.Errorf("Parse(Reconstruct(%v)) mismatch (-want +got):\n%s", cells, diff)
		}
	}
}

func TestUpdateAndReconstruct_Scenario(t *testing.T) {
	t.Parallel()

	src := "a\n# COMMAND ----------\nb\n# COMMAND ----------\nc"
	cells := Parse(src)

	updated, err := ApplyEdits(cells, []Edit{{Index: 1, Content: "B"}})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	want := "a\n\n# COMMAND ----------\n\nB\n\n# COMMAND ----------\n\nc"
	if got := Reconstruct(updated); got != want {
		t.Errorf("Reconstruct = %q, want %q", got, want)
	}
}

func TestValidateCell(t *testing.T) {
	t.Parallel()

	if err := ValidateCell("plain python code"); err != nil {
		t.Errorf("valid content rejected: %v", err)
	}
	if err := ValidateCell("x\n# COMMAND ----------\ny"); err == nil {
		t.Error("exact separator should be rejected")
	}
	// Split-token heuristic: both halves present, even apart.
	if err := ValidateCell("# COMMAND something\nlater ----------"); err == nil {
		t.Error("split separator tokens should be rejected")
	}
	// One half alone is fine.
	if err := ValidateCell("# COMMAND is a word"); err != nil {
		t.Errorf("lone token should pass: %v", err)
	}
}

func TestApplyEdits_OutOfRangeAbortsBatch(t *testing.T) {
	t.Parallel()

	cells := []string{"a", "b", "c"}
	_, err := ApplyEdits(cells, []Edit{
		{Index: 0, Content: "A"},
		{Index: 9, Content: "X"},
		{Index: 2, Content: "C"},
	})
	if !tools.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	var ve *tools.ValidationError
	if !errors.As(err, &ve) || ve.Index != 9 {
		t.Errorf("error should name index 9, got %v", err)
	}

	// No partial application: the input is untouched.
	if diff := cmp.Diff([]string{"a", "b", "c"}, cells); diff != "" {
		t.Errorf("input mutated on failed batch (-want +got):\n%s", diff)
	}
}

func TestApplyEdits_ForbiddenContentAbortsBatch(t *testing.T) {
	t.Parallel()

	cells := []string{"a", "b"}
	_, err := ApplyEdits(cells, []Edit{
		{Index: 0, Content: "fine"},
		{Index: 1, Content: "bad\n# COMMAND ----------\n"},
	})
	if !tools.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if cells[0] != "a" {
		t.Error("no edit may apply when any edit fails")
	}
}

func TestApplyEdits_DuplicateIndexRejected(t *testing.T) {
	t.Parallel()

	cells := []string{"a", "b"}
	_, err := ApplyEdits(cells, []Edit{
		{Index: 1, Content: "first"},
		{Index: 1, Content: "second"},
	})
	if !tools.IsValidation(err) {
		t.Errorf("duplicate indices should be a validation error, got %v", err)
	}
}

func TestApplyEdits_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	cells := []string{"a", "b"}
	updated, err := ApplyEdits(cells, []Edit{{Index: 0, Content: "A"}})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if cells[0] != "a" || updated[0] != "A" {
		t.Error("ApplyEdits must copy, not mutate")
	}
}
