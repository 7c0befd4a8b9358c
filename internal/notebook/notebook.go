// Package notebook models a Databricks source-format notebook as an ordered
// sequence of cells split on the cell separator line. Cells are addressed
// purely by position; parsing and reconstruction round-trip for any
// separator-free content.
package notebook

import (
	"fmt"
	"sort"
	"strings"

	"workbridge/internal/tools"
)

// Separator is the cell separator line used by Databricks SOURCE exports.
const Separator = "# COMMAND ----------"

// Edit replaces the content of the cell at Index.
type Edit struct {
	Index   int
	Content string
}

// Parse splits src into cells. A line whose trimmed form starts with the
// separator ends the current cell. Cells that contain no lines at all
// (adjacent separators, leading/trailing separators) are dropped; a document
// with zero separators yields exactly one cell. Cell bodies are normalized by
// trimming the blank padding lines Reconstruct inserts around separators.
func Parse(src string) []string {
	var cells []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		cell := strings.Trim(strings.Join(current, "\n"), "\n")
		if cell != "" {
			cells = append(cells, cell)
		}
		current = nil
	}

	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), Separator) {
			flush()
		} else {
			current = append(current, line)
		}
	}
	flush()
	return cells
}

// Reconstruct is the inverse of Parse modulo separator spacing: cells are
// joined with a blank-line padded separator.
func Reconstruct(cells []string) string {
	return strings.Join(cells, "\n\n"+Separator+"\n\n")
}

// ValidateCell rejects content that would corrupt the notebook structure on
// reconstruction. Both the exact separator and the split-token heuristic
// (separator halves appearing anywhere in the cell) are rejected.
func ValidateCell(content string) error {
	if strings.Contains(content, Separator) ||
		(strings.Contains(content, "# COMMAND") && strings.Contains(content, "----------")) {
		return fmt.Errorf("cell content cannot contain the %q separator: this would corrupt notebook structure", Separator)
	}
	return nil
}

// ApplyEdits validates every edit against cells and, only if all pass,
// returns a new cell slice with the edits applied. Any out-of-range index,
// forbidden content, or duplicated index aborts the whole batch with no
// partial application; the input slice is never modified.
func ApplyEdits(cells []string, edits []Edit) ([]string, error) {
	if len(edits) == 0 {
		return nil, tools.NewValidationError("updates", "no edits supplied")
	}

	seen := make(map[int]bool, len(edits))
	for _, e := range edits {
		if e.Index < 0 || e.Index >= len(cells) {
			return nil, &tools.ValidationError{
				Field: "cell_index",
				Index: e.Index,
				Detail: fmt.Sprintf("out of bounds (notebook has %d cells, valid range 0-%d)",
					len(cells), len(cells)-1),
			}
		}
		if seen[e.Index] {
			return nil, &tools.ValidationError{
				Field:  "cell_index",
				Index:  e.Index,
				Detail: "duplicate index in one batch",
			}
		}
		seen[e.Index] = true

		if err := ValidateCell(e.Content); err != nil {
			return nil, &tools.ValidationError{
				Field:  "content",
				Index:  e.Index,
				Detail: err.Error(),
			}
		}
	}

	updated := make([]string, len(cells))
	copy(updated, cells)
	for _, e := range edits {
		updated[e.Index] = e.Content
	}
	return updated, nil
}

// Indices returns the sorted list of edited indices, for result reporting.
func Indices(edits []Edit) []int {
	out := make([]int, 0, len(edits))
	for _, e := range edits {
		out = append(out, e.Index)
	}
	sort.Ints(out)
	return out
}
