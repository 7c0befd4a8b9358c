package shape

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intsUpTo(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestWindow_HasMoreInvariant(t *testing.T) {
	t.Parallel()

	data := intsUpTo(25)
	for offset := 0; offset <= 30; offset += 5 {
		for _, limit := range []int{1, 7, 10, 25, 100} {
			w := Window(data, offset, limit, nil)
			wantHasMore := offset+w.Returned < w.TotalMatched
			if w.HasMore != wantHasMore {
				t.Errorf("offset=%d limit=%d: HasMore=%v, want %v", offset, limit, w.HasMore, wantHasMore)
			}
			if w.HasMore && w.NextOffset == nil {
				t.Errorf("offset=%d limit=%d: HasMore set without NextOffset", offset, limit)
			}
			if !w.HasMore && w.NextOffset != nil {
				t.Errorf("offset=%d limit=%d: NextOffset present without HasMore", offset, limit)
			}
		}
	}
}

func TestWindow_SuccessiveWindowsCoverExactlyOnce(t *testing.T) {
	t.Parallel()

	data := intsUpTo(23)
	var collected []int
	offset := 0
	for {
		w := Window(data, offset, 7, nil)
		collected = append(collected, w.Items...)
		if !w.HasMore {
			break
		}
		offset = *w.NextOffset
	}

	if diff := cmp.Diff(data, collected); diff != "" {
		t.Errorf("concatenated windows differ from source (-want +got):\n%s", diff)
	}
}

func TestWindow_FilterNarrowsUniverse(t *testing.T) {
	t.Parallel()

	data := intsUpTo(20)
	even := func(n int) bool { return n%2 == 0 }

	w := Window(data, 0, 3, even)
	if w.TotalMatched != 10 {
		t.Errorf("TotalMatched = %d, want 10 (filtered set, not raw)", w.TotalMatched)
	}
	if diff := cmp.Diff([]int{0, 2, 4}, w.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	// Pagination composes with the filter: next window continues the
	// filtered sequence.
	w2 := Window(data, *w.NextOffset, 3, even)
	if diff := cmp.Diff([]int{6, 8, 10}, w2.Items); diff != "" {
		t.Errorf("second window mismatch (-want +got):\n%s", diff)
	}
}

func TestWindow_OffsetPastEnd(t *testing.T) {
	t.Parallel()

	w := Window(intsUpTo(5), 10, 3, nil)
	if len(w.Items) != 0 || w.HasMore || w.NextOffset != nil {
		t.Errorf("offset past end should yield empty terminal window, got %+v", w)
	}
	if w.Returned != 0 || w.TotalMatched != 5 {
		t.Errorf("counts wrong: %+v", w)
	}
}

func TestWindow_LimitClamped(t *testing.T) {
	t.Parallel()

	w := Window(intsUpTo(500), 0, 250, nil)
	if w.Returned != MaxListItems {
		t.Errorf("Returned = %d, want clamp at %d", w.Returned, MaxListItems)
	}
	if w.LimitClampedTo != MaxListItems {
		t.Errorf("LimitClampedTo = %d, want %d reported back", w.LimitClampedTo, MaxListItems)
	}

	// A request within the clamp must not report clamping.
	w2 := Window(intsUpTo(500), 0, 50, nil)
	if w2.LimitClampedTo != 0 {
		t.Errorf("LimitClampedTo = %d for in-range limit, want 0", w2.LimitClampedTo)
	}
}

func TestWindow_DefaultLimit(t *testing.T) {
	t.Parallel()

	w := Window(intsUpTo(500), 0, 0, nil)
	if w.Returned != MaxListItems {
		t.Errorf("zero limit should default to %d, got %d", MaxListItems, w.Returned)
	}
}

func TestWindow_OrderPreservedNoDedup(t *testing.T) {
	t.Parallel()

	data := []string{"b", "a", "b", "c"}
	w := Window(data, 0, 10, nil)
	if diff := cmp.Diff(data, w.Items); diff != "" {
		t.Errorf("windowing must preserve order and duplicates (-want +got):\n%s", diff)
	}
}
