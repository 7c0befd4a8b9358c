package shape

// MaxListItems is the hard ceiling on any single window, regardless of what
// the caller asked for. Protects downstream response budgets.
const MaxListItems = 100

// PageWindow is a bounded slice of an ordered collection plus the
// continuation state needed to fetch the rest.
type PageWindow[T any] struct {
	Items        []T  `json:"items"`
	Offset       int  `json:"offset"`
	Returned     int  `json:"returned"`
	TotalMatched int  `json:"total_matched"`
	HasMore      bool `json:"has_more"`
	NextOffset   *int `json:"next_offset,omitempty"`

	// LimitClampedTo reports the effective limit when the caller's request
	// exceeded MaxListItems. Zero when no clamping happened.
	LimitClampedTo int `json:"limit_clamped_to,omitempty"`
}

// Window applies keep (optional) and then the [offset, offset+limit) slice to
// items. TotalMatched counts the filtered set, so filtering narrows the
// universe being paginated rather than being applied after slicing.
// A non-positive limit means MaxListItems; larger limits are clamped to it.
func Window[T any](items []T, offset, limit int, keep func(T) bool) PageWindow[T] {
	clamped := 0
	if limit <= 0 {
		limit = MaxListItems
	} else if limit > MaxListItems {
		limit = MaxListItems
		clamped = limit
	}
	if offset < 0 {
		offset = 0
	}

	filtered := items
	if keep != nil {
		filtered = make([]T, 0, len(items))
		for _, it := range items {
			if keep(it) {
				filtered = append(filtered, it)
			}
		}
	}

	total := len(filtered)
	w := PageWindow[T]{
		Items:          []T{},
		Offset:         offset,
		TotalMatched:   total,
		LimitClampedTo: clamped,
	}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		w.Items = filtered[offset:end]
	}
	w.Returned = len(w.Items)
	w.HasMore = offset+w.Returned < total
	if w.HasMore {
		next := offset + w.Returned
		w.NextOffset = &next
	}
	return w
}
