package collection

// spliceRemove returns items with the referenced instances removed. A ref
// with explicit positions removes exactly those instances; a ref without
// positions removes every instance of the id. Out-of-range positions and
// position/id mismatches are ignored, never fatal: these paths run
// against caches that may lag the server.
func spliceRemove(items []Item, refs []ItemRef) []Item {
	drop := make(map[int]struct{})
	for _, ref := range refs {
		if len(ref.Positions) == 0 {
			for i, item := range items {
				if item.ID == ref.ID {
					drop[i] = struct{}{}
				}
			}
			continue
		}
		for _, pos := range ref.Positions {
			if pos < 0 || pos >= len(items) {
				continue
			}
			if items[pos].ID != ref.ID {
				continue
			}
			drop[pos] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return items
	}

	result := make([]Item, 0, len(items)-len(drop))
	for i, item := range items {
		if _, gone := drop[i]; gone {
			continue
		}
		result = append(result, item)
	}
	return result
}

// spliceReorder relocates the contiguous range [from, from+rangeLength)
// to toIndex. toIndex is expressed in pre-removal coordinates; when it
// lies past the removed range it is shifted down by rangeLength, matching
// the remote reorder semantics. Malformed input degrades to the original
// slice.
func spliceReorder(items []Item, from, to, rangeLength int) []Item {
	if rangeLength <= 0 || from < 0 || from+rangeLength > len(items) {
		return items
	}
	if to < 0 {
		to = 0
	}
	if to > len(items) {
		to = len(items)
	}
	if to >= from && to <= from+rangeLength {
		return items // dropping a range onto itself is a no-op
	}

	result := make([]Item, 0, len(items))
	result = append(result, items[:from]...)
	result = append(result, items[from+rangeLength:]...)

	insert := to
	if to > from {
		insert = to - rangeLength
	}

	moved := make([]Item, rangeLength)
	copy(moved, items[from:from+rangeLength])

	tail := make([]Item, len(result)-insert)
	copy(tail, result[insert:])

	result = append(result[:insert], moved...)
	result = append(result, tail...)
	return result
}
