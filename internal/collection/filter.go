package collection

import (
	"sort"
	"strings"

	"github.com/zjrosen/splitdeck/internal/layout"
)

// FilterRows builds the filtered view of a collection. Every row keeps
// the item's explicit global position (its index in the unfiltered list)
// so a drop into a filtered panel can be mapped back onto the remote
// ordering. An empty query keeps every row.
func FilterRows(items []Item, query string) []Row {
	rows := make([]Row, 0, len(items))
	q := strings.ToLower(strings.TrimSpace(query))
	for i, item := range items {
		if q != "" && !matches(item, q) {
			continue
		}
		rows = append(rows, Row{Item: item, Position: i})
	}
	return rows
}

func matches(item Item, q string) bool {
	return strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(item.Artist), q)
}

// SortRows orders rows for presentation. Sorting never rewrites the
// rows' global positions; it only changes display order. An empty key
// keeps the collection ordering.
func SortRows(rows []Row, key string, dir layout.SortDirection) []Row {
	if key == "" {
		return rows
	}
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	less := func(a, b Row) bool {
		switch key {
		case "artist":
			if a.Item.Artist != b.Item.Artist {
				return a.Item.Artist < b.Item.Artist
			}
			return a.Item.Title < b.Item.Title
		case "duration":
			return a.Item.DurationMS < b.Item.DurationMS
		default: // "title"
			return a.Item.Title < b.Item.Title
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if dir == layout.SortDesc {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}
