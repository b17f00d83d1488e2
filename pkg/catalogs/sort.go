package catalogs

import (
	"cmp"
	"slices"
)

// Sort orders publications by year, newest first. Publications without a
// year go last. Ties keep their relative order.
func Sort(pubs []Publication) {
	slices.SortStableFunc(pubs, compareByYear)
}

// IsSorted reports whether pubs is already in Sort order.
func IsSorted(pubs []Publication) bool {
	return slices.IsSortedFunc(pubs, compareByYear)
}

func compareByYear(a, b Publication) int {
	switch {
	case a.HasYear() && !b.HasYear():
		return -1
	case !a.HasYear() && b.HasYear():
		return 1
	default:
		return cmp.Compare(b.Year, a.Year)
	}
}
