package swagger

import "slices"

// TagFilter holds the hidden and visible tag sets used to exclude
// services, operations and definitions. Hidden always wins over Visible.
type TagFilter struct {
	// Hidden excludes any service, operation or definition whose name
	// or tags appear in it.
	Hidden []string

	// Visible is an allow-list for definitions. Empty means no
	// restriction.
	Visible []string
}

// IsHidden reports whether any of the given tags is hidden.
func (f TagFilter) IsHidden(tags ...string) bool {
	for _, tag := range tags {
		if slices.Contains(f.Hidden, tag) {
			return true
		}
	}
	return false
}

// Admits reports whether a definition named name may appear in a
// document.
func (f TagFilter) Admits(name string) bool {
	if f.IsHidden(name) {
		return false
	}
	if len(f.Visible) == 0 {
		return true
	}
	return slices.Contains(f.Visible, name)
}
