package meeting

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultCategories are the client-engagement labels recognized when none
// are configured.
var DefaultCategories = []string{"client - retainer", "client - diagnostic"}

// CategoryFilter selects events tagged with a recognized client-engagement
// label. A category matches when it contains a label, ignoring case.
type CategoryFilter struct {
	labels []string
}

// NewCategoryFilter returns a filter for the given labels. Blank labels are
// ignored; with no usable labels DefaultCategories are used.
func NewCategoryFilter(labels ...string) *CategoryFilter {
	fold := cases.Fold()
	f := &CategoryFilter{}
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			f.labels = append(f.labels, fold.String(l))
		}
	}
	if len(f.labels) == 0 {
		for _, l := range DefaultCategories {
			f.labels = append(f.labels, fold.String(l))
		}
	}
	return f
}

// Matches reports whether any of the categories carries a recognized label.
func (f *CategoryFilter) Matches(categories []string) bool {
	fold := cases.Fold()
	for _, c := range categories {
		folded := fold.String(c)
		for _, l := range f.labels {
			if strings.Contains(folded, l) {
				return true
			}
		}
	}
	return false
}

// Labels returns the folded labels the filter matches against.
func (f *CategoryFilter) Labels() []string {
	return append([]string(nil), f.labels...)
}
