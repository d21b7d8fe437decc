// Package listview derives the read-only list projections from a document
// collection and a search term. The transform is pure: it never mutates its
// input and is recomputed wholesale whenever the collection or the term
// changes, instead of being patched incrementally.
package listview

import (
	"sort"
	"strings"

	"inkpad/internal/document"
)

// RecentLimit caps the number of entries in Views.Recent.
const RecentLimit = 6

// Views holds the derived projections of one document collection.
type Views struct {
	// Filtered contains the documents whose title matches the search term,
	// in the input collection's order.
	Filtered []document.Document

	// Recent is Filtered ordered by UpdatedAt descending, truncated to
	// RecentLimit. Ties keep Filtered's order.
	Recent []document.Document

	// Starred is the starred subset of Filtered, in Filtered's order.
	Starred []document.Document
}

// DeriveViews computes the filtered, recent and starred projections.
// Matching is a case-insensitive substring test against the title; the empty
// term matches everything.
func DeriveViews(docs []document.Document, searchTerm string) Views {
	term := strings.ToLower(searchTerm)

	filtered := make([]document.Document, 0, len(docs))
	for _, d := range docs {
		if term == "" || strings.Contains(strings.ToLower(d.Title), term) {
			filtered = append(filtered, d)
		}
	}

	recent := make([]document.Document, len(filtered))
	copy(recent, filtered)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	var starred []document.Document
	for _, d := range filtered {
		if d.IsStarred {
			starred = append(starred, d)
		}
	}

	return Views{Filtered: filtered, Recent: recent, Starred: starred}
}
