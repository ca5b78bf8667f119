package feed

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
	SortAuthor SortOrder = "author"
)

var SortOrders = []SortOrder{SortNewest, SortOldest, SortTitle, SortAuthor}

func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortOrders, order) {
		return order, nil
	}
	return "", fmt.Errorf("invalid sort order: %q", s)
}

// Label is the human readable name used by sort controls.
func (o SortOrder) Label() string {
	switch o {
	case SortOldest:
		return "Oldest first"
	case SortTitle:
		return "Title A-Z"
	case SortAuthor:
		return "Author A-Z"
	default:
		return "Newest first"
	}
}

type Sorter struct{}

func NewSorter() *Sorter {
	return &Sorter{}
}

type sortEntry struct {
	post ResolvedPost
	at   time.Time
	text string
	has  bool
}

// Run returns a stably sorted copy of posts; the input is not modified.
//
// Missing or unparseable timestamps count as the minimum value under both
// date orders, so such posts come last for newest and first for oldest.
// Unknown orders fall back to newest.
func (s *Sorter) Run(posts []ResolvedPost, order SortOrder) []ResolvedPost {
	entries := make([]sortEntry, len(posts))
	for i, p := range posts {
		entries[i] = s.entry(p, order)
	}

	switch order {
	case SortOldest:
		slices.SortStableFunc(entries, func(a, b sortEntry) int {
			return compareDates(a, b)
		})
	case SortTitle:
		slices.SortStableFunc(entries, func(a, b sortEntry) int {
			return strings.Compare(a.text, b.text)
		})
	case SortAuthor:
		slices.SortStableFunc(entries, func(a, b sortEntry) int {
			if a.has != b.has {
				if a.has {
					return -1
				}
				return 1
			}
			return strings.Compare(a.text, b.text)
		})
	default:
		slices.SortStableFunc(entries, func(a, b sortEntry) int {
			return compareDates(b, a)
		})
	}

	sorted := make([]ResolvedPost, len(entries))
	for i, e := range entries {
		sorted[i] = e.post
	}
	return sorted
}

func (s *Sorter) entry(p ResolvedPost, order SortOrder) sortEntry {
	e := sortEntry{post: p}

	switch order {
	case SortTitle:
		e.text = fold(p.Title)
	case SortAuthor:
		if p.EffectiveAuthor != nil && p.EffectiveAuthor.Name != "" {
			e.text = fold(p.EffectiveAuthor.Name)
			e.has = true
		}
	default:
		e.at, e.has = ParseTimestamp(p.CreatedAt)
	}

	return e
}

// compareDates orders entries without a timestamp before every dated entry.
func compareDates(a, b sortEntry) int {
	switch {
	case !a.has && !b.has:
		return 0
	case !a.has:
		return -1
	case !b.has:
		return 1
	default:
		return a.at.Compare(b.at)
	}
}
