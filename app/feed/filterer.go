package feed

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Criteria is the user-controlled combination of filters and sort order.
type Criteria struct {
	SelectedCategories []ID      `json:"selected_categories"`
	SelectedAuthors    []ID      `json:"selected_authors"`
	SearchQuery        string    `json:"search_query"`
	SortOrder          SortOrder `json:"sort_order"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		SelectedCategories: []ID{},
		SelectedAuthors:    []ID{},
		SearchQuery:        "",
		SortOrder:          SortNewest,
	}
}

// IsDefault reports whether no filter is active and the sort order is the default.
func (c Criteria) IsDefault() bool {
	return len(c.SelectedCategories) == 0 && len(c.SelectedAuthors) == 0 &&
		c.SearchQuery == "" && (c.SortOrder == SortNewest || c.SortOrder == "")
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run returns the posts matching every active constraint, in input order.
func (f *Filterer) Run(posts []ResolvedPost, criteria Criteria) []ResolvedPost {
	query := fold(criteria.SearchQuery)

	filtered := make([]ResolvedPost, 0, len(posts))
	for _, post := range posts {
		if f.matches(post, criteria, query) {
			filtered = append(filtered, post)
		}
	}

	return filtered
}

func (f *Filterer) Matches(post ResolvedPost, criteria Criteria) bool {
	return f.matches(post, criteria, fold(criteria.SearchQuery))
}

func (f *Filterer) matches(post ResolvedPost, criteria Criteria, foldedQuery string) bool {
	if foldedQuery != "" && !f.matchesSearch(post, foldedQuery) {
		return false
	}

	if len(criteria.SelectedCategories) > 0 && !f.matchesCategories(post, criteria.SelectedCategories) {
		return false
	}

	if len(criteria.SelectedAuthors) > 0 && !f.matchesAuthors(post, criteria.SelectedAuthors) {
		return false
	}

	return true
}

func (f *Filterer) matchesSearch(post ResolvedPost, foldedQuery string) bool {
	return strings.Contains(fold(post.Title), foldedQuery) ||
		strings.Contains(fold(post.Description), foldedQuery)
}

func (f *Filterer) matchesCategories(post ResolvedPost, selected []ID) bool {
	for _, c := range post.EffectiveCategories {
		if slices.Contains(selected, c.ID) {
			return true
		}
	}
	return false
}

func (f *Filterer) matchesAuthors(post ResolvedPost, selected []ID) bool {
	authorID := post.EffectiveAuthorID()
	if authorID == "" {
		return false
	}
	return slices.Contains(selected, authorID)
}

// fold applies Unicode case folding. A Caser keeps state, so each call gets
// its own.
func fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
