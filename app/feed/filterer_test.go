package feed

import (
	"reflect"
	"testing"
)

func filterFixture() []ResolvedPost {
	ada := &Author{ID: "1", Name: "Ada"}
	grace := &Author{ID: "2", Name: "Grace"}

	return []ResolvedPost{
		{Post: Post{ID: "10", Title: "Go Generics", Description: "Type parameters"}, EffectiveAuthor: ada, EffectiveCategories: []Category{{ID: "5", Name: "Tech"}}},
		{Post: Post{ID: "11", Title: "Gardening", Description: "Tomatoes in GO-karts"}, EffectiveAuthor: grace, EffectiveCategories: []Category{{ID: "6", Name: "Life"}}},
		{Post: Post{ID: "12", Title: "ÉCOLE", Description: "French schools"}, EffectiveAuthor: grace, EffectiveCategories: []Category{{ID: "5", Name: "Tech"}, {ID: "6", Name: "Life"}}},
		{Post: Post{ID: "13", Title: "Anonymous", Description: "No byline"}, EffectiveCategories: []Category{}},
	}
}

func ids(posts []ResolvedPost) []ID {
	out := make([]ID, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFiltererRun(t *testing.T) {
	filterer := NewFilterer()

	tests := []struct {
		name     string
		criteria Criteria
		expected []ID
	}{
		{
			name:     "default criteria keep everything",
			criteria: DefaultCriteria(),
			expected: []ID{"10", "11", "12", "13"},
		},
		{
			name:     "search is case insensitive over title and description",
			criteria: Criteria{SearchQuery: "go"},
			expected: []ID{"10", "11"},
		},
		{
			name:     "search folds unicode case",
			criteria: Criteria{SearchQuery: "école"},
			expected: []ID{"12"},
		},
		{
			name:     "category membership",
			criteria: Criteria{SelectedCategories: []ID{"5"}},
			expected: []ID{"10", "12"},
		},
		{
			name:     "categories match any selected",
			criteria: Criteria{SelectedCategories: []ID{"5", "6"}},
			expected: []ID{"10", "11", "12"},
		},
		{
			name:     "author membership",
			criteria: Criteria{SelectedAuthors: []ID{"2"}},
			expected: []ID{"11", "12"},
		},
		{
			name:     "constraints combine as conjunction",
			criteria: Criteria{SearchQuery: "go", SelectedCategories: []ID{"5"}, SelectedAuthors: []ID{"1"}},
			expected: []ID{"10"},
		},
		{
			name:     "unknown category yields empty result",
			criteria: Criteria{SelectedCategories: []ID{"99"}},
			expected: []ID{},
		},
		{
			name:     "no match for search",
			criteria: Criteria{SearchQuery: "kubernetes"},
			expected: []ID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(filterer.Run(filterFixture(), tt.criteria))
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFiltererAbsentAuthorNeverMatches(t *testing.T) {
	filterer := NewFilterer()
	post := ResolvedPost{Post: Post{ID: "1", AuthorID: "7"}, EffectiveCategories: []Category{}}

	if filterer.Matches(post, Criteria{SelectedAuthors: []ID{"7"}}) {
		t.Error("Expected unresolved author not to match author filter")
	}
	if filterer.Matches(post, Criteria{SelectedAuthors: []ID{""}}) {
		t.Error("Expected empty author id not to match")
	}
	if !filterer.Matches(post, DefaultCriteria()) {
		t.Error("Expected post without author to pass when no author filter is set")
	}
}

func TestFiltererDoesNotMutateInput(t *testing.T) {
	filterer := NewFilterer()
	posts := filterFixture()
	before := ids(posts)

	filterer.Run(posts, Criteria{SelectedAuthors: []ID{"2"}})

	if !reflect.DeepEqual(ids(posts), before) {
		t.Errorf("Input modified: expected %v, got %v", before, ids(posts))
	}
}

func TestCriteriaIsDefault(t *testing.T) {
	if !DefaultCriteria().IsDefault() {
		t.Error("Expected default criteria to report default")
	}

	c := DefaultCriteria()
	c.SortOrder = SortTitle
	if c.IsDefault() {
		t.Error("Expected non-default sort order to report non-default")
	}

	c = DefaultCriteria()
	c.SearchQuery = "x"
	if c.IsDefault() {
		t.Error("Expected search query to report non-default")
	}
}
