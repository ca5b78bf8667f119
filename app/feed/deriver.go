package feed

// Deriver runs the full feed pipeline: normalize, index, resolve, filter and
// sort. It holds no state between runs.
type Deriver struct {
	filterer *Filterer
	sorter   *Sorter
}

func NewDeriver(filterer *Filterer, sorter *Sorter) *Deriver {
	return &Deriver{
		filterer: filterer,
		sorter:   sorter,
	}
}

func (d *Deriver) Run(rawPosts []RawPost, rawAuthors []RawAuthor, rawCategories []RawCategory, criteria Criteria) []ResolvedPost {
	idx := NewIndex(NormalizeAuthors(rawAuthors), NormalizeCategories(rawCategories))
	return d.RunNormalized(NormalizePosts(rawPosts), idx, criteria)
}

// RunNormalized is Run for callers that already hold normalized posts and an
// index built from the same snapshot.
func (d *Deriver) RunNormalized(posts []Post, idx *Index, criteria Criteria) []ResolvedPost {
	resolved := idx.ResolveAll(posts)
	filtered := d.filterer.Run(resolved, criteria)
	return d.sorter.Run(filtered, criteria.SortOrder)
}

// DeriveFeed is the single entry point used by presentation code.
func DeriveFeed(rawPosts []RawPost, rawAuthors []RawAuthor, rawCategories []RawCategory, criteria Criteria) []ResolvedPost {
	return NewDeriver(NewFilterer(), NewSorter()).Run(rawPosts, rawAuthors, rawCategories, criteria)
}

// PostsByAuthor lists an author's posts, newest first.
func (d *Deriver) PostsByAuthor(posts []Post, idx *Index, authorID ID) []ResolvedPost {
	criteria := DefaultCriteria()
	criteria.SelectedAuthors = []ID{authorID}
	return d.RunNormalized(posts, idx, criteria)
}

// PostsByCategory lists a category's posts, newest first.
func (d *Deriver) PostsByCategory(posts []Post, idx *Index, categoryID ID) []ResolvedPost {
	criteria := DefaultCriteria()
	criteria.SelectedCategories = []ID{categoryID}
	return d.RunNormalized(posts, idx, criteria)
}

// FindPost returns the post with the given canonical id.
func FindPost(posts []Post, id ID) (Post, bool) {
	for _, p := range posts {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}
