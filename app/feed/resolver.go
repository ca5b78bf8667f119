package feed

// Index maps canonical identifiers to authors and categories. It is built
// once per snapshot so resolving N posts costs O(N+M) instead of O(N*M).
type Index struct {
	authors    map[ID]Author
	categories map[ID]Category
}

func NewIndex(authors []Author, categories []Category) *Index {
	idx := &Index{
		authors:    make(map[ID]Author, len(authors)),
		categories: make(map[ID]Category, len(categories)),
	}

	// First occurrence wins if the upstream ever repeats an identifier.
	for _, a := range authors {
		if _, exists := idx.authors[a.ID]; !exists && a.ID != "" {
			idx.authors[a.ID] = a
		}
	}
	for _, c := range categories {
		if _, exists := idx.categories[c.ID]; !exists && c.ID != "" {
			idx.categories[c.ID] = c
		}
	}

	return idx
}

func (idx *Index) Author(id ID) (Author, bool) {
	a, ok := idx.authors[id]
	return a, ok
}

func (idx *Index) Category(id ID) (Category, bool) {
	c, ok := idx.categories[id]
	return c, ok
}

// Resolve attaches the effective author and categories to a post.
//
// Author: embedded object, then lookup by author id, then absent. An embedded
// author without an id takes the post's author id.
// Categories: embedded list, then lookup by category id, then empty.
func (idx *Index) Resolve(post Post) ResolvedPost {
	resolved := ResolvedPost{
		Post:                post,
		EffectiveCategories: []Category{},
	}

	switch {
	case post.Author != nil:
		author := *post.Author
		if author.ID == "" {
			author.ID = post.AuthorID
		}
		resolved.EffectiveAuthor = &author
	case post.AuthorID != "":
		if author, ok := idx.authors[post.AuthorID]; ok {
			resolved.EffectiveAuthor = &author
		}
	}

	switch {
	case len(post.Categories) > 0:
		resolved.EffectiveCategories = append(resolved.EffectiveCategories, post.Categories...)
	case post.CategoryID != "":
		if category, ok := idx.categories[post.CategoryID]; ok {
			resolved.EffectiveCategories = append(resolved.EffectiveCategories, category)
		}
	}

	return resolved
}

func (idx *Index) ResolveAll(posts []Post) []ResolvedPost {
	resolved := make([]ResolvedPost, 0, len(posts))
	for _, p := range posts {
		resolved = append(resolved, idx.Resolve(p))
	}
	return resolved
}
