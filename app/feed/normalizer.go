package feed

import (
	"cmp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const UnknownDate = "unknown"

func NormalizePost(raw RawPost) Post {
	post := Post{
		ID:           CleanID(raw.ID.String()),
		Title:        raw.Title,
		Description:  raw.Description,
		Content:      raw.Content,
		ImageURL:     raw.ImageURL,
		ThumbnailURL: raw.ThumbnailURL,
		CreatedAt:    strings.TrimSpace(cmp.Or(raw.CreatedAt, raw.CreatedAtAlt)),
		UpdatedAt:    strings.TrimSpace(cmp.Or(raw.UpdatedAt, raw.UpdatedAtAlt)),
		AuthorID:     CleanID(cmp.Or(raw.AuthorID.String(), raw.AuthorIDAlt.String())),
		CategoryID:   CleanID(cmp.Or(raw.CategoryID.String(), raw.CategoryIDAlt.String())),
	}

	if raw.Author != nil {
		author := NormalizeAuthor(*raw.Author)
		post.Author = &author
		if post.AuthorID == "" {
			post.AuthorID = author.ID
		}
	}

	if len(raw.Categories) > 0 {
		post.Categories = NormalizeCategories(raw.Categories)
	}

	return post
}

func NormalizeAuthor(raw RawAuthor) Author {
	return Author{
		ID:        CleanID(raw.ID.String()),
		Name:      raw.Name,
		AvatarURL: cmp.Or(raw.AvatarURL, raw.ProfilePicture),
		CreatedAt: strings.TrimSpace(cmp.Or(raw.CreatedAt, raw.CreatedAtAlt)),
		UpdatedAt: strings.TrimSpace(cmp.Or(raw.UpdatedAt, raw.UpdatedAtAlt)),
	}
}

func NormalizeCategory(raw RawCategory) Category {
	return Category{
		ID:          CleanID(raw.ID.String()),
		Name:        raw.Name,
		Description: raw.Description,
	}
}

func NormalizePosts(raw []RawPost) []Post {
	posts := make([]Post, 0, len(raw))
	for _, r := range raw {
		posts = append(posts, NormalizePost(r))
	}
	return posts
}

func NormalizeAuthors(raw []RawAuthor) []Author {
	authors := make([]Author, 0, len(raw))
	for _, r := range raw {
		authors = append(authors, NormalizeAuthor(r))
	}
	return authors
}

func NormalizeCategories(raw []RawCategory) []Category {
	categories := make([]Category, 0, len(raw))
	for _, r := range raw {
		categories = append(categories, NormalizeCategory(r))
	}
	return categories
}

// DisplayImage prefers the thumbnail over the main image.
func (p Post) DisplayImage() string {
	return cmp.Or(p.ThumbnailURL, p.ImageURL)
}

// DisplayDate formats the creation timestamp, or returns UnknownDate when it
// is missing or cannot be parsed.
func (p Post) DisplayDate(layout string) string {
	t, ok := ParseTimestamp(p.CreatedAt)
	if !ok {
		return UnknownDate
	}
	return t.Format(layout)
}

func (a Author) DisplayDate(layout string) string {
	t, ok := ParseTimestamp(a.CreatedAt)
	if !ok {
		return UnknownDate
	}
	return t.Format(layout)
}

// ParseTimestamp accepts RFC 3339 and the looser date forms the upstream API
// has produced over time ("2024-01-01", "2024-01-01 10:00:00", ...).
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
