package api

import (
	"github.com/lysyi3m/blog-comb/app/feed"
)

const (
	DateLayout    = "Jan 2, 2006"
	UnknownAuthor = "Unknown Author"

	cardCategoryLimit = 2
)

// PlaceholderCategories fill the category row of a card whose post has none.
var PlaceholderCategories = []string{"General", "News"}

type PostCard struct {
	ID         feed.ID  `json:"id"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Image      string   `json:"image,omitempty"`
	Date       string   `json:"date"`
	AuthorID   feed.ID  `json:"author_id,omitempty"`
	AuthorName string   `json:"author_name"`
	Categories []string `json:"categories"`
}

type AuthorView struct {
	ID        feed.ID `json:"id"`
	Name      string  `json:"name"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Joined    string  `json:"joined"`
}

type CategoryView struct {
	ID          feed.ID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
}

type PostDetail struct {
	ID          feed.ID        `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Content     string         `json:"content,omitempty"`
	Image       string         `json:"image,omitempty"`
	Date        string         `json:"date"`
	Author      *AuthorView    `json:"author"`
	Categories  []CategoryView `json:"categories"`
}

func newPostCard(post feed.ResolvedPost, excerptor *feed.Excerptor) PostCard {
	card := PostCard{
		ID:         post.ID,
		Title:      post.Title,
		Excerpt:    excerptor.Summary(post.Post),
		Image:      post.DisplayImage(),
		Date:       post.DisplayDate(DateLayout),
		AuthorID:   post.EffectiveAuthorID(),
		AuthorName: UnknownAuthor,
	}

	if post.EffectiveAuthor != nil && post.EffectiveAuthor.Name != "" {
		card.AuthorName = post.EffectiveAuthor.Name
	}

	for _, c := range post.EffectiveCategories {
		if len(card.Categories) == cardCategoryLimit {
			break
		}
		card.Categories = append(card.Categories, c.Name)
	}
	if len(card.Categories) == 0 {
		card.Categories = append([]string(nil), PlaceholderCategories...)
	}

	return card
}

func newPostCards(posts []feed.ResolvedPost, excerptor *feed.Excerptor) []PostCard {
	cards := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, newPostCard(p, excerptor))
	}
	return cards
}

func newAuthorView(a feed.Author) AuthorView {
	return AuthorView{
		ID:        a.ID,
		Name:      a.Name,
		AvatarURL: a.AvatarURL,
		Joined:    a.DisplayDate(DateLayout),
	}
}

func newCategoryView(c feed.Category) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name, Description: c.Description}
}

func newPostDetail(post feed.ResolvedPost) PostDetail {
	detail := PostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Content:     post.Content,
		Image:       post.DisplayImage(),
		Date:        post.DisplayDate(DateLayout),
		Categories:  make([]CategoryView, 0, len(post.EffectiveCategories)),
	}

	if post.EffectiveAuthor != nil {
		author := newAuthorView(*post.EffectiveAuthor)
		detail.Author = &author
	}

	for _, c := range post.EffectiveCategories {
		detail.Categories = append(detail.Categories, newCategoryView(c))
	}

	return detail
}
