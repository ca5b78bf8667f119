package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ID is a canonical entity identifier. Numeric and textual identifiers from
// the upstream API converge to the same decimal text form.
type ID string

// CleanID turns an identifier taken from a path, query string or view preset
// into an ID. Surrounding whitespace is not part of an identifier.
func CleanID(s string) ID {
	return ID(strings.TrimSpace(s))
}

// RawID decodes an identifier that may arrive as a JSON number or string.
type RawID struct {
	value string
}

func NewRawID(v string) RawID {
	return RawID{value: v}
}

func (r RawID) String() string {
	return r.value
}

func (r RawID) IsZero() bool {
	return r.value == ""
}

func (r *RawID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.value = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid identifier %s: %w", data, err)
		}
		r.value = s
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid identifier %s: %w", data, err)
	}
	r.value = canonicalNumber(n)
	return nil
}

func (r RawID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

func canonicalNumber(n json.Number) string {
	// Integer literals keep every digit, including ones past int64.
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, ok := new(big.Int).SetString(n.String(), 10); ok {
			return i.String()
		}
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// Raw upstream shapes. Field names drifted between API releases, so both
// spellings are accepted and the normalizer picks one.

type RawPost struct {
	ID            RawID         `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Content       string        `json:"content"`
	ImageURL      string        `json:"image_url"`
	ThumbnailURL  string        `json:"thumbnail_url"`
	CreatedAt     string        `json:"createdAt"`
	CreatedAtAlt  string        `json:"created_at"`
	UpdatedAt     string        `json:"updatedAt"`
	UpdatedAtAlt  string        `json:"updated_at"`
	AuthorID      RawID         `json:"authorId"`
	AuthorIDAlt   RawID         `json:"author_id"`
	CategoryID    RawID         `json:"categoryId"`
	CategoryIDAlt RawID         `json:"category_id"`
	Author        *RawAuthor    `json:"author"`
	Categories    []RawCategory `json:"categories"`
}

type RawAuthor struct {
	ID             RawID  `json:"id"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url"`
	ProfilePicture string `json:"profilePicture"`
	CreatedAt      string `json:"createdAt"`
	CreatedAtAlt   string `json:"created_at"`
	UpdatedAt      string `json:"updatedAt"`
	UpdatedAtAlt   string `json:"updated_at"`
}

type RawCategory struct {
	ID          RawID  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Canonical entities

type Post struct {
	ID           ID         `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Content      string     `json:"content,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	CreatedAt    string     `json:"createdAt"`
	UpdatedAt    string     `json:"updatedAt,omitempty"`
	AuthorID     ID         `json:"authorId,omitempty"`
	CategoryID   ID         `json:"categoryId,omitempty"`
	Author       *Author    `json:"author,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
}

type Author struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type Category struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResolvedPost is a post with its effective author and categories attached.
type ResolvedPost struct {
	Post
	EffectiveAuthor     *Author    `json:"effective_author,omitempty"`
	EffectiveCategories []Category `json:"effective_categories"`
}

// EffectiveAuthorID returns the effective author's identifier, or "" when the
// author could not be resolved.
func (p ResolvedPost) EffectiveAuthorID() ID {
	if p.EffectiveAuthor == nil {
		return ""
	}
	return p.EffectiveAuthor.ID
}

func (p ResolvedPost) EffectiveCategoryIDs() []ID {
	ids := make([]ID, 0, len(p.EffectiveCategories))
	for _, c := range p.EffectiveCategories {
		ids = append(ids, c.ID)
	}
	return ids
}
