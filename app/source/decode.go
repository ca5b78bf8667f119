package source

import (
	"encoding/json"
	"fmt"

	"github.com/lysyi3m/blog-comb/app/feed"
)

// Validate checks that a collection payload decodes as the raw shape of its
// resource, so a malformed response never replaces a good snapshot.
func Validate(resource Resource, data []byte) (int, error) {
	switch resource {
	case ResourcePosts:
		posts, err := DecodePosts(data)
		return len(posts), err
	case ResourceAuthors:
		authors, err := DecodeAuthors(data)
		return len(authors), err
	case ResourceCategories:
		categories, err := DecodeCategories(data)
		return len(categories), err
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}

func DecodePosts(data []byte) ([]feed.RawPost, error) {
	return decodeList[feed.RawPost](data)
}

func DecodeAuthors(data []byte) ([]feed.RawAuthor, error) {
	return decodeList[feed.RawAuthor](data)
}

func DecodeCategories(data []byte) ([]feed.RawCategory, error) {
	return decodeList[feed.RawCategory](data)
}

func decodeList[T any](data []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
