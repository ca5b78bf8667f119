package database

import (
	"fmt"

	"github.com/lysyi3m/blog-comb/app/feed"
	"github.com/lysyi3m/blog-comb/app/source"
)

// Catalog exposes stored snapshots as query results for the feed engine.
type Catalog struct {
	repo SnapshotRepository
}

func NewCatalog(repo SnapshotRepository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) Posts() source.Query[[]feed.RawPost] {
	return load(c.repo, source.ResourcePosts, source.DecodePosts)
}

func (c *Catalog) Authors() source.Query[[]feed.RawAuthor] {
	return load(c.repo, source.ResourceAuthors, source.DecodeAuthors)
}

func (c *Catalog) Categories() source.Query[[]feed.RawCategory] {
	return load(c.repo, source.ResourceCategories, source.DecodeCategories)
}

func load[T any](repo SnapshotRepository, resource source.Resource, decode func([]byte) ([]T, error)) source.Query[[]T] {
	snapshot, err := repo.GetSnapshot(string(resource))
	if err != nil {
		return source.Failed[[]T](err)
	}

	if snapshot == nil || (snapshot.Status == StatusLoading && !snapshot.HasPayload()) {
		return source.Loading[[]T]()
	}

	if !snapshot.HasPayload() {
		return source.Failed[[]T](fmt.Errorf("failed to fetch %s: %s", resource, snapshot.Error))
	}

	items, err := decode(snapshot.Payload)
	if err != nil {
		return source.Failed[[]T](fmt.Errorf("failed to decode %s snapshot: %w", resource, err))
	}

	return source.Loaded(items)
}
