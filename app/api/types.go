package api

import (
	"context"

	"github.com/lysyi3m/blog-comb/app/database"
	"github.com/lysyi3m/blog-comb/app/feed"
	"github.com/lysyi3m/blog-comb/app/session"
	"github.com/lysyi3m/blog-comb/app/source"
	"github.com/lysyi3m/blog-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(view feed.View, posts []feed.ResolvedPost) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// CatalogInterface serves the last stored snapshot of each collection.
type CatalogInterface interface {
	Posts() source.Query[[]feed.RawPost]
	Authors() source.Query[[]feed.RawAuthor]
	Categories() source.Query[[]feed.RawCategory]
}

var _ CatalogInterface = (*database.Catalog)(nil)

// PostFetcher reads a single post straight from the upstream API.
type PostFetcher interface {
	FetchPost(ctx context.Context, id feed.ID) (feed.RawPost, error)
}

var _ PostFetcher = (*source.Client)(nil)

type Handler struct {
	catalog      CatalogInterface
	snapshotRepo database.SnapshotRepository
	fetcher      PostFetcher
	actions      *session.Actions
	deriver      *feed.Deriver
	excerptor    *feed.Excerptor
	generator    GeneratorInterface
	viewCache    *feed.ViewCache
	scheduler    tasks.TaskSchedulerInterface
	hub          *Hub
}
