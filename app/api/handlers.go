package api

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/blog-comb/app/database"
	"github.com/lysyi3m/blog-comb/app/feed"
	"github.com/lysyi3m/blog-comb/app/session"
	"github.com/lysyi3m/blog-comb/app/source"
	"github.com/lysyi3m/blog-comb/app/tasks"
)

func NewHandler(catalog CatalogInterface, snapshotRepo database.SnapshotRepository, fetcher PostFetcher,
	actions *session.Actions, viewCache *feed.ViewCache, scheduler tasks.TaskSchedulerInterface, hub *Hub) *Handler {
	excerptor := feed.NewExcerptor(0)

	return &Handler{
		catalog:      catalog,
		snapshotRepo: snapshotRepo,
		fetcher:      fetcher,
		actions:      actions,
		deriver:      feed.NewDeriver(feed.NewFilterer(), feed.NewSorter()),
		excerptor:    excerptor,
		generator:    feed.NewGenerator(excerptor),
		viewCache:    viewCache,
		scheduler:    scheduler,
		hub:          hub,
	}
}

// snapshot is one consistent, normalized read of all three collections.
type snapshot struct {
	posts []feed.Post
	index *feed.Index
}

// loadSnapshot gates on the status of every collection. It writes the
// response and returns false while any of them is loading or failed.
func (h *Handler) loadSnapshot(c *gin.Context) (*snapshot, bool) {
	posts := h.catalog.Posts()
	authors := h.catalog.Authors()
	categories := h.catalog.Categories()

	if !gate(c, posts.IsLoading, posts.Err) ||
		!gate(c, authors.IsLoading, authors.Err) ||
		!gate(c, categories.IsLoading, categories.Err) {
		return nil, false
	}

	return &snapshot{
		posts: feed.NormalizePosts(posts.Data),
		index: feed.NewIndex(feed.NormalizeAuthors(authors.Data), feed.NormalizeCategories(categories.Data)),
	}, true
}

func gate(c *gin.Context, loading bool, err error) bool {
	if err != nil {
		slog.Error("Upstream data unavailable", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "error": err.Error()})
		return false
	}
	if loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return false
	}
	return true
}

// criteria returns the session criteria with any query parameters applied on
// top. The session itself is not modified. On failure the response is written
// and false is returned.
func (h *Handler) criteria(c *gin.Context) (feed.Criteria, bool) {
	criteria, err := h.actions.Criteria(c.Request.Context(), sessionID(c))
	if err != nil {
		slog.Error("Session error", "operation", "load_criteria", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session error"})
		return feed.Criteria{}, false
	}

	if search, ok := c.GetQuery("search"); ok {
		criteria.SearchQuery = search
	}
	if ids, ok := c.GetQueryArray("category"); ok {
		criteria.SelectedCategories = toIDs(ids)
	}
	if ids, ok := c.GetQueryArray("author"); ok {
		criteria.SelectedAuthors = toIDs(ids)
	}
	if sort, ok := c.GetQuery("sort"); ok {
		order, err := feed.ParseSortOrder(sort)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return feed.Criteria{}, false
		}
		criteria.SortOrder = order
	}

	return criteria, true
}

func (h *Handler) ListPosts(c *gin.Context) {
	criteria, ok := h.criteria(c)
	if !ok {
		return
	}

	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	posts := h.deriver.RunNormalized(snap.posts, snap.index, criteria)

	c.Header("X-Feed-Items", strconv.Itoa(len(posts)))
	c.JSON(http.StatusOK, gin.H{
		"posts":    newPostCards(posts, h.excerptor),
		"total":    len(posts),
		"criteria": criteria,
	})
}

func (h *Handler) GetPost(c *gin.Context) {
	selection, err := h.actions.Selection(c.Request.Context(), sessionID(c))
	if err != nil {
		slog.Error("Session error", "operation", "get_selection", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session error"})
		return
	}

	routeID := feed.CleanID(c.Param("id"))
	activeID, ok := selection.ActivePostID(routeID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No post selected"})
		return
	}

	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	post, found := feed.FindPost(snap.posts, activeID)
	if !found {
		raw, err := h.fetcher.FetchPost(c.Request.Context(), activeID)
		if errors.Is(err, source.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		if err != nil {
			slog.Error("Upstream error", "operation", "fetch_post", "post", activeID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch post"})
			return
		}
		post = feed.NormalizePost(raw)
	}

	c.JSON(http.StatusOK, gin.H{
		"post": newPostDetail(snap.index.Resolve(post)),
		"selection": gin.H{
			"state":     selection.State(),
			"route_id":  routeID,
			"active_id": activeID,
		},
	})
}

func (h *Handler) ListAuthors(c *gin.Context) {
	q := h.catalog.Authors()
	if !gate(c, q.IsLoading, q.Err) {
		return
	}

	authors := feed.NormalizeAuthors(q.Data)
	views := make([]AuthorView, 0, len(authors))
	for _, a := range authors {
		views = append(views, newAuthorView(a))
	}

	c.JSON(http.StatusOK, gin.H{"authors": views, "total": len(views)})
}

func (h *Handler) ListCategories(c *gin.Context) {
	q := h.catalog.Categories()
	if !gate(c, q.IsLoading, q.Err) {
		return
	}

	categories := feed.NormalizeCategories(q.Data)
	views := make([]CategoryView, 0, len(categories))
	for _, cat := range categories {
		views = append(views, newCategoryView(cat))
	}

	c.JSON(http.StatusOK, gin.H{"categories": views, "total": len(views)})
}

func (h *Handler) GetAuthor(c *gin.Context) {
	id := feed.CleanID(c.Param("id"))

	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	author, found := snap.index.Author(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}

	posts := h.deriver.PostsByAuthor(snap.posts, snap.index, id)

	c.JSON(http.StatusOK, gin.H{
		"author": newAuthorView(author),
		"posts":  newPostCards(posts, h.excerptor),
		"total":  len(posts),
	})
}

func (h *Handler) GetCategory(c *gin.Context) {
	id := feed.CleanID(c.Param("id"))

	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	category, found := snap.index.Category(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	posts := h.deriver.PostsByCategory(snap.posts, snap.index, id)

	c.JSON(http.StatusOK, gin.H{
		"category": newCategoryView(category),
		"posts":    newPostCards(posts, h.excerptor),
		"total":    len(posts),
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("view")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	view, err := h.viewCache.GetView(name)
	if err != nil {
		slog.Error("View not found", "view", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	posts := h.deriver.RunNormalized(snap.posts, snap.index, view.Criteria())
	if view.MaxItems > 0 && len(posts) > view.MaxItems {
		posts = posts[:view.MaxItems]
	}

	rss, err := h.generator.Run(*view, posts)
	if err != nil {
		slog.Error("RSS generation error", "view", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(posts)))
	c.Header("X-Feed-Name", name)

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if snapshots, err := h.snapshotRepo.ListSnapshots(); err == nil {
		resources := make(map[string]interface{}, len(snapshots))
		for _, s := range snapshots {
			resources[s.Resource] = map[string]interface{}{
				"status":     s.Status,
				"items":      s.ItemCount,
				"fetched_at": s.FetchedAt,
				"error":      s.Error,
			}
		}
		health["snapshots"] = resources
	}

	health["session_store"] = "ok"
	if err := h.actions.Ping(c.Request.Context()); err != nil {
		slog.Warn("Session store unreachable", "error", err)
		health["session_store"] = err.Error()
	}

	health["loaded_views"] = h.viewCache.GetViewCount()
	health["ws_clients"] = h.hub.Count()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIRefresh(c *gin.Context) {
	queued := h.scheduler.EnqueueRefresh()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"queued":  queued,
		"message": "Refresh tasks enqueued",
	})
}

func (h *Handler) APIListViews(c *gin.Context) {
	views := h.viewCache.GetViews()

	names := slices.Sorted(maps.Keys(views))

	out := make([]map[string]interface{}, 0, len(views))
	for _, name := range names {
		v := views[name]
		out = append(out, map[string]interface{}{
			"name":       v.Name,
			"title":      v.Title,
			"search":     v.Search,
			"categories": v.Categories,
			"authors":    v.Authors,
			"sort":       v.Sort,
			"sort_label": v.Criteria().SortOrder.Label(),
			"max_items":  v.MaxItems,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"views": out,
		"total": len(out),
	})
}

func toIDs(values []string) []feed.ID {
	ids := make([]feed.ID, 0, len(values))
	for _, v := range values {
		if id := feed.CleanID(v); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
