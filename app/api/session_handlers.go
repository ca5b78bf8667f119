package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lysyi3m/blog-comb/app/feed"
	"github.com/lysyi3m/blog-comb/app/session"
)

const (
	SessionHeader = "X-Session-ID"
	sessionKey    = "session_id"
)

// sessionMiddleware attaches a session id to every request. Clients that send
// no id, or one that is not a UUID, get a fresh one in the response header.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(sessionKey, id)
		c.Header(SessionHeader, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// leaveDetail clears the active post override. It runs ahead of every browse
// route except the post detail, since reaching one of them means the client
// has left the detail context.
func (h *Handler) leaveDetail(c *gin.Context) {
	if err := h.actions.ClearActivePost(c.Request.Context(), sessionID(c)); err != nil {
		slog.Warn("Failed to clear active post", "session", sessionID(c), "path", c.FullPath(), "error", err)
	}
	c.Next()
}

type searchRequest struct {
	Query string `json:"query"`
}

type sortRequest struct {
	Order string `json:"order" binding:"required"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) GetSession(c *gin.Context) {
	h.writeSession(c)
}

func (h *Handler) SetSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "set_search", h.actions.SetSearchQuery(c.Request.Context(), sessionID(c), req.Query))
}

func (h *Handler) SetSort(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := feed.ParseSortOrder(req.Order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "set_sort", h.actions.SetSortOrder(c.Request.Context(), sessionID(c), req.Order))
}

func (h *Handler) AddCategory(c *gin.Context) {
	h.mutate(c, "add_category", h.actions.AddCategory(c.Request.Context(), sessionID(c), feed.CleanID(c.Param("id"))))
}

func (h *Handler) RemoveCategory(c *gin.Context) {
	h.mutate(c, "remove_category", h.actions.RemoveCategory(c.Request.Context(), sessionID(c), feed.CleanID(c.Param("id"))))
}

func (h *Handler) ClearCategories(c *gin.Context) {
	h.mutate(c, "clear_categories", h.actions.ClearCategories(c.Request.Context(), sessionID(c)))
}

func (h *Handler) SetCategories(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "set_categories", h.actions.SetSelectedCategories(c.Request.Context(), sessionID(c), toIDs(req.IDs)))
}

func (h *Handler) AddAuthor(c *gin.Context) {
	h.mutate(c, "add_author", h.actions.AddAuthor(c.Request.Context(), sessionID(c), feed.CleanID(c.Param("id"))))
}

func (h *Handler) RemoveAuthor(c *gin.Context) {
	h.mutate(c, "remove_author", h.actions.RemoveAuthor(c.Request.Context(), sessionID(c), feed.CleanID(c.Param("id"))))
}

func (h *Handler) ClearAuthors(c *gin.Context) {
	h.mutate(c, "clear_authors", h.actions.ClearAuthors(c.Request.Context(), sessionID(c)))
}

func (h *Handler) SetAuthors(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, "set_authors", h.actions.SetSelectedAuthors(c.Request.Context(), sessionID(c), toIDs(req.IDs)))
}

func (h *Handler) ClearFilters(c *gin.Context) {
	h.mutate(c, "clear_filters", h.actions.ClearAllFilters(c.Request.Context(), sessionID(c)))
}

func (h *Handler) ActivatePost(c *gin.Context) {
	h.mutate(c, "activate_post", h.actions.ActivatePost(c.Request.Context(), sessionID(c), feed.CleanID(c.Param("id"))))
}

func (h *Handler) ClearActivePost(c *gin.Context) {
	h.mutate(c, "clear_active_post", h.actions.ClearActivePost(c.Request.Context(), sessionID(c)))
}

// mutate reports the outcome of a session action and echoes the new state.
func (h *Handler) mutate(c *gin.Context, operation string, err error) {
	switch {
	case err == nil:
		h.writeSession(c)
	case errors.Is(err, session.ErrInvalidInput), errors.Is(err, session.ErrInvalidSession):
		slog.Warn("Session update rejected", "operation", operation, "session", sessionID(c), "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Session error", "operation", operation, "session", sessionID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session error"})
	}
}

func (h *Handler) writeSession(c *gin.Context) {
	st, err := h.actions.State(c.Request.Context(), sessionID(c))
	if err != nil {
		slog.Error("Session error", "operation", "load_session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":     sessionID(c),
		"criteria":       st.Criteria,
		"sort_label":     st.Criteria.SortOrder.Label(),
		"filters_active": !st.Criteria.IsDefault(),
		"selection": gin.H{
			"state":    st.Selection.State(),
			"override": st.Selection.Override,
		},
	})
}
