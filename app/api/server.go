package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/blog-comb/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+SessionHeader)
		c.Header("Access-Control-Expose-Headers", SessionHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	browse := r.Group("/", sessionMiddleware())
	{
		browse.GET("/posts", handler.leaveDetail, handler.ListPosts)
		browse.GET("/posts/:id", handler.GetPost)
		browse.GET("/authors", handler.leaveDetail, handler.ListAuthors)
		browse.GET("/authors/:id", handler.leaveDetail, handler.GetAuthor)
		browse.GET("/categories", handler.leaveDetail, handler.ListCategories)
		browse.GET("/categories/:id", handler.leaveDetail, handler.GetCategory)
	}

	s := r.Group("/session", sessionMiddleware())
	{
		s.GET("", handler.GetSession)
		s.PUT("/search", handler.SetSearch)
		s.PUT("/sort", handler.SetSort)

		s.PUT("/categories", handler.SetCategories)
		s.POST("/categories/:id", handler.AddCategory)
		s.DELETE("/categories/:id", handler.RemoveCategory)
		s.DELETE("/categories", handler.ClearCategories)

		s.PUT("/authors", handler.SetAuthors)
		s.POST("/authors/:id", handler.AddAuthor)
		s.DELETE("/authors/:id", handler.RemoveAuthor)
		s.DELETE("/authors", handler.ClearAuthors)

		s.DELETE("/filters", handler.ClearFilters)

		s.POST("/selection/:id", handler.ActivatePost)
		s.DELETE("/selection", handler.ClearActivePost)
	}

	r.GET("/feeds/:view", handler.GetFeed)
	r.GET("/ws", WSHandler(handler.hub))
	r.GET("/health", handler.GetHealth)

	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.POST("/refresh", handler.APIRefresh)
			api.GET("/views", handler.APIListViews)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"posts":      "/posts?search=&category=&author=&sort=",
			"post":       "/posts/<id>",
			"authors":    "/authors",
			"categories": "/categories",
			"session":    "/session",
			"feed":       "/feeds/<view>",
			"events":     "/ws",
			"health":     "/health",
		}

		if apiAccessKey != "" {
			endpoints["refresh"] = "/api/refresh (POST, requires X-API-Key header)"
			endpoints["views"] = "/api/views (requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "Blog Comb",
			"version":     cfg.GetVersion(),
			"description": "Filterable, sortable feed over a remote blog API",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
