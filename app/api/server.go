package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP engine with all routes configured
func NewServer(handler *Handler, authn Authenticator, allowedOrigin string) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
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
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(corsMiddleware(allowedOrigin))

	setupRoutes(r, handler, authn)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, authn Authenticator) {
	r.GET("/health", handler.GetHealth)

	requireUser := authMiddleware(authn)

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		users.POST("/login", handler.Login)
		users.POST("/register", handler.Register)
		users.GET("/me", requireUser, handler.GetMe)

		newsGroup := v1.Group("/news")
		newsGroup.GET("/news", handler.ListNews)
		newsGroup.GET("/user_news", requireUser, handler.ListUserNews)
		newsGroup.GET("/rss", handler.GetNewsFeed)
		newsGroup.POST("/search_news", handler.SearchNews)
		newsGroup.POST("/news_summary", requireUser, handler.SummarizeNews)
		newsGroup.POST("/:id/upvote", requireUser, handler.ToggleUpvote)

		v1.GET("/prices/necessities-price", handler.GetNecessitiesPrice)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "News Comb",
			"version":     handler.version,
			"description": "News aggregation with relevance filtering and summaries",
			"endpoints": map[string]string{
				"news":   "/api/v1/news/news",
				"search": "/api/v1/news/search_news (POST)",
				"rss":    "/api/v1/news/rss",
				"prices": "/api/v1/prices/necessities-price",
				"health": "/health",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	slog.Debug("Routes configured", "routes", len(r.Routes()))
}
