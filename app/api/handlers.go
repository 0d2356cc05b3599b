package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-comb/app/database"
)

func NewHandler(articles ArticleStore, upvotes UpvoteStore, users UserCounter, authn Authenticator,
	searcher NewsSearcher, summarizer TextSummarizer, prices PriceFetcher, feed FeedRenderer,
	cache HealthReporter, version string) *Handler {
	return &Handler{
		articles:   articles,
		upvotes:    upvotes,
		users:      users,
		auth:       authn,
		searcher:   searcher,
		summarizer: summarizer,
		prices:     prices,
		feed:       feed,
		cache:      cache,
		version:    version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if articleCount, err := h.articles.GetArticleCount(ctx); err == nil {
		health["articles"] = articleCount
	} else {
		health["status"] = "degraded"
	}

	if userCount, err := h.users.GetUserCount(ctx); err == nil {
		health["users"] = userCount
	}

	health["cache"] = h.cache.Health(ctx)

	c.JSON(http.StatusOK, health)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password form fields are required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		respondError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, UserResponse{ID: user.ID, Username: user.Username})
}

func (h *Handler) GetMe(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// ListNews returns every stored article for an anonymous reader.
func (h *Handler) ListNews(c *gin.Context) {
	h.listArticles(c, 0)
}

// ListUserNews is ListNews with the caller's own upvote flags.
func (h *Handler) ListUserNews(c *gin.Context) {
	h.listArticles(c, currentUser(c).ID)
}

func (h *Handler) listArticles(c *gin.Context, userID int64) {
	ctx := c.Request.Context()

	articles, err := h.articles.GetArticles(ctx)
	if err != nil {
		respondError(c, "list_articles", err)
		return
	}

	response := make([]ArticleResponse, 0, len(articles))
	for _, article := range articles {
		upvotes, upvoted, err := h.upvotes.GetUpvoteDetails(ctx, article.ID, userID)
		if err != nil {
			respondError(c, "upvote_details", err)
			return
		}

		response = append(response, ArticleResponse{
			ID:        article.ID,
			URL:       article.URL,
			Title:     article.Title,
			Time:      article.Time,
			Content:   article.Content,
			Summary:   article.Summary,
			Reason:    article.Reason,
			Upvotes:   upvotes,
			IsUpvoted: upvoted,
		})
	}

	c.JSON(http.StatusOK, response)
}

// GetNewsFeed renders the stored articles as RSS in listing order.
func (h *Handler) GetNewsFeed(c *gin.Context) {
	articles, err := h.articles.GetArticles(c.Request.Context())
	if err != nil {
		respondError(c, "news_feed", err)
		return
	}

	rss, err := h.feed.Run(articles)
	if err != nil {
		respondError(c, "news_feed", err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *Handler) SearchNews(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	results, err := h.searcher.Search(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, "search_news", err)
		return
	}

	response := make([]SearchResultResponse, 0, len(results))
	for _, result := range results {
		response = append(response, SearchResultResponse{
			ID:      result.ID,
			URL:     result.URL,
			Title:   result.Title,
			Time:    result.Time,
			Content: result.Content,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) SummarizeNews(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	summary, err := h.summarizer.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		respondError(c, "news_summary", err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{Summary: summary.Impact, Reason: summary.Cause})
}

func (h *Handler) ToggleUpvote(c *gin.Context) {
	ctx := c.Request.Context()

	articleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || articleID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return
	}

	exists, err := h.articles.ArticleExists(ctx, articleID)
	if err != nil {
		respondError(c, "article_exists", err)
		return
	}
	if !exists {
		respondError(c, "toggle_upvote", database.ErrNotFound)
		return
	}

	user := currentUser(c)

	action, err := h.upvotes.ToggleUpvote(ctx, articleID, user.ID)
	if err != nil {
		respondError(c, "toggle_upvote", err)
		return
	}

	upvotes, _, err := h.upvotes.GetUpvoteDetails(ctx, articleID, user.ID)
	if err != nil {
		respondError(c, "upvote_details", err)
		return
	}

	c.JSON(http.StatusOK, UpvoteResponse{Message: action.Message(), Upvotes: upvotes})
}

func (h *Handler) GetNecessitiesPrice(c *gin.Context) {
	data, err := h.prices.Fetch(c.Request.Context(), c.Query("category"), c.Query("commodity"))
	if err != nil {
		respondError(c, "necessities_price", err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
