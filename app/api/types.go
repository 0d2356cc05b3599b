package api

import (
	"context"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/llm"
	"github.com/lysyi3m/news-comb/app/pipeline"
)

type ArticleStore interface {
	GetArticles(ctx context.Context) ([]database.Article, error)
	ArticleExists(ctx context.Context, id int64) (bool, error)
	GetArticleCount(ctx context.Context) (int, error)
}

type UpvoteStore interface {
	ToggleUpvote(ctx context.Context, articleID, userID int64) (database.UpvoteAction, error)
	GetUpvoteDetails(ctx context.Context, articleID, userID int64) (int, bool, error)
}

type UserCounter interface {
	GetUserCount(ctx context.Context) (int, error)
}

type Authenticator interface {
	Register(ctx context.Context, username, password string) (*database.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*database.User, error)
}

type NewsSearcher interface {
	Search(ctx context.Context, prompt string) ([]pipeline.EphemeralArticle, error)
}

type TextSummarizer interface {
	Summarize(ctx context.Context, body string) (llm.Summary, error)
}

type PriceFetcher interface {
	Fetch(ctx context.Context, category, commodity string) ([]byte, error)
}

type FeedRenderer interface {
	Run(articles []database.Article) (string, error)
}

type HealthReporter interface {
	Health(ctx context.Context) map[string]interface{}
}

type Handler struct {
	articles   ArticleStore
	upvotes    UpvoteStore
	users      UserCounter
	auth       Authenticator
	searcher   NewsSearcher
	summarizer TextSummarizer
	prices     PriceFetcher
	feed       FeedRenderer
	cache      HealthReporter
	version    string
}

// Request and response bodies

type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SearchRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type SummaryRequest struct {
	Content string `json:"content" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type ArticleResponse struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Content   string `json:"content"`
	Summary   string `json:"summary"`
	Reason    string `json:"reason"`
	Upvotes   int    `json:"upvotes"`
	IsUpvoted bool   `json:"is_upvoted"`
}

type SearchResultResponse struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Time    string `json:"time"`
	Content string `json:"content"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

type UpvoteResponse struct {
	Message string `json:"message"`
	Upvotes int    `json:"upvotes"`
}
