package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-comb/app/auth"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/llm"
	"github.com/lysyi3m/news-comb/app/news"
	"github.com/lysyi3m/news-comb/app/prices"
)

// respondError maps classified failures to a status code and a short message.
// Unclassified errors are logged and reported as 500. Server-side failures
// are also sent to Sentry.
func respondError(c *gin.Context, operation string, err error) {
	status, message := classifyError(err)

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "status", status, "error", err)
		captureError(c, operation, status, err)
	} else {
		slog.Debug("Request rejected", "operation", operation, "status", status, "error", err)
	}

	c.JSON(status, gin.H{"error": message})
}

func captureError(c *gin.Context, operation string, status int, err error) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", operation)
		scope.SetTag("status", strconv.Itoa(status))
		hub.CaptureException(err)
	})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, database.ErrDuplicateUsername):
		return http.StatusConflict, "Username already registered"
	case errors.Is(err, database.ErrDuplicateUpvote):
		return http.StatusConflict, "Upvote already recorded"
	case errors.Is(err, database.ErrDuplicateURL):
		return http.StatusConflict, "Article already exists"
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "News article not found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream request timed out"
	case errors.Is(err, llm.ErrMalformedSummary), errors.Is(err, llm.ErrEmptyCompletion):
		return http.StatusBadGateway, "Language model returned an unusable reply"
	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadGateway, "Language model unavailable"
	case errors.Is(err, news.ErrUpstream), errors.Is(err, news.ErrMalformedArticle):
		return http.StatusBadGateway, "News source unavailable"
	case errors.Is(err, prices.ErrUpstream):
		return http.StatusBadGateway, "Price service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
