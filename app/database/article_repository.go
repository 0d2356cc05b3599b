package database

import (
	"context"
	"fmt"
)

var _ ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo handles database operations for news articles
type ArticleRepo struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// CreateArticle inserts an article and returns its id. Articles are written at
// most once per url; a second write fails with ErrDuplicateURL.
func (r *ArticleRepo) CreateArticle(ctx context.Context, article Article) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO news_articles (url, title, time, content, summary, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), article.URL, article.Title, article.Time, article.Content, article.Summary, article.Reason).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("failed to store article %s: %w", article.URL, ErrDuplicateURL)
		}
		return 0, fmt.Errorf("failed to store article: %w", err)
	}

	return id, nil
}

func (r *ArticleRepo) ArticleExists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		"SELECT COUNT(*) FROM news_articles WHERE id = ?",
	), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check article existence: %w", err)
	}
	return count > 0, nil
}

// GetArticles returns every article, newest time string first.
func (r *ArticleRepo) GetArticles(ctx context.Context) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, title, time, content, summary, reason
		FROM news_articles
		ORDER BY `+r.db.orderByTime())
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		var article Article
		err := rows.Scan(
			&article.ID, &article.URL, &article.Title, &article.Time,
			&article.Content, &article.Summary, &article.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepo) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
