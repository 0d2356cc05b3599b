package database

import (
	"context"
	"fmt"
)

var _ UpvoteRepository = (*UpvoteRepo)(nil)

// UpvoteRepo manages the user/article association table. A row's existence is the vote.
type UpvoteRepo struct {
	db *DB
}

func NewUpvoteRepository(db *DB) *UpvoteRepo {
	return &UpvoteRepo{db: db}
}

// ToggleUpvote removes the vote when present and adds it otherwise. There is no
// application-level lock: two concurrent adds race on the composite primary key
// and the loser gets ErrDuplicateUpvote.
func (r *UpvoteRepo) ToggleUpvote(ctx context.Context, articleID, userID int64) (UpvoteAction, error) {
	exists, err := r.HasUpvote(ctx, articleID, userID)
	if err != nil {
		return "", err
	}

	if exists {
		if err := r.RemoveUpvote(ctx, articleID, userID); err != nil {
			return "", err
		}
		return UpvoteRemoved, nil
	}

	if err := r.AddUpvote(ctx, articleID, userID); err != nil {
		return "", err
	}
	return UpvoteAdded, nil
}

func (r *UpvoteRepo) AddUpvote(ctx context.Context, articleID, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO user_news_upvotes (user_id, news_article_id)
		VALUES (?, ?)
	`), userID, articleID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to add upvote: %w", ErrDuplicateUpvote)
		}
		return fmt.Errorf("failed to add upvote: %w", err)
	}

	return nil
}

func (r *UpvoteRepo) RemoveUpvote(ctx context.Context, articleID, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM user_news_upvotes
		WHERE news_article_id = ? AND user_id = ?
	`), articleID, userID)

	if err != nil {
		return fmt.Errorf("failed to remove upvote: %w", err)
	}

	return nil
}

func (r *UpvoteRepo) HasUpvote(ctx context.Context, articleID, userID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT COUNT(*) FROM user_news_upvotes
		WHERE news_article_id = ? AND user_id = ?
	`), articleID, userID).Scan(&count)

	if err != nil {
		return false, fmt.Errorf("failed to check upvote: %w", err)
	}

	return count > 0, nil
}

// GetUpvoteDetails returns the vote count of an article and whether userID voted
// for it. A zero userID is an anonymous reader and never counts as upvoted.
func (r *UpvoteRepo) GetUpvoteDetails(ctx context.Context, articleID, userID int64) (int, bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT COUNT(*) FROM user_news_upvotes WHERE news_article_id = ?
	`), articleID).Scan(&count)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count upvotes: %w", err)
	}

	if userID == 0 {
		return count, false, nil
	}

	upvoted, err := r.HasUpvote(ctx, articleID, userID)
	if err != nil {
		return 0, false, err
	}

	return count, upvoted, nil
}
