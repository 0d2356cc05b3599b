package database

import "context"

type ArticleRepository interface {
	CreateArticle(ctx context.Context, article Article) (int64, error)
	ArticleExists(ctx context.Context, id int64) (bool, error)
	GetArticles(ctx context.Context) ([]Article, error)
	GetArticleCount(ctx context.Context) (int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, hashedPassword string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserCount(ctx context.Context) (int, error)
}

type UpvoteRepository interface {
	ToggleUpvote(ctx context.Context, articleID, userID int64) (UpvoteAction, error)
	GetUpvoteDetails(ctx context.Context, articleID, userID int64) (int, bool, error)
}
