package database

// Article is a stored news article. Time is kept exactly as the source site
// formats it and is only ever compared as a string.
type Article struct {
	ID      int64
	URL     string
	Title   string
	Time    string
	Content string
	Summary string
	Reason  string
}

type User struct {
	ID             int64
	Username       string
	HashedPassword string
}

type UpvoteAction string

const (
	UpvoteAdded   UpvoteAction = "added"
	UpvoteRemoved UpvoteAction = "removed"
)

// Message is the user-facing text reported for a toggle result.
func (a UpvoteAction) Message() string {
	if a == UpvoteRemoved {
		return "Upvote removed"
	}
	return "Article upvoted"
}
