package post

import "time"

const (
	CategoryGeneral   = "general"
	CategoryMusic     = "music"
	CategorySports    = "sports"
	CategoryLifestyle = "lifestyle"
	CategoryTech      = "tech"
	CategoryFood      = "food"
	CategoryArt       = "art"
	CategoryTravel    = "travel"
)

var categories = map[string]struct{}{
	CategoryGeneral:   {},
	CategoryMusic:     {},
	CategorySports:    {},
	CategoryLifestyle: {},
	CategoryTech:      {},
	CategoryFood:      {},
	CategoryArt:       {},
	CategoryTravel:    {},
}

func ValidCategory(c string) bool {
	_, ok := categories[c]
	return ok
}

// Post carries the author's username and avatar as captured at creation
// time; a later profile change does not rewrite history.
type Post struct {
	ID              string    `json:"id"`
	AuthorID        string    `json:"user_id"`
	AuthorUsername  string    `json:"username"`
	AuthorAvatarURL string    `json:"avatar_url,omitempty"`
	Content         string    `json:"content"`
	MediaURLs       []string  `json:"media_urls,omitempty"`
	Category        string    `json:"category"`
	LikeCount       int       `json:"likes_count"`
	ShareCount      int       `json:"shares_count"`
	CommentCount    int       `json:"comments_count"`
	LatestComments  []Comment `json:"latest_comments,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Comment struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	AuthorID        string    `json:"user_id"`
	AuthorUsername  string    `json:"username"`
	AuthorAvatarURL string    `json:"avatar_url,omitempty"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

type Page struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

type CommentPage struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor"`
	HasMore    bool      `json:"has_more"`
}

type CreateRequest struct {
	Content   string   `json:"content"`
	MediaURLs []string `json:"media_urls"`
	Category  string   `json:"category"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
