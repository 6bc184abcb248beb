package message

import "time"

// 后端行结构（HTTP 拉取 + 实时推送共用）。
// 所有字段都可能缺失，消费方必须容错：缺失的计数按 0 处理，缺失的作者按“已注销用户”处理。

// AuthorRow 作者信息（join 出来的 user 字段）
type AuthorRow struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Username    string `json:"username,omitempty"`
	Name        string `json:"name,omitempty"` // 旧版本的昵称字段
	Avatar      string `json:"avatar,omitempty"`
}

// PostRow 动态行
type PostRow struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	Prompt         string     `json:"prompt"`
	Images         []string   `json:"images,omitempty"`
	Category       string     `json:"category,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	AISource       string     `json:"ai_source,omitempty"`
	VideoURL       string     `json:"video_url,omitempty"`
	LikesCount     int64      `json:"likes_count"`
	CommentsCount  int64      `json:"comments_count"`
	SharesCount    int64      `json:"shares_count"`
	BookmarksCount int64      `json:"bookmarks_count"`
	IsLiked        bool       `json:"is_liked"`
	IsBookmarked   bool       `json:"is_bookmarked"`
	CreatedAt      time.Time  `json:"created_at"`
	Author         *AuthorRow `json:"author,omitempty"`
}

// CommentRow 评论行，ParentID 为 nil 表示顶级评论
type CommentRow struct {
	ID           string     `json:"id"`
	PostID       string     `json:"post_id"`
	ParentID     *string    `json:"parent_id"`
	UserID       string     `json:"user_id,omitempty"`
	Content      string     `json:"content"`
	LikesCount   int64      `json:"likes_count"`
	RepliesCount int64      `json:"replies_count"`
	IsLiked      bool       `json:"is_liked"`
	CreatedAt    time.Time  `json:"created_at"`
	Author       *AuthorRow `json:"author,omitempty"`
}

// LikeRow 动态点赞行
type LikeRow struct {
	ID        string    `json:"id,omitempty"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkRow 收藏行
type BookmarkRow struct {
	ID        string    `json:"id,omitempty"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLikeRow 评论点赞行（冗余 post_id，方便客户端定位评论所在动态）
type CommentLikeRow struct {
	ID        string    `json:"id,omitempty"`
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
