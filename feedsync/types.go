package feedsync

import (
	"time"
)

// AISource 提示词来源
type AISource string

const (
	AISourceChatGPT    AISource = "chatgpt"
	AISourceGemini     AISource = "gemini"
	AISourceGrok       AISource = "grok"
	AISourceMidjourney AISource = "midjourney"

	// DefaultAISource 未知来源的兜底值
	DefaultAISource = AISourceChatGPT
)

const (
	// DeletedUserName 作者信息全部缺失时展示的名字
	DeletedUserName = "Deleted User"
	// DefaultAvatarURL 头像缺失时的占位图
	DefaultAvatarURL = "https://cdn.promptfeed.app/static/avatar-placeholder.png"
	// PendingCommentPrefix 乐观评论的临时 ID 前缀
	PendingCommentPrefix = "temp-"
)

// Author 作者（动态 / 评论共用）
type Author struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// FeedItem 一条动态
type FeedItem struct {
	ID          string
	Prompt      string
	Title       string
	Description string
	Images      []string
	Category    string
	Tags        []string
	AISource    AISource
	VideoURL    string

	LikeCount     int
	CommentCount  int
	ShareCount    int
	BookmarkCount int

	// 相对当前用户的状态，匿名用户恒为 false
	IsLiked      bool
	IsBookmarked bool

	Author    Author
	CreatedAt time.Time
}

func (f FeedItem) clone() FeedItem {
	out := f
	if f.Images != nil {
		out.Images = append([]string(nil), f.Images...)
	}
	if f.Tags != nil {
		out.Tags = append([]string(nil), f.Tags...)
	}
	return out
}

// Comment 一条评论，ParentID 为空表示顶级评论
type Comment struct {
	ID           string
	PostID       string
	ParentID     string
	Content      string
	Author       Author
	CreatedAt    time.Time
	LikeCount    int
	IsLiked      bool
	RepliesCount int

	// Pending 乐观占位评论（ID 为临时 ID），后端确认后替换为真实 ID
	Pending bool
}

// Counter 动态上的计数字段
type Counter int

const (
	CounterLikes Counter = iota
	CounterComments
	CounterShares
	CounterBookmarks
)

func (c Counter) String() string {
	switch c {
	case CounterLikes:
		return "likes"
	case CounterComments:
		return "comments"
	case CounterShares:
		return "shares"
	case CounterBookmarks:
		return "bookmarks"
	}
	return "unknown"
}

// Flag 动态上相对当前用户的布尔状态
type Flag int

const (
	FlagLiked Flag = iota
	FlagBookmarked
)

// CommentCounter 评论上的计数字段
type CommentCounter int

const (
	CommentCounterLikes CommentCounter = iota
	CommentCounterReplies
)

// MutationKind 乐观操作类型
type MutationKind string

const (
	MutationLike          MutationKind = "like"
	MutationUnlike        MutationKind = "unlike"
	MutationBookmark      MutationKind = "bookmark"
	MutationUnbookmark    MutationKind = "unbookmark"
	MutationComment       MutationKind = "comment"
	MutationCommentLike   MutationKind = "commentLike"
	MutationCommentUnlike MutationKind = "commentUnlike"
)

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
