package feedsync

import (
	"strings"

	"github.com/cydxin/prompt-feed-sdk/message"
)

// TransformPost 把后端动态行转换成 FeedItem。
// 纯函数：同样的输入永远得到同样的输出，缺失字段按默认值处理，不会 panic。
func TransformPost(row message.PostRow, viewerID string) FeedItem {
	item := FeedItem{
		ID:            row.ID,
		Prompt:        row.Prompt,
		Title:         strings.TrimSpace(row.Title),
		Description:   strings.TrimSpace(row.Description),
		Images:        cleanStrings(row.Images, false),
		Category:      strings.TrimSpace(row.Category),
		Tags:          cleanStrings(row.Tags, true),
		AISource:      ParseAISource(row.AISource),
		VideoURL:      strings.TrimSpace(row.VideoURL),
		LikeCount:     clampCount(row.LikesCount),
		CommentCount:  clampCount(row.CommentsCount),
		ShareCount:    clampCount(row.SharesCount),
		BookmarkCount: clampCount(row.BookmarksCount),
		Author:        TransformAuthor(row.Author, row.UserID),
		CreatedAt:     row.CreatedAt,
	}
	// 匿名用户的 is_liked/is_bookmarked 没有意义
	if viewerID != "" {
		item.IsLiked = row.IsLiked
		item.IsBookmarked = row.IsBookmarked
	}
	return item
}

// TransformComment 把后端评论行转换成 Comment
func TransformComment(row message.CommentRow, viewerID string) Comment {
	c := Comment{
		ID:           row.ID,
		PostID:       row.PostID,
		Content:      row.Content,
		Author:       TransformAuthor(row.Author, row.UserID),
		CreatedAt:    row.CreatedAt,
		LikeCount:    clampCount(row.LikesCount),
		RepliesCount: clampCount(row.RepliesCount),
	}
	if row.ParentID != nil {
		c.ParentID = strings.TrimSpace(*row.ParentID)
	}
	if viewerID != "" {
		c.IsLiked = row.IsLiked
	}
	c.Pending = strings.HasPrefix(c.ID, PendingCommentPrefix)
	return c
}

// TransformAuthor 名字兜底链：display_name -> username -> name -> "Deleted User"。
// fallbackID 在 author 缺失时使用（原始表行一般只有 user_id）。
func TransformAuthor(row *message.AuthorRow, fallbackID string) Author {
	a := Author{ID: fallbackID, DisplayName: DeletedUserName, AvatarURL: DefaultAvatarURL}
	if row == nil {
		return a
	}
	if row.ID != "" {
		a.ID = row.ID
	}
	for _, name := range []string{row.DisplayName, row.Username, row.Name} {
		if n := strings.TrimSpace(name); n != "" {
			a.DisplayName = n
			break
		}
	}
	if avatar := strings.TrimSpace(row.Avatar); avatar != "" {
		a.AvatarURL = avatar
	}
	return a
}

// ParseAISource 大小写不敏感，未知值返回 DefaultAISource
func ParseAISource(s string) AISource {
	switch AISource(strings.ToLower(strings.TrimSpace(s))) {
	case AISourceChatGPT:
		return AISourceChatGPT
	case AISourceGemini:
		return AISourceGemini
	case AISourceGrok:
		return AISourceGrok
	case AISourceMidjourney:
		return AISourceMidjourney
	}
	return DefaultAISource
}

func clampCount(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}

// cleanStrings 去掉空白项；dedupe 时保留第一次出现的顺序
func cleanStrings(in []string, dedupe bool) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	var seen map[string]struct{}
	if dedupe {
		seen = make(map[string]struct{}, len(in))
	}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if dedupe {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// sameContent 比较动态的内容字段（忽略计数与当前用户状态）。
// 标签按集合比较，图片按顺序比较。
func sameContent(a, b FeedItem) bool {
	if a.Prompt != b.Prompt || a.Title != b.Title || a.Description != b.Description ||
		a.Category != b.Category || a.AISource != b.AISource || a.VideoURL != b.VideoURL {
		return false
	}
	if a.Author != b.Author {
		return false
	}
	if len(a.Images) != len(b.Images) {
		return false
	}
	for i := range a.Images {
		if a.Images[i] != b.Images[i] {
			return false
		}
	}
	return sameSet(a.Tags, b.Tags)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, s := range a {
		set[s]++
	}
	for _, s := range b {
		if set[s] == 0 {
			return false
		}
		set[s]--
	}
	return true
}
