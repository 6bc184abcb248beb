package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	prefix = "pf_"
)

// User 用户表
type User struct {
	ID       uint64 `gorm:"primarykey"`
	UID      string `gorm:"size:36;uniqueIndex;not null"`      // 对外用户 ID
	Username string `gorm:"size:50;uniqueIndex;not null"`      // 用户名
	Nickname string `gorm:"size:100"`                          // 展示名（display_name）
	Name     string `gorm:"size:100"`                          // 旧版本的昵称字段，只读兼容
	Password string `gorm:"size:255;not null"`                 // 密码
	Avatar   string `gorm:"size:500"`                          // 头像
	Email    string `gorm:"size:100;uniqueIndex;default:null"` // 邮箱
	Bio      string `gorm:"size:255"`                          // 简介

	LastLoginAt *time.Time // 最后登录时间
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return prefix + "user"
}

// AI 来源
const (
	AISourceChatGPT    = "chatgpt"
	AISourceGemini     = "gemini"
	AISourceGrok       = "grok"
	AISourceMidjourney = "midjourney"
)

// Post 动态主表
// 图片、标签用 JSON 列存；四个计数是冗余字段，由 repository 在同一事务里维护
type Post struct {
	ID           uint64         `gorm:"primarykey"`
	UserID       uint64         `gorm:"index;not null"` // 发布者
	Title        string         `gorm:"size:200"`
	Description  string         `gorm:"size:1000"`
	Prompt       string         `gorm:"type:text;not null"`
	Images       datatypes.JSON `gorm:"column:images;type:json"` // ["url", ...] 有序
	Category     string         `gorm:"size:50;index"`
	Tags         datatypes.JSON `gorm:"column:tags;type:json"` // ["tag", ...]
	AISource     string         `gorm:"column:ai_source;size:20;default:chatgpt"`
	VideoURL     string         `gorm:"size:1000"` // 配套视频
	LikesCnt     uint64         `gorm:"default:0"`
	CommentsCnt  uint64         `gorm:"default:0"`
	SharesCnt    uint64         `gorm:"default:0"`
	BookmarksCnt uint64         `gorm:"default:0"`
	CreatedAt    time.Time      `gorm:"index"`
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	User User `gorm:"foreignKey:UserID"`
}

func (Post) TableName() string { return prefix + "post" }

// ImageList 解析 Images 列，格式不对时返回 nil
func (p Post) ImageList() []string { return decodeStrings(p.Images) }

// TagList 解析 Tags 列
func (p Post) TagList() []string { return decodeStrings(p.Tags) }

// PostLike 动态点赞表，(post_id, user_id) 唯一
type PostLike struct {
	ID        uint64 `gorm:"primarykey"`
	PostID    uint64 `gorm:"index:idx_like_post_user,unique;not null"`
	UserID    uint64 `gorm:"index:idx_like_post_user,unique;index;not null"`
	CreatedAt time.Time
}

func (PostLike) TableName() string { return prefix + "post_like" }

// Bookmark 收藏表，(post_id, user_id) 唯一
type Bookmark struct {
	ID        uint64 `gorm:"primarykey"`
	PostID    uint64 `gorm:"index:idx_bookmark_post_user,unique;not null"`
	UserID    uint64 `gorm:"index:idx_bookmark_post_user,unique;index;not null"`
	CreatedAt time.Time
}

func (Bookmark) TableName() string { return prefix + "bookmark" }

// Comment 评论表
// ParentID 指向父评论，nil 为顶级评论；层级不限，展示层自行收拢
type Comment struct {
	ID         uint64  `gorm:"primarykey"`
	PostID     uint64  `gorm:"index;not null"`
	UserID     uint64  `gorm:"index;not null"`
	ParentID   *uint64 `gorm:"index"`
	Content    string  `gorm:"type:text;not null"`
	LikesCnt   uint64  `gorm:"default:0"`
	RepliesCnt uint64  `gorm:"default:0"` // 直接回复数（冗余）
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`

	User User `gorm:"foreignKey:UserID"`
}

func (Comment) TableName() string { return prefix + "comment" }

// CommentLike 评论点赞表，(comment_id, user_id) 唯一；冗余 post_id 方便推送定位
type CommentLike struct {
	ID        uint64 `gorm:"primarykey"`
	CommentID uint64 `gorm:"index:idx_comment_like_user,unique;not null"`
	PostID    uint64 `gorm:"index;not null"`
	UserID    uint64 `gorm:"index:idx_comment_like_user,unique;not null"`
	CreatedAt time.Time
}

func (CommentLike) TableName() string { return prefix + "comment_like" }

// All 需要迁移的全部模型
func All() []any {
	return []any{
		&User{},
		&Post{},
		&PostLike{},
		&Bookmark{},
		&Comment{},
		&CommentLike{},
	}
}

// EncodeStrings 把字符串切片编码成 JSON 列，nil 编码为 []
func EncodeStrings(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return datatypes.JSON(b)
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
