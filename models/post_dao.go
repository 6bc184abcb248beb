package models

import (
	"gorm.io/gorm"
)

// PostDAO 封装 Post 相关的数据库操作
type PostDAO struct {
	db *gorm.DB
}

// NewPostDAO 创建 PostDAO 实例
func NewPostDAO(db *gorm.DB) *PostDAO {
	return &PostDAO{db: db}
}

// Create 创建动态
func (dao *PostDAO) Create(p *Post) error {
	return dao.db.Create(p).Error
}

// FindByID 根据ID查找动态（带作者）
func (dao *PostDAO) FindByID(id uint64) (*Post, error) {
	var p Post
	err := dao.db.Preload("User").Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListFeed 时间倒序的动态列表，category 为空表示全部
func (dao *PostDAO) ListFeed(category string, limit, offset int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	q := dao.db.Preload("User").Model(&Post{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var posts []Post
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// UpdateContent 更新内容字段（计数字段不允许从这里改）
func (dao *PostDAO) UpdateContent(id uint64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	for _, col := range []string{"likes_cnt", "comments_cnt", "shares_cnt", "bookmarks_cnt", "user_id"} {
		delete(updates, col)
	}
	return dao.db.Model(&Post{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 软删除
func (dao *PostDAO) Delete(id uint64) error {
	return dao.db.Where("id = ?", id).Delete(&Post{}).Error
}

// ViewerFlags 查询 userID 对一批动态的点赞 / 收藏状态
func (dao *PostDAO) ViewerFlags(userID uint64, postIDs []uint64) (liked, bookmarked map[uint64]bool, err error) {
	liked = make(map[uint64]bool)
	bookmarked = make(map[uint64]bool)
	if userID == 0 || len(postIDs) == 0 {
		return liked, bookmarked, nil
	}

	var likedIDs []uint64
	if err = dao.db.Model(&PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &likedIDs).Error; err != nil {
		return nil, nil, err
	}
	var bookmarkedIDs []uint64
	if err = dao.db.Model(&Bookmark{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &bookmarkedIDs).Error; err != nil {
		return nil, nil, err
	}
	for _, id := range likedIDs {
		liked[id] = true
	}
	for _, id := range bookmarkedIDs {
		bookmarked[id] = true
	}
	return liked, bookmarked, nil
}
