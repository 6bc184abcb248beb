package repository

import (
	"github.com/cydxin/prompt-feed-sdk/models"
	"gorm.io/gorm"
)

// CommentDAO 评论查询。写入走 InteractionDAO.AddComment（需要同时维护计数）。
type CommentDAO struct {
	db *gorm.DB
}

func NewCommentDAO(db *gorm.DB) *CommentDAO {
	return &CommentDAO{db: db}
}

func (dao *CommentDAO) WithDB(db *gorm.DB) *CommentDAO {
	if db == nil {
		return dao
	}
	return &CommentDAO{db: db}
}

func (dao *CommentDAO) FindByID(id uint64) (*models.Comment, error) {
	var c models.Comment
	if err := dao.db.Preload("User").Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByPost 某条动态下的全部评论（平铺，时间升序，便于客户端构建树）
func (dao *CommentDAO) ListByPost(postID uint64, limit, offset int) ([]models.Comment, error) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	var cs []models.Comment
	err := dao.db.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&cs).Error
	return cs, err
}

// LikedIDs userID 点过赞的评论
func (dao *CommentDAO) LikedIDs(userID uint64, commentIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	if userID == 0 || len(commentIDs) == 0 {
		return out, nil
	}
	var ids []uint64
	if err := dao.db.Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
