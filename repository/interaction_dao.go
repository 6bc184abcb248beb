package repository

import (
	"errors"
	"fmt"

	"github.com/cydxin/prompt-feed-sdk/models"
	"gorm.io/gorm"
)

// InteractionDAO 点赞 / 收藏 / 评论点赞：插入或删除关系行，并在同一个事务里维护冗余计数。
//
// 约定：
// - 重复插入返回 gorm.ErrDuplicatedKey（需要 gorm.Config.TranslateError = true）；
// - 删除不存在的行不是错误，返回 removed=false，计数不动；
// - 目标动态 / 评论不存在返回 gorm.ErrRecordNotFound，事务回滚。
type InteractionDAO struct {
	db *gorm.DB
}

func NewInteractionDAO(db *gorm.DB) *InteractionDAO {
	return &InteractionDAO{db: db}
}

// WithDB 用于在事务（tx）中复用 DAO
func (dao *InteractionDAO) WithDB(db *gorm.DB) *InteractionDAO {
	if db == nil {
		return dao
	}
	return &InteractionDAO{db: db}
}

// Like 点赞动态，likes_cnt + 1
func (dao *InteractionDAO) Like(postID, userID uint64) (*models.PostLike, error) {
	row := &models.PostLike{PostID: postID, UserID: userID}
	err := dao.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return bump(tx, &models.Post{}, postID, "likes_cnt", 1)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Unlike 取消点赞，返回被删除的行（用于推送 old）
func (dao *InteractionDAO) Unlike(postID, userID uint64) (*models.PostLike, bool, error) {
	var row models.PostLike
	removed, err := dao.removeAndDrop(&row, "post_id = ? AND user_id = ?", []any{postID, userID}, &models.Post{}, postID, "likes_cnt")
	return &row, removed, err
}

// Bookmark 收藏动态，bookmarks_cnt + 1
func (dao *InteractionDAO) Bookmark(postID, userID uint64) (*models.Bookmark, error) {
	row := &models.Bookmark{PostID: postID, UserID: userID}
	err := dao.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return bump(tx, &models.Post{}, postID, "bookmarks_cnt", 1)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (dao *InteractionDAO) Unbookmark(postID, userID uint64) (*models.Bookmark, bool, error) {
	var row models.Bookmark
	removed, err := dao.removeAndDrop(&row, "post_id = ? AND user_id = ?", []any{postID, userID}, &models.Post{}, postID, "bookmarks_cnt")
	return &row, removed, err
}

// LikeComment 点赞评论，post_id 从评论上取
func (dao *InteractionDAO) LikeComment(commentID, userID uint64) (*models.CommentLike, error) {
	row := &models.CommentLike{CommentID: commentID, UserID: userID}
	err := dao.db.Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.Select("id", "post_id").Where("id = ?", commentID).First(&c).Error; err != nil {
			return err
		}
		row.PostID = c.PostID
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return bump(tx, &models.Comment{}, commentID, "likes_cnt", 1)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (dao *InteractionDAO) UnlikeComment(commentID, userID uint64) (*models.CommentLike, bool, error) {
	var row models.CommentLike
	removed, err := dao.removeAndDrop(&row, "comment_id = ? AND user_id = ?", []any{commentID, userID}, &models.Comment{}, commentID, "likes_cnt")
	return &row, removed, err
}

// AddComment 写入评论，comments_cnt + 1；回复时父评论 replies_cnt + 1
func (dao *InteractionDAO) AddComment(c *models.Comment) error {
	return dao.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if err := bump(tx, &models.Post{}, c.PostID, "comments_cnt", 1); err != nil {
			return err
		}
		if c.ParentID != nil {
			return bump(tx, &models.Comment{}, *c.ParentID, "replies_cnt", 1)
		}
		return nil
	})
}

func (dao *InteractionDAO) removeAndDrop(row any, where string, args []any, counterModel any, counterID uint64, column string) (bool, error) {
	removed := false
	err := dao.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(where, args...).First(row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(row).Error; err != nil {
			return err
		}
		removed = true
		return bump(tx, counterModel, counterID, column, -1)
	})
	return removed, err
}

// bump 计数 ±1；减到 0 为止（无符号列不能出现负数）
func bump(tx *gorm.DB, model any, id uint64, column string, delta int) error {
	expr := gorm.Expr(column + " + 1")
	if delta < 0 {
		expr = gorm.Expr(fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column))
	}
	res := tx.Model(model).Where("id = ?", id).UpdateColumn(column, expr)
	if res.Error != nil {
		return res.Error
	}
	// 减到 0 的行 MySQL 不计入 affected rows，所以只校验递增
	if delta > 0 && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
