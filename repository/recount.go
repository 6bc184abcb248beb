package repository

import (
	"fmt"

	"github.com/cydxin/prompt-feed-sdk/models"
	"gorm.io/gorm"
)

// RecountCounters 按关系表重新计算全部冗余计数，修正长期运行中的漂移。
// 返回被修改的行数。MySQL 不允许子查询引用正在更新的表，所以统一用派生表 JOIN。
func (dao *InteractionDAO) RecountCounters() (int64, error) {
	post := models.Post{}.TableName()
	like := models.PostLike{}.TableName()
	bookmark := models.Bookmark{}.TableName()
	comment := models.Comment{}.TableName()
	commentLike := models.CommentLike{}.TableName()

	stmts := []string{
		fmt.Sprintf("UPDATE `%s` p LEFT JOIN (SELECT post_id, COUNT(*) n FROM `%s` GROUP BY post_id) x ON x.post_id = p.id SET p.likes_cnt = COALESCE(x.n, 0)", post, like),
		fmt.Sprintf("UPDATE `%s` p LEFT JOIN (SELECT post_id, COUNT(*) n FROM `%s` GROUP BY post_id) x ON x.post_id = p.id SET p.bookmarks_cnt = COALESCE(x.n, 0)", post, bookmark),
		fmt.Sprintf("UPDATE `%s` p LEFT JOIN (SELECT post_id, COUNT(*) n FROM `%s` WHERE deleted_at IS NULL GROUP BY post_id) x ON x.post_id = p.id SET p.comments_cnt = COALESCE(x.n, 0)", post, comment),
		fmt.Sprintf("UPDATE `%s` c LEFT JOIN (SELECT comment_id, COUNT(*) n FROM `%s` GROUP BY comment_id) x ON x.comment_id = c.id SET c.likes_cnt = COALESCE(x.n, 0)", comment, commentLike),
		fmt.Sprintf("UPDATE `%s` c LEFT JOIN (SELECT parent_id, COUNT(*) n FROM `%s` WHERE parent_id IS NOT NULL AND deleted_at IS NULL GROUP BY parent_id) x ON x.parent_id = c.id SET c.replies_cnt = COALESCE(x.n, 0)", comment, comment),
	}

	var total int64
	err := dao.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			res := tx.Exec(stmt)
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		return nil
	})
	return total, err
}
