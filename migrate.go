package feed_sdk

import (
	"context"
	"fmt"
	"log"

	"github.com/cydxin/prompt-feed-sdk/models"
)

// RecountCounters 按关系表重算四个冗余计数和评论的点赞/回复数。
// 推送丢失或手工改库后计数会漂移，运维时手动执行即可，返回更新的行数。
func (e *FeedEngine) RecountCounters(ctx context.Context) (int64, error) {
	log.Println("RecountCounters...")
	return e.InteractionService.RecountCounters(ctx)
}

// MigrateLegacyNickname 旧版本把展示名存在 name 列，这里把它补到 nickname（只补空值），返回更新的行数。
func (e *FeedEngine) MigrateLegacyNickname(ctx context.Context) (int64, error) {
	db := e.config.DB.WithContext(ctx)
	tableName := models.User{}.TableName()

	// 检查表是否存在
	if !db.Migrator().HasTable(tableName) {
		log.Printf("表 %s 不存在，跳过迁移", tableName)
		return 0, nil
	}
	if !db.Migrator().HasColumn(&models.User{}, "name") {
		log.Printf("表 %s 没有 name 列，无需迁移", tableName)
		return 0, nil
	}
	// 表名拼进 SQL，先校验格式
	if !isValidTableName(tableName) {
		return 0, fmt.Errorf("invalid table name: %s", tableName)
	}

	res := db.Exec(fmt.Sprintf(
		"UPDATE `%s` SET `nickname` = `name` WHERE (`nickname` IS NULL OR `nickname` = '') AND `name` <> ''",
		tableName,
	))
	if res.Error != nil {
		return 0, fmt.Errorf("迁移 nickname 失败: %w", res.Error)
	}
	log.Printf("迁移完成，更新 %d 行", res.RowsAffected)
	return res.RowsAffected, nil
}

// isValidTableName 验证表名格式，防止 SQL 注入
func isValidTableName(name string) bool {
	// 只允许字母、数字和下划线
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return len(name) > 0 && len(name) < 64 // MySQL 表名最大 64 字符
}
