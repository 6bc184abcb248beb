package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/cydxin/prompt-feed-sdk/message"
)

var (
	// ErrDuplicate 唯一键冲突（重复点赞 / 收藏）
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidID 外部传入的 ID 不是合法的十进制数字
	ErrInvalidID = errors.New("invalid id")
	// ErrEmptyContent 评论 / 提示词内容为空
	ErrEmptyContent = errors.New("content is empty")
	// ErrInvalidParam 请求字段不合法（图片数量、AI 来源等）
	ErrInvalidParam = errors.New("invalid param")
	// ErrForbidden 只能操作自己的动态
	ErrForbidden = errors.New("not the author")
)

// Publisher 行变更发布者，由 realtime.Bus 实现
type Publisher interface {
	Publish(ctx context.Context, evt message.ChangeEvent) error
}

// Service 基础服务，包含数据库和配置
type Service struct {
	DB  *gorm.DB
	RDB *redis.Client

	// Publisher 写库成功后推送行变更，为空时不推送
	Publisher Publisher

	// Log 为空时用 slog.Default()
	Log *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// publish 事务提交后尽力推送，失败只记日志，不影响写入结果
func (s *Service) publish(ctx context.Context, table, eventType string, newRow, oldRow any) {
	if s.Publisher == nil {
		return
	}
	evt, err := message.NewChangeEvent(table, eventType, newRow, oldRow)
	if err != nil {
		s.logger().Warn("encode change event", "table", table, "event", eventType, "err", err)
		return
	}
	if err := s.Publisher.Publish(ctx, evt); err != nil {
		s.logger().Warn("publish change event", "table", table, "event", eventType, "err", err)
	}
}

// translate 把 GORM 的错误翻译成服务层的错误
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// ParseID 解析十进制 ID
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// FormatID 数字 ID 转成对外的字符串形式
func FormatID(id uint64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(id, 10)
}

// withContext 复制一份绑定 ctx 的 Service，查询随 ctx 取消
func (s *Service) withContext(ctx context.Context) *Service {
	cp := *s
	if cp.DB != nil {
		cp.DB = cp.DB.WithContext(ctx)
	}
	return &cp
}
