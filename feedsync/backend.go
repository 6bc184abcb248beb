package feedsync

import (
	"context"

	"github.com/cydxin/prompt-feed-sdk/message"
)

// Unsubscribe 释放一个订阅，多次调用安全
type Unsubscribe func()

// Backend 引擎依赖的后端能力。
// 实现：feedtest.Backend（内存）、service.LocalBackend（进程内）、client.Remote（HTTP + WS）。
type Backend interface {
	// FetchAll 冷启动拉取可见动态，viewerID 为空表示匿名
	FetchAll(ctx context.Context, viewerID string) ([]message.PostRow, error)
	// FetchComments 拉取某条动态下的全部评论（平铺，时间升序）
	FetchComments(ctx context.Context, postID, viewerID string) ([]message.CommentRow, error)
	// Subscribe 订阅某张表的行变更，handler 可能在任意 goroutine 上被调用
	Subscribe(table string, filter *message.Filter, handler func(message.ChangeEvent)) (Unsubscribe, error)
	// Write 执行一次写操作
	Write(ctx context.Context, op WriteOp) (WriteResult, error)
}

// WriteOp 一次后端写入
type WriteOp struct {
	Kind      MutationKind
	ViewerID  string
	PostID    string
	CommentID string
	ParentID  string
	Content   string
}

// WriteResult 写入结果，只有创建评论时 Comment 非空
type WriteResult struct {
	Comment *message.CommentRow
}
