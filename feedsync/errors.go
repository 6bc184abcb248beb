package feedsync

import "errors"

var (
	// ErrAuthRequired 未登录用户发起操作，调用方负责引导登录
	ErrAuthRequired = errors.New("feedsync: authentication required")
	// ErrNotFound 目标动态/评论不在当前 Store 中
	ErrNotFound = errors.New("feedsync: target not found")
	// ErrEmptyContent 评论内容为空
	ErrEmptyContent = errors.New("feedsync: comment content is empty")
	// ErrDuplicate 后端返回“已存在”（唯一键冲突）
	ErrDuplicate = errors.New("feedsync: already exists")
	// ErrStoreClosed Store 已销毁（页面卸载 / 切换用户）
	ErrStoreClosed = errors.New("feedsync: store closed")
	// ErrReconcilerStopped 订阅尚未完成就被 Stop / 新的 Start 取代
	ErrReconcilerStopped = errors.New("feedsync: reconciler stopped during start")
	// ErrMalformedEvent 实时事件缺少必要字段
	ErrMalformedEvent = errors.New("feedsync: malformed realtime event")
)
