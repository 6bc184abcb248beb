package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/message"
)

// Subscriber 行变更订阅，由 realtime.Bus 实现
type Subscriber interface {
	Subscribe(table string, filter *message.Filter, handler func(message.ChangeEvent)) (feedsync.Unsubscribe, error)
}

// LocalBackend 进程内的 feedsync.Backend：直接调用 service，订阅走 Redis 总线。
// 适合与服务端同进程运行的引擎（后台任务、集成测试）。
type LocalBackend struct {
	posts        *PostService
	comments     *CommentService
	interactions *InteractionService
	sub          Subscriber

	// PageSize 冷启动拉取的动态条数
	PageSize int
}

var _ feedsync.Backend = (*LocalBackend)(nil)

func NewLocalBackend(s *Service, sub Subscriber) *LocalBackend {
	return &LocalBackend{
		posts:        NewPostService(s),
		comments:     NewCommentService(s),
		interactions: NewInteractionService(s),
		sub:          sub,
		PageSize:     100,
	}
}

func parseViewer(viewerID string) (uint64, error) {
	if viewerID == "" {
		return 0, nil
	}
	id, err := ParseID(viewerID)
	if err != nil {
		return 0, fmt.Errorf("viewer %q: %w", viewerID, err)
	}
	return id, nil
}

func (b *LocalBackend) FetchAll(ctx context.Context, viewerID string) ([]message.PostRow, error) {
	viewer, err := parseViewer(viewerID)
	if err != nil {
		return nil, err
	}
	return b.posts.WithContext(ctx).ListFeed(viewer, "", b.PageSize, 0)
}

func (b *LocalBackend) FetchComments(ctx context.Context, postID, viewerID string) ([]message.CommentRow, error) {
	viewer, err := parseViewer(viewerID)
	if err != nil {
		return nil, err
	}
	pid, err := ParseID(postID)
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", postID, err)
	}
	return b.comments.WithContext(ctx).ListComments(viewer, pid)
}

func (b *LocalBackend) Subscribe(table string, filter *message.Filter, handler func(message.ChangeEvent)) (feedsync.Unsubscribe, error) {
	if b.sub == nil {
		return nil, errors.New("realtime bus not configured")
	}
	return b.sub.Subscribe(table, filter, handler)
}

func (b *LocalBackend) Write(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
	if op.ViewerID == "" {
		return feedsync.WriteResult{}, feedsync.ErrAuthRequired
	}
	viewer, err := parseViewer(op.ViewerID)
	if err != nil {
		return feedsync.WriteResult{}, err
	}

	var res feedsync.WriteResult
	switch op.Kind {
	case feedsync.MutationLike, feedsync.MutationUnlike, feedsync.MutationBookmark, feedsync.MutationUnbookmark:
		pid, perr := ParseID(op.PostID)
		if perr != nil {
			return res, fmt.Errorf("%s %q: %w", op.Kind, op.PostID, feedsync.ErrNotFound)
		}
		switch op.Kind {
		case feedsync.MutationLike:
			err = b.interactions.Like(ctx, viewer, pid)
		case feedsync.MutationUnlike:
			err = b.interactions.Unlike(ctx, viewer, pid)
		case feedsync.MutationBookmark:
			err = b.interactions.Bookmark(ctx, viewer, pid)
		default:
			err = b.interactions.Unbookmark(ctx, viewer, pid)
		}

	case feedsync.MutationCommentLike, feedsync.MutationCommentUnlike:
		cid, cerr := ParseID(op.CommentID)
		if cerr != nil {
			return res, fmt.Errorf("%s %q: %w", op.Kind, op.CommentID, feedsync.ErrNotFound)
		}
		if op.Kind == feedsync.MutationCommentLike {
			err = b.interactions.LikeComment(ctx, viewer, cid)
		} else {
			err = b.interactions.UnlikeComment(ctx, viewer, cid)
		}

	case feedsync.MutationComment:
		pid, perr := ParseID(op.PostID)
		if perr != nil {
			return res, fmt.Errorf("%s %q: %w", op.Kind, op.PostID, feedsync.ErrNotFound)
		}
		var parent *uint64
		if op.ParentID != "" {
			p, perr := ParseID(op.ParentID)
			if perr != nil {
				return res, fmt.Errorf("%s parent %q: %w", op.Kind, op.ParentID, ErrParentMismatch)
			}
			parent = &p
		}
		var row *message.CommentRow
		row, err = b.comments.AddComment(ctx, viewer, pid, parent, op.Content)
		res.Comment = row

	default:
		return res, fmt.Errorf("unsupported write %q", op.Kind)
	}
	if err != nil {
		return feedsync.WriteResult{}, fmt.Errorf("%s: %w", op.Kind, toFeedError(err))
	}
	return res, nil
}

// toFeedError 把服务层错误映射成 feedsync 的哨兵错误
func toFeedError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicate):
		return feedsync.ErrDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return feedsync.ErrNotFound
	case errors.Is(err, ErrEmptyContent):
		return feedsync.ErrEmptyContent
	}
	return err
}
