package service

import (
	"context"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
	"github.com/cydxin/prompt-feed-sdk/repository"
)

// InteractionService 点赞 / 收藏 / 评论点赞。
// 写库成功后推送一条 INSERT 或 DELETE（DELETE 的行放在 old 里）。
type InteractionService struct {
	*Service
	dao *repository.InteractionDAO
}

func NewInteractionService(s *Service) *InteractionService {
	return &InteractionService{Service: s, dao: repository.NewInteractionDAO(s.DB)}
}

// Like 点赞动态，重复点赞返回 ErrDuplicate
func (s *InteractionService) Like(ctx context.Context, userID, postID uint64) error {
	row, err := s.daoCtx(ctx).Like(postID, userID)
	if err != nil {
		return translate(err)
	}
	s.publish(ctx, cons.TableLikes, cons.EventInsert, message.LikeRow{
		ID: FormatID(row.ID), PostID: FormatID(postID), UserID: FormatID(userID), CreatedAt: row.CreatedAt,
	}, nil)
	return nil
}

// Unlike 取消点赞，没点过赞时什么也不做
func (s *InteractionService) Unlike(ctx context.Context, userID, postID uint64) error {
	row, removed, err := s.daoCtx(ctx).Unlike(postID, userID)
	if err != nil || !removed {
		return err
	}
	s.publish(ctx, cons.TableLikes, cons.EventDelete, nil, message.LikeRow{
		ID: FormatID(row.ID), PostID: FormatID(postID), UserID: FormatID(userID), CreatedAt: row.CreatedAt,
	})
	return nil
}

// Bookmark 收藏，重复收藏返回 ErrDuplicate
func (s *InteractionService) Bookmark(ctx context.Context, userID, postID uint64) error {
	row, err := s.daoCtx(ctx).Bookmark(postID, userID)
	if err != nil {
		return translate(err)
	}
	s.publish(ctx, cons.TableBookmarks, cons.EventInsert, message.BookmarkRow{
		ID: FormatID(row.ID), PostID: FormatID(postID), UserID: FormatID(userID), CreatedAt: row.CreatedAt,
	}, nil)
	return nil
}

func (s *InteractionService) Unbookmark(ctx context.Context, userID, postID uint64) error {
	row, removed, err := s.daoCtx(ctx).Unbookmark(postID, userID)
	if err != nil || !removed {
		return err
	}
	s.publish(ctx, cons.TableBookmarks, cons.EventDelete, nil, message.BookmarkRow{
		ID: FormatID(row.ID), PostID: FormatID(postID), UserID: FormatID(userID), CreatedAt: row.CreatedAt,
	})
	return nil
}

// LikeComment 点赞评论
func (s *InteractionService) LikeComment(ctx context.Context, userID, commentID uint64) error {
	row, err := s.daoCtx(ctx).LikeComment(commentID, userID)
	if err != nil {
		return translate(err)
	}
	s.publish(ctx, cons.TableCommentLikes, cons.EventInsert, message.CommentLikeRow{
		ID: FormatID(row.ID), CommentID: FormatID(commentID), PostID: FormatID(row.PostID), UserID: FormatID(userID), CreatedAt: row.CreatedAt,
	}, nil)
	return nil
}

func (s *InteractionService) UnlikeComment(ctx context.Context, userID, commentID uint64) error {
	row, removed, err := s.daoCtx(ctx).UnlikeComment(commentID, userID)
	if err != nil || !removed {
		return err
	}
	s.publish(ctx, cons.TableCommentLikes, cons.EventDelete, nil, message.CommentLikeRow{
		ID: FormatID(row.ID), CommentID: FormatID(commentID), PostID: FormatID(row.PostID), UserID: FormatID(userID), CreatedAt: row.CreatedAt,
	})
	return nil
}

// RecountCounters 按关系表重算全部冗余计数，返回更新的行数
func (s *InteractionService) RecountCounters(ctx context.Context) (int64, error) {
	n, err := s.daoCtx(ctx).RecountCounters()
	if err != nil {
		return 0, err
	}
	s.logger().InfoContext(ctx, "counters recounted", "rows", n)
	return n, nil
}

func (s *InteractionService) daoCtx(ctx context.Context) *repository.InteractionDAO {
	return s.dao.WithDB(s.DB.WithContext(ctx))
}
