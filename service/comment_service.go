package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
	"github.com/cydxin/prompt-feed-sdk/models"
	"github.com/cydxin/prompt-feed-sdk/repository"
)

const maxCommentLen = 2000

// ErrParentMismatch 父评论不存在或不属于同一条动态
var ErrParentMismatch = errors.New("parent comment not in post")

type CommentService struct {
	*Service
	comments     *repository.CommentDAO
	interactions *repository.InteractionDAO
}

func NewCommentService(s *Service) *CommentService {
	return &CommentService{
		Service:      s,
		comments:     repository.NewCommentDAO(s.DB),
		interactions: repository.NewInteractionDAO(s.DB),
	}
}

// WithContext 返回一个查询绑定 ctx 的副本
func (s *CommentService) WithContext(ctx context.Context) *CommentService {
	return NewCommentService(s.withContext(ctx))
}

// ToCommentRow 转成行结构，IsLiked 由调用方填
func ToCommentRow(c *models.Comment) message.CommentRow {
	row := message.CommentRow{
		ID:           FormatID(c.ID),
		PostID:       FormatID(c.PostID),
		UserID:       FormatID(c.UserID),
		Content:      c.Content,
		LikesCount:   int64(c.LikesCnt),
		RepliesCount: int64(c.RepliesCnt),
		CreatedAt:    c.CreatedAt,
		Author:       toAuthorRow(&c.User),
	}
	if c.ParentID != nil {
		pid := FormatID(*c.ParentID)
		row.ParentID = &pid
	}
	return row
}

// AddComment 发表评论，parentID 为 nil 表示顶级评论
func (s *CommentService) AddComment(ctx context.Context, userID, postID uint64, parentID *uint64, content string) (*message.CommentRow, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(content)) > maxCommentLen {
		return nil, fmt.Errorf("%w: 评论最多 %d 字", ErrInvalidParam, maxCommentLen)
	}
	if parentID != nil {
		parent, err := s.comments.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentMismatch
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, ErrParentMismatch
		}
	}

	c := &models.Comment{PostID: postID, UserID: userID, ParentID: parentID, Content: content}
	if err := s.interactions.WithDB(s.DB.WithContext(ctx)).AddComment(c); err != nil {
		return nil, err
	}
	if full, err := s.comments.FindByID(c.ID); err == nil {
		c = full
	}
	row := ToCommentRow(c)
	s.publish(ctx, cons.TableComments, cons.EventInsert, row, nil)
	return &row, nil
}

// ListComments 动态下的全部评论（平铺，时间升序），带当前用户的点赞状态
func (s *CommentService) ListComments(viewerID, postID uint64) ([]message.CommentRow, error) {
	cs, err := s.comments.ListByPost(postID, 0, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(cs))
	for i := range cs {
		ids[i] = cs[i].ID
	}
	liked, err := s.comments.LikedIDs(viewerID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]message.CommentRow, 0, len(cs))
	for i := range cs {
		row := ToCommentRow(&cs[i])
		row.IsLiked = liked[cs[i].ID]
		out = append(out, row)
	}
	return out, nil
}
