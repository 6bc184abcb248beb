package feedsync

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// operation 一次乐观操作，分两阶段：
//
//	apply    在 Store 锁内记录快照并立即写入新值
//	commit   后端成功（评论需要把临时 ID 换成真实 ID）
//	rollback 后端失败，写回 apply 时的快照，而不是基于当前值反推
//
// 快照只在 apply 里产生，rollback 只读快照，这样“按快照回滚”由结构保证。
type operation interface {
	kind() MutationKind
	target() string
	post() string
	apply(tx *Tx, viewer Author) error
	writeOp(viewerID string) WriteOp
	// accept 返回 true 表示这个错误按成功处理
	accept(err error) bool
	commit(tx *Tx, res WriteResult)
	rollback(tx *Tx)
}

// toggleOp 动态点赞 / 收藏
type toggleOp struct {
	itemID  string
	flag    Flag
	counter Counter
	onKind  MutationKind
	offKind MutationKind

	applied   MutationKind
	prevFlag  bool
	prevCount int
}

func newLikeOp(itemID string) *toggleOp {
	return &toggleOp{itemID: itemID, flag: FlagLiked, counter: CounterLikes, onKind: MutationLike, offKind: MutationUnlike}
}

func newBookmarkOp(itemID string) *toggleOp {
	return &toggleOp{itemID: itemID, flag: FlagBookmarked, counter: CounterBookmarks, onKind: MutationBookmark, offKind: MutationUnbookmark}
}

func (o *toggleOp) kind() MutationKind { return o.applied }
func (o *toggleOp) target() string     { return o.itemID }
func (o *toggleOp) post() string       { return o.itemID }

func (o *toggleOp) apply(tx *Tx, _ Author) error {
	it, ok := tx.item(o.itemID)
	if !ok {
		return fmt.Errorf("%w: post %s", ErrNotFound, o.itemID)
	}
	o.prevFlag = flagValue(it, o.flag)
	o.prevCount = *counterField(it, o.counter)

	next, delta := !o.prevFlag, 1
	o.applied = o.onKind
	if !next {
		delta = -1
		o.applied = o.offKind
	}
	// 标记和计数在同一个锁内修改
	tx.SetFlag(o.itemID, o.flag, next)
	tx.AdjustCounter(o.itemID, o.counter, delta)
	return nil
}

func (o *toggleOp) writeOp(viewerID string) WriteOp {
	return WriteOp{Kind: o.applied, ViewerID: viewerID, PostID: o.itemID}
}

func (o *toggleOp) accept(err error) bool {
	// 收藏已存在：乐观状态本来就是对的
	return o.applied == MutationBookmark && errors.Is(err, ErrDuplicate)
}

func (o *toggleOp) commit(*Tx, WriteResult) {}

func (o *toggleOp) rollback(tx *Tx) {
	tx.SetFlag(o.itemID, o.flag, o.prevFlag)
	tx.SetCounter(o.itemID, o.counter, o.prevCount)
}

// commentLikeOp 评论点赞
type commentLikeOp struct {
	postID    string
	commentID string

	applied   MutationKind
	prevLiked bool
	prevCount int
}

func (o *commentLikeOp) kind() MutationKind { return o.applied }
func (o *commentLikeOp) target() string     { return o.commentID }
func (o *commentLikeOp) post() string       { return o.postID }

func (o *commentLikeOp) apply(tx *Tx, _ Author) error {
	c, ok := tx.comment(o.postID, o.commentID)
	if !ok {
		return fmt.Errorf("%w: comment %s", ErrNotFound, o.commentID)
	}
	if c.Pending {
		// 占位评论还没有真实 ID，后端无法定位
		return fmt.Errorf("%w: comment %s is not confirmed yet", ErrNotFound, o.commentID)
	}
	o.prevLiked, o.prevCount = c.IsLiked, c.LikeCount
	o.applied = MutationCommentLike
	delta := 1
	if o.prevLiked {
		o.applied = MutationCommentUnlike
		delta = -1
	}
	tx.SetCommentLike(o.postID, o.commentID, !o.prevLiked, o.prevCount+delta)
	return nil
}

func (o *commentLikeOp) writeOp(viewerID string) WriteOp {
	return WriteOp{Kind: o.applied, ViewerID: viewerID, PostID: o.postID, CommentID: o.commentID}
}

func (o *commentLikeOp) accept(error) bool { return false }

func (o *commentLikeOp) commit(*Tx, WriteResult) {}

func (o *commentLikeOp) rollback(tx *Tx) {
	tx.SetCommentLike(o.postID, o.commentID, o.prevLiked, o.prevCount)
}

// commentOp 发表评论 / 回复：先插入占位评论，成功后换成后端返回的评论
type commentOp struct {
	postID   string
	parentID string
	content  string
	tempID   string
	at       time.Time

	viewerID          string
	prevCommentCount  int
	parentBumped      bool
	prevParentReplies int
	confirmed         *Comment
}

func (o *commentOp) kind() MutationKind { return MutationComment }
func (o *commentOp) target() string     { return o.tempID }
func (o *commentOp) post() string       { return o.postID }

func (o *commentOp) apply(tx *Tx, viewer Author) error {
	if strings.TrimSpace(o.content) == "" {
		return ErrEmptyContent
	}
	it, ok := tx.item(o.postID)
	if !ok {
		return fmt.Errorf("%w: post %s", ErrNotFound, o.postID)
	}
	o.viewerID = viewer.ID
	o.prevCommentCount = it.CommentCount

	if o.parentID != "" {
		if parent, ok := tx.comment(o.postID, o.parentID); ok {
			o.parentBumped = true
			o.prevParentReplies = parent.RepliesCount
			tx.AdjustCommentCounter(o.postID, o.parentID, CommentCounterReplies, 1)
		}
	}
	tx.UpsertComment(Comment{
		ID:        o.tempID,
		PostID:    o.postID,
		ParentID:  o.parentID,
		Content:   strings.TrimSpace(o.content),
		Author:    viewer,
		CreatedAt: o.at,
		Pending:   true,
	})
	tx.AdjustCounter(o.postID, CounterComments, 1)
	return nil
}

func (o *commentOp) writeOp(viewerID string) WriteOp {
	return WriteOp{Kind: MutationComment, ViewerID: viewerID, PostID: o.postID, ParentID: o.parentID, Content: strings.TrimSpace(o.content)}
}

func (o *commentOp) accept(error) bool { return false }

func (o *commentOp) commit(tx *Tx, res WriteResult) {
	if res.Comment == nil {
		return
	}
	c := TransformComment(*res.Comment, o.viewerID)
	if c.ID == "" {
		return
	}
	if c.PostID == "" {
		c.PostID = o.postID
	}
	c.Pending = false
	// 后端行可能不带 author，沿用占位评论的作者
	if res.Comment.Author == nil {
		if placeholder, ok := tx.comment(o.postID, o.tempID); ok {
			c.Author = placeholder.Author
		}
	}
	if tx.ReplaceCommentID(o.postID, o.tempID, c) {
		o.confirmed = &c
	}
}

func (o *commentOp) rollback(tx *Tx) {
	tx.RemoveComment(o.postID, o.tempID)
	tx.SetCounter(o.postID, CounterComments, o.prevCommentCount)
	if o.parentBumped {
		tx.SetCommentCounter(o.postID, o.parentID, CommentCounterReplies, o.prevParentReplies)
	}
}
