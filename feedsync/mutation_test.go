package feedsync_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/feedsync/feedtest"
	"github.com/cydxin/prompt-feed-sdk/message"
)

func TestLike_RequiresViewer(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 5))
	e := newEngine(t, b)
	startAs(t, e, "")

	_, err := e.Like(context.Background(), "p1")
	assert.ErrorIs(t, err, feedsync.ErrAuthRequired)
	_, err = e.PostComment(context.Background(), "p1", "hi", "")
	assert.ErrorIs(t, err, feedsync.ErrAuthRequired)

	assert.Equal(t, 5, item(t, e, "p1").LikeCount)
	assert.Empty(t, b.Writes())
}

func TestLike_UnknownItem(t *testing.T) {
	b := feedtest.New()
	e := newEngine(t, b)
	startAs(t, e, viewerID)

	_, err := e.Like(context.Background(), "nope")
	assert.ErrorIs(t, err, feedsync.ErrNotFound)
	assert.Empty(t, b.Writes())
}

func TestLike_ParityAndNonNegative(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b)
	startAs(t, e, viewerID)

	for i := 1; i <= 7; i++ {
		p, err := e.Like(context.Background(), "p1")
		require.NoError(t, err)
		require.NoError(t, waitPending(t, p))

		it := item(t, e, "p1")
		assert.Equal(t, i%2 == 1, it.IsLiked, "after %d toggles", i)
		assert.Equal(t, i%2, it.LikeCount, "after %d toggles", i)
		assert.GreaterOrEqual(t, it.LikeCount, 0)
	}

	writes := b.Writes()
	require.Len(t, writes, 7)
	assert.Equal(t, feedsync.MutationLike, writes[0].Kind)
	assert.Equal(t, feedsync.MutationUnlike, writes[1].Kind)
	assert.Equal(t, viewerID, writes[0].ViewerID)
}

func TestLike_UnlikeNeverGoesNegative(t *testing.T) {
	b := feedtest.New()
	row := feedtest.Post("p1", "author", 0)
	// 后端数据不一致：已点赞但计数为 0
	row.IsLiked = true
	b.AddPost(row)
	e := newEngine(t, b)
	startAs(t, e, viewerID)

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, feedsync.MutationUnlike, p.Kind)
	assert.Equal(t, 0, item(t, e, "p1").LikeCount)
	require.NoError(t, waitPending(t, p))
}

// 3 -> 4 -> 3：写入失败回滚
func TestLike_FailureRollsBack(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 3))
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	gate := gateWrites(b)

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)

	it := item(t, e, "p1")
	assert.Equal(t, 4, it.LikeCount)
	assert.True(t, it.IsLiked)
	assert.Equal(t, 1, e.InFlight())

	gate <- errors.New("write rejected")
	err = waitPending(t, p)
	assert.ErrorContains(t, err, "write rejected")

	it = item(t, e, "p1")
	assert.Equal(t, 3, it.LikeCount)
	assert.False(t, it.IsLiked)
	assert.Equal(t, 0, e.InFlight())
}

func TestLike_RollbackRestoresSnapshotDespiteForeignFold(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 5))
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	gate := gateWrites(b)

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, item(t, e, "p1").LikeCount)

	// 写入期间别人点了赞
	b.Emit(feedtest.LikeEvent(cons.EventInsert, "p1", "other"))
	assert.Equal(t, 7, item(t, e, "p1").LikeCount)

	gate <- errors.New("boom")
	require.Error(t, waitPending(t, p))

	// 回滚写回快照，而不是当前值 - 1
	it := item(t, e, "p1")
	assert.Equal(t, 5, it.LikeCount)
	assert.False(t, it.IsLiked)
}

func TestLike_TimeoutRollsBack(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 3))
	e := newEngine(t, b, feedsync.WithWriteTimeout(20*time.Millisecond))
	startAs(t, e, viewerID)
	b.SetWriteFunc(func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
		// 不理会 ctx 的后端
		time.Sleep(200 * time.Millisecond)
		return feedsync.WriteResult{}, nil
	})

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)
	err = waitPending(t, p)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, item(t, e, "p1").LikeCount)
}

func TestBookmark_DuplicateIsSuccess(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	b.SetWriteFunc(func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
		return feedsync.WriteResult{}, fmt.Errorf("insert bookmark: %w", feedsync.ErrDuplicate)
	})

	p, err := e.Bookmark(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, feedsync.MutationBookmark, p.Kind)
	assert.NoError(t, waitPending(t, p))
	assert.NoError(t, p.Err())

	it := item(t, e, "p1")
	assert.True(t, it.IsBookmarked)
	assert.Equal(t, 1, it.BookmarkCount)
}

func TestBookmark_DuplicateOnUnbookmarkStillRollsBack(t *testing.T) {
	b := feedtest.New()
	row := feedtest.Post("p1", "author", 0)
	row.IsBookmarked, row.BookmarksCount = true, 2
	b.AddPost(row)
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	b.SetWriteFunc(func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
		return feedsync.WriteResult{}, feedsync.ErrDuplicate
	})

	p, err := e.Bookmark(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, feedsync.MutationUnbookmark, p.Kind)
	assert.ErrorIs(t, waitPending(t, p), feedsync.ErrDuplicate)

	it := item(t, e, "p1")
	assert.True(t, it.IsBookmarked)
	assert.Equal(t, 2, it.BookmarkCount)
}

func TestPostComment_PlaceholderThenServerID(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b, feedsync.WithIDGenerator(func() string { return "fixed" }))
	startAs(t, e, viewerID)
	_, err := e.LoadComments(context.Background(), "p1")
	require.NoError(t, err)
	gate := make(chan struct{})
	b.SetWriteFunc(func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
		<-gate
		return feedsync.WriteResult{Comment: &message.CommentRow{ID: "c42", PostID: op.PostID, UserID: op.ViewerID, Content: op.Content}}, nil
	})

	p, err := e.PostComment(context.Background(), "p1", "  nice prompt ", "")
	require.NoError(t, err)
	assert.Equal(t, "temp-fixed", p.TargetID)

	placeholder, ok := e.Store().GetComment("p1", "temp-fixed")
	require.True(t, ok)
	assert.True(t, placeholder.Pending)
	assert.Equal(t, "nice prompt", placeholder.Content)
	assert.Equal(t, "Me", placeholder.Author.DisplayName)
	assert.Equal(t, 1, item(t, e, "p1").CommentCount)

	close(gate)
	require.NoError(t, waitPending(t, p))

	_, ok = e.Store().GetComment("p1", "temp-fixed")
	assert.False(t, ok)
	confirmed, ok := p.Comment()
	require.True(t, ok)
	assert.Equal(t, "c42", confirmed.ID)
	assert.False(t, confirmed.Pending)
	// 后端行没有 author，沿用占位评论的作者
	assert.Equal(t, "Me", confirmed.Author.DisplayName)
	assert.Equal(t, 1, item(t, e, "p1").CommentCount)
}

func TestPostComment_ReplyFailureRestoresCounts(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	b.SetComments("p1", message.CommentRow{ID: "c1", PostID: "p1", UserID: "author", Content: "root", RepliesCount: 2})
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	_, err := e.LoadComments(context.Background(), "p1")
	require.NoError(t, err)
	gate := gateWrites(b)

	p, err := e.PostComment(context.Background(), "p1", "reply", "c1")
	require.NoError(t, err)
	parent, _ := e.Store().GetComment("p1", "c1")
	assert.Equal(t, 3, parent.RepliesCount)

	tree := e.CommentTree("p1")
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.True(t, tree[0].Replies[0].Pending)

	gate <- errors.New("offline")
	require.Error(t, waitPending(t, p))

	parent, _ = e.Store().GetComment("p1", "c1")
	assert.Equal(t, 2, parent.RepliesCount)
	list, _ := e.Comments("p1")
	assert.Len(t, list, 1)
	assert.Equal(t, 0, item(t, e, "p1").CommentCount)
}

func TestPostComment_UnloadedPostStaysUnloaded(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	b.SetComments("p1", message.CommentRow{ID: "c1", PostID: "p1", UserID: "author", Content: "root"})
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	gate := gateWrites(b)

	p, err := e.PostComment(context.Background(), "p1", "first!", "")
	require.NoError(t, err)
	list, loaded := e.Comments("p1")
	assert.False(t, loaded)
	require.Len(t, list, 1)
	assert.True(t, list[0].Pending)

	gate <- errors.New("offline")
	require.Error(t, waitPending(t, p))
	list, loaded = e.Comments("p1")
	assert.False(t, loaded)
	assert.Empty(t, list)

	// 未加载的动态只改计数，不往残缺列表里插
	b.Emit(feedtest.Event(cons.TableComments, cons.EventInsert, message.CommentRow{ID: "c2", PostID: "p1", UserID: "u2", Content: "hi"}))
	assert.Equal(t, 1, item(t, e, "p1").CommentCount)
	_, ok := e.Store().GetComment("p1", "c2")
	assert.False(t, ok)

	_, err = e.LoadComments(context.Background(), "p1")
	require.NoError(t, err)
	list, loaded = e.Comments("p1")
	assert.True(t, loaded)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].ID)
}

func TestPostComment_Validation(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b)
	startAs(t, e, viewerID)

	_, err := e.PostComment(context.Background(), "p1", "   ", "")
	assert.ErrorIs(t, err, feedsync.ErrEmptyContent)
	_, err = e.PostComment(context.Background(), "missing", "hi", "")
	assert.ErrorIs(t, err, feedsync.ErrNotFound)

	assert.Equal(t, 0, item(t, e, "p1").CommentCount)
	assert.Empty(t, b.Writes())
}

func TestLikeComment_ToggleAndRollback(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	b.SetComments("p1", message.CommentRow{ID: "c1", PostID: "p1", UserID: "author", Content: "root", LikesCount: 4})
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	_, err := e.LoadComments(context.Background(), "p1")
	require.NoError(t, err)

	p, err := e.LikeComment(context.Background(), "c1", "p1")
	require.NoError(t, err)
	require.NoError(t, waitPending(t, p))
	c, _ := e.Store().GetComment("p1", "c1")
	assert.True(t, c.IsLiked)
	assert.Equal(t, 5, c.LikeCount)

	gate := gateWrites(b)
	p, err = e.LikeComment(context.Background(), "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, feedsync.MutationCommentUnlike, p.Kind)
	gate <- errors.New("nope")
	require.Error(t, waitPending(t, p))

	c, _ = e.Store().GetComment("p1", "c1")
	assert.True(t, c.IsLiked)
	assert.Equal(t, 5, c.LikeCount)
}

func TestLikeComment_PendingPlaceholderRejected(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b, feedsync.WithIDGenerator(func() string { return "temp-1" }))
	startAs(t, e, viewerID)
	gate := gateWrites(b)
	t.Cleanup(func() { gate <- nil })

	_, err := e.PostComment(context.Background(), "p1", "hello", "")
	require.NoError(t, err)

	_, err = e.LikeComment(context.Background(), "temp-1", "p1")
	assert.ErrorIs(t, err, feedsync.ErrNotFound)
}

func TestMutation_CompletionAfterCloseIsNoop(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 5))
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	gate := gateWrites(b)

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)
	e.Close()

	gate <- errors.New("late failure")
	require.Error(t, waitPending(t, p))

	// Store 已销毁，回滚不再发生
	assert.Equal(t, 6, item(t, e, "p1").LikeCount)
	_, err = e.Like(context.Background(), "p1")
	assert.ErrorIs(t, err, feedsync.ErrStoreClosed)
}

func TestMutation_ViewerSwitchDuringApplyAborts(t *testing.T) {
	b := feedtest.New()
	store := feedsync.NewStore()
	items := []feedsync.FeedItem{feedsync.TransformPost(feedtest.Post("p1", "author", 5), "old")}
	require.NoError(t, store.Load(items))

	// 读到旧用户的同时，Store 已经换代并装好了新用户的数据
	switched := false
	viewer := func() feedsync.Author {
		if !switched {
			switched = true
			store.Reset()
			require.NoError(t, store.Load(items))
		}
		return feedsync.Author{ID: "old"}
	}
	m := feedsync.NewMutationManager(store, b, viewer, feedsync.WithLogger(quietLogger()))

	_, err := m.Like(context.Background(), "p1")
	assert.ErrorIs(t, err, feedsync.ErrStoreClosed)
	it, _ := store.GetByID("p1")
	assert.Equal(t, 5, it.LikeCount)
	assert.False(t, it.IsLiked)
	m.Wait()
	assert.Empty(t, b.Writes())

	p, err := m.Like(context.Background(), "p1")
	require.NoError(t, err)
	require.NoError(t, waitPending(t, p))
	assert.Equal(t, "old", p.ViewerID)
}
