package feedsync_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/feedsync/feedtest"
	"github.com/cydxin/prompt-feed-sdk/message"
)

func TestEngine_ColdStart(t *testing.T) {
	b := feedtest.New()
	first := feedtest.Post("p1", "author", 3)
	first.IsLiked = true
	b.AddPost(first, feedtest.Post("p2", "author", 0))
	e := newEngine(t, b)

	var changes atomic.Int64
	e.OnChange(func(uint64) { changes.Add(1) })
	startAs(t, e, viewerID)

	items := e.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.True(t, items[0].IsLiked)
	assert.Equal(t, viewerID, e.Viewer().ID)
	assert.Positive(t, changes.Load())
}

func TestEngine_AnonymousViewerFlagsFalse(t *testing.T) {
	b := feedtest.New()
	row := feedtest.Post("p1", "author", 3)
	row.IsLiked, row.IsBookmarked = true, true
	b.AddPost(row)
	e := newEngine(t, b)
	startAs(t, e, "")

	it := item(t, e, "p1")
	assert.False(t, it.IsLiked)
	assert.False(t, it.IsBookmarked)
}

func TestEngine_FetchError(t *testing.T) {
	b := feedtest.New()
	b.SetFetchErr(errors.New("backend down"))
	e := newEngine(t, b)

	err := e.Start(context.Background(), feedsync.Author{ID: viewerID})
	assert.ErrorContains(t, err, "backend down")
	assert.Empty(t, e.Items())
	assert.Equal(t, 0, b.ActiveSubscriptions())
}

func TestEngine_SetViewerDropsStaleCompletions(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 5))
	e := newEngine(t, b)
	startAs(t, e, "alice")
	gate := gateWrites(b)

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, item(t, e, "p1").LikeCount)

	require.NoError(t, e.SetViewer(context.Background(), feedsync.Author{ID: "bob"}))
	assert.Equal(t, 5, item(t, e, "p1").LikeCount)
	assert.Equal(t, len(cons.WatchedTables), b.ActiveSubscriptions())

	// alice 的写入失败了，但不能影响 bob 的状态
	gate <- errors.New("too late")
	require.Error(t, waitPending(t, p))
	it := item(t, e, "p1")
	assert.Equal(t, 5, it.LikeCount)
	assert.False(t, it.IsLiked)

	// bob 自己的推送被抑制，alice 的推送正常合并
	b.Emit(feedtest.LikeEvent(cons.EventInsert, "p1", "bob"))
	b.Emit(feedtest.LikeEvent(cons.EventInsert, "p1", "alice"))
	assert.Equal(t, 6, item(t, e, "p1").LikeCount)
}

func TestEngine_LoadCommentsKeepsPlaceholders(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	b.SetComments("p1",
		message.CommentRow{ID: "c1", PostID: "p1", UserID: "author", Content: "first"},
		message.CommentRow{ID: "c2", PostID: "p1", ParentID: strp("c1"), UserID: "u2", Content: "reply"},
	)
	e := newEngine(t, b, feedsync.WithIDGenerator(func() string { return "temp-a" }))
	startAs(t, e, viewerID)
	gate := gateWrites(b)
	t.Cleanup(func() { gate <- nil })

	_, err := e.PostComment(context.Background(), "p1", "mine", "")
	require.NoError(t, err)

	tree, err := e.LoadComments(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "c1", tree[0].ID)
	assert.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "temp-a", tree[1].ID)
	assert.True(t, tree[1].Pending)
}

func TestEngine_LoadCommentsUnknownPost(t *testing.T) {
	e := newEngine(t, feedtest.New())
	startAs(t, e, viewerID)

	_, err := e.LoadComments(context.Background(), "missing")
	assert.ErrorIs(t, err, feedsync.ErrNotFound)
}

func TestEngine_RefreshKeepsSubscriptions(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 1))
	e := newEngine(t, b)
	startAs(t, e, viewerID)

	b.AddPost(feedtest.Post("p2", "author", 0))
	require.NoError(t, e.Refresh(context.Background()))
	assert.Len(t, e.Items(), 2)
	assert.Equal(t, len(cons.WatchedTables), b.ActiveSubscriptions())

	b.Emit(feedtest.LikeEvent(cons.EventInsert, "p2", "u2"))
	assert.Equal(t, 1, item(t, e, "p2").LikeCount)
}

func TestEngine_SetProfileUsedByPlaceholders(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b, feedsync.WithIDGenerator(func() string { return "temp-p" }))
	startAs(t, e, viewerID)
	gate := gateWrites(b)
	t.Cleanup(func() { gate <- nil })

	e.SetProfile("Grace", "https://img.example/grace.png")
	_, err := e.PostComment(context.Background(), "p1", "hello", "")
	require.NoError(t, err)

	c, ok := e.Store().GetComment("p1", "temp-p")
	require.True(t, ok)
	assert.Equal(t, "Grace", c.Author.DisplayName)
	assert.Equal(t, "https://img.example/grace.png", c.Author.AvatarURL)
}

func TestEngine_PendingWaitHonoursContext(t *testing.T) {
	b := feedtest.New()
	b.AddPost(feedtest.Post("p1", "author", 0))
	e := newEngine(t, b)
	startAs(t, e, viewerID)
	gate := gateWrites(b)

	p, err := e.Like(context.Background(), "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
	assert.NoError(t, p.Err(), "not settled yet")

	gate <- nil
	e.WaitWrites()
	assert.NoError(t, p.Err())
	assert.Equal(t, 0, e.InFlight())
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	b := feedtest.New()
	e := newEngine(t, b)
	startAs(t, e, viewerID)

	e.Close()
	e.Close()
	assert.True(t, e.Store().Closed())
	assert.ErrorIs(t, e.SetViewer(context.Background(), feedsync.Author{ID: "x"}), feedsync.ErrStoreClosed)
	assert.ErrorIs(t, e.Refresh(context.Background()), feedsync.ErrStoreClosed)
}
