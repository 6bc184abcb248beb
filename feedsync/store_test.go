package feedsync_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
)

func loadedStore(t *testing.T, items ...feedsync.FeedItem) *feedsync.Store {
	t.Helper()
	s := feedsync.NewStore()
	require.NoError(t, s.Load(items))
	return s
}

func TestStore_LoadKeepsOrderAndSkipsDuplicates(t *testing.T) {
	s := loadedStore(t,
		feedsync.FeedItem{ID: "a"},
		feedsync.FeedItem{ID: "b"},
		feedsync.FeedItem{ID: "a", Prompt: "dup"},
		feedsync.FeedItem{},
	)
	all := s.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "", all[0].Prompt)
	assert.Equal(t, "b", all[1].ID)
}

func TestStore_ReadersGetCopies(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a", Tags: []string{"x"}})

	it, ok := s.GetByID("a")
	require.True(t, ok)
	it.Tags[0] = "mutated"
	it.LikeCount = 99

	again, _ := s.GetByID("a")
	assert.Equal(t, []string{"x"}, again.Tags)
	assert.Equal(t, 0, again.LikeCount)
}

func TestStore_AdjustCounterClampsAtZero(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a", LikeCount: 1})

	n, ok := s.AdjustCounter("a", feedsync.CounterLikes, -5)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = s.AdjustCounter("missing", feedsync.CounterLikes, 1)
	assert.False(t, ok)
}

func TestStore_PlaceholderDoesNotMarkLoaded(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "p1"})

	require.True(t, s.UpsertComment(feedsync.Comment{ID: "temp-1", PostID: "p1", Pending: true}))
	list, loaded := s.Comments("p1")
	assert.False(t, loaded)
	require.Len(t, list, 1)

	require.True(t, s.RemoveComment("p1", "temp-1"))
	list, loaded = s.Comments("p1")
	assert.False(t, loaded)
	assert.Nil(t, list)

	require.True(t, s.SetComments("p1", nil))
	require.True(t, s.UpsertComment(feedsync.Comment{ID: "c1", PostID: "p1"}))
	require.True(t, s.RemoveComment("p1", "c1"))
	list, loaded = s.Comments("p1")
	assert.True(t, loaded)
	assert.Empty(t, list)

	s.Reset()
	_, loaded = s.Comments("p1")
	assert.False(t, loaded)
}

func TestStore_ReplaceContentKeepsCountersAndFlags(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a", Prompt: "old", LikeCount: 4, IsLiked: true})

	ok := s.ReplaceContent(feedsync.FeedItem{ID: "a", Prompt: "new", LikeCount: 0})
	require.True(t, ok)

	it, _ := s.GetByID("a")
	assert.Equal(t, "new", it.Prompt)
	assert.Equal(t, 4, it.LikeCount)
	assert.True(t, it.IsLiked)
}

func TestStore_InsertAndRemove(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a"})

	assert.True(t, s.InsertItem(feedsync.FeedItem{ID: "b"}, true))
	assert.False(t, s.InsertItem(feedsync.FeedItem{ID: "b"}, true))
	assert.True(t, s.InsertItem(feedsync.FeedItem{ID: "c"}, false))

	all := s.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	require.True(t, s.SetComments("a", []feedsync.Comment{{ID: "c1"}}))
	assert.True(t, s.RemoveItem("a"))
	_, loaded := s.Comments("a")
	assert.False(t, loaded)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Comments(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "p1"})

	_, loaded := s.Comments("p1")
	assert.False(t, loaded)

	require.True(t, s.SetComments("p1", []feedsync.Comment{{ID: "c1"}, {ID: "x", PostID: "other"}}))
	list, loaded := s.Comments("p1")
	assert.True(t, loaded)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].PostID)

	assert.True(t, s.UpsertComment(feedsync.Comment{ID: "temp-1", PostID: "p1", Pending: true}))
	assert.True(t, s.ReplaceCommentID("p1", "temp-1", feedsync.Comment{ID: "c2", PostID: "p1"}))
	_, ok := s.GetComment("p1", "temp-1")
	assert.False(t, ok)
	c2, ok := s.GetComment("p1", "c2")
	require.True(t, ok)
	assert.False(t, c2.Pending)

	n, ok := s.AdjustCommentCounter("p1", "c1", feedsync.CommentCounterReplies, -1)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	assert.True(t, s.SetCommentLike("p1", "c1", true, 3))
	c1, _ := s.GetComment("p1", "c1")
	assert.True(t, c1.IsLiked)
	assert.Equal(t, 3, c1.LikeCount)

	assert.True(t, s.RemoveComment("p1", "c1"))
	assert.False(t, s.RemoveComment("p1", "c1"))
}

func TestStore_ReplaceCommentIDWhenRealAlreadyPresent(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "p1"})
	require.True(t, s.SetComments("p1", []feedsync.Comment{
		{ID: "temp-1", Pending: true},
		{ID: "c9"},
	}))

	assert.True(t, s.ReplaceCommentID("p1", "temp-1", feedsync.Comment{ID: "c9", PostID: "p1"}))
	list, _ := s.Comments("p1")
	require.Len(t, list, 1)
	assert.Equal(t, "c9", list[0].ID)
}

func TestStore_ResetBumpsGenerationAndClears(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a"})
	gen := s.Generation()

	s.Reset()
	assert.Equal(t, gen+1, s.Generation())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Closed())
}

func TestStore_ClosedRejectsWrites(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a"})
	s.Close()
	s.Reset()

	assert.True(t, s.Closed())
	err := s.Update(func(tx *feedsync.Tx) error { return nil })
	assert.True(t, errors.Is(err, feedsync.ErrStoreClosed))
}

func TestStore_UpdateErrorDoesNotBumpVersion(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a"})
	v := s.Version()

	boom := errors.New("boom")
	err := s.Update(func(tx *feedsync.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, v, s.Version())
}

func TestStore_OnChange(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a"})
	var got []uint64
	s.SetOnChange(func(v uint64) { got = append(got, v) })

	s.AdjustCounter("a", feedsync.CounterLikes, 1)
	s.AdjustCounter("missing", feedsync.CounterLikes, 1)

	require.Len(t, got, 1)
	assert.Equal(t, s.Version(), got[0])
}

func TestStore_ConcurrentTogglesStayConsistent(t *testing.T) {
	s := loadedStore(t, feedsync.FeedItem{ID: "a", LikeCount: 10})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(func(tx *feedsync.Tx) error {
				it, _ := tx.GetByID("a")
				delta := 1
				if it.IsLiked {
					delta = -1
				}
				tx.SetFlag("a", feedsync.FlagLiked, !it.IsLiked)
				tx.AdjustCounter("a", feedsync.CounterLikes, delta)
				return nil
			})
		}()
	}
	wg.Wait()

	// 偶数次切换回到原状态
	it, _ := s.GetByID("a")
	assert.False(t, it.IsLiked)
	assert.Equal(t, 10, it.LikeCount)
}
