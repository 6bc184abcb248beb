package feedsync_test

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func comment(id, parent string, minute int) feedsync.Comment {
	return feedsync.Comment{
		ID:        id,
		PostID:    "p1",
		ParentID:  parent,
		Content:   "comment " + id,
		CreatedAt: t0.Add(time.Duration(minute) * time.Minute),
	}
}

func ids(nodes []*feedsync.CommentNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildCommentTree_UnknownParentBecomesRoot(t *testing.T) {
	roots := feedsync.BuildCommentTree([]feedsync.Comment{
		comment("A", "", 0),
		comment("B", "A", 1),
		comment("C", "Z", 2),
	})

	require.Equal(t, []string{"A", "C"}, ids(roots))
	assert.Equal(t, []string{"B"}, ids(roots[0].Replies))
	assert.Equal(t, 1, roots[0].ReplyCount)
	assert.Empty(t, roots[1].Replies)
}

func TestBuildCommentTree_Empty(t *testing.T) {
	roots := feedsync.BuildCommentTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestBuildCommentTree_SortsEachLevel(t *testing.T) {
	roots := feedsync.BuildCommentTree([]feedsync.Comment{
		comment("r2", "", 5),
		comment("x2", "r1", 4),
		comment("r1", "", 0),
		comment("x1", "r1", 2),
	})

	require.Equal(t, []string{"r1", "r2"}, ids(roots))
	assert.Equal(t, []string{"x1", "x2"}, ids(roots[0].Replies))
}

func TestBuildCommentTree_StableForEqualTimestamps(t *testing.T) {
	roots := feedsync.BuildCommentTree([]feedsync.Comment{
		comment("b", "", 1),
		comment("a", "", 1),
		comment("c", "", 0),
	})
	assert.Equal(t, []string{"c", "b", "a"}, ids(roots))
}

func TestBuildCommentTree_Idempotent(t *testing.T) {
	input := []feedsync.Comment{
		comment("A", "", 0),
		comment("B", "A", 1),
		comment("C", "B", 2),
		comment("D", "missing", 3),
	}
	first := feedsync.FormatTree(feedsync.BuildCommentTree(input))
	second := feedsync.FormatTree(feedsync.BuildCommentTree(input))
	assert.Equal(t, first, second)
	assert.Equal(t, 4, feedsync.CountComments(feedsync.BuildCommentTree(input)))
}

func TestBuildCommentTree_BreaksCycles(t *testing.T) {
	roots := feedsync.BuildCommentTree([]feedsync.Comment{
		comment("A", "B", 0),
		comment("B", "A", 1),
		comment("S", "S", 2),
	})

	// 每条评论都必须出现且只出现一次
	assert.Equal(t, 3, feedsync.CountComments(roots))
	assert.Len(t, roots, 2)
}

func TestBuildCommentTree_DuplicateIDKeepsFirst(t *testing.T) {
	dup := comment("A", "", 1)
	dup.Content = "second copy"
	roots := feedsync.BuildCommentTree([]feedsync.Comment{comment("A", "", 0), dup})

	require.Len(t, roots, 1)
	assert.Equal(t, "comment A", roots[0].Content)
}

func TestFlatten_CollapsesDeepReplies(t *testing.T) {
	roots := feedsync.BuildCommentTree([]feedsync.Comment{
		comment("root", "", 0),
		comment("l1", "root", 1),
		comment("l2", "l1", 2),
		comment("l1b", "root", 3),
		comment("l3", "l2", 4),
	})
	require.Len(t, roots, 1)

	flat := feedsync.Flatten(roots[0])
	got := make([]string, 0, len(flat))
	for _, c := range flat {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{"l1", "l2", "l1b", "l3"}, got)
	assert.Nil(t, feedsync.Flatten(nil))
}

func TestFormatTree_Golden(t *testing.T) {
	ada := feedsync.Author{ID: "u1", DisplayName: "Ada"}
	bob := feedsync.Author{ID: "u2", DisplayName: "Bob"}
	cy := feedsync.Author{ID: "u3", DisplayName: "Cy"}

	list := []feedsync.Comment{
		{ID: "c1", PostID: "p1", Content: "first", Author: ada, CreatedAt: t0, LikeCount: 2, RepliesCount: 3},
		{ID: "c2", PostID: "p1", ParentID: "c1", Content: "reply", Author: bob, CreatedAt: t0.Add(time.Minute)},
		{ID: "c3", PostID: "p1", ParentID: "c2", Content: "deep", Author: ada, CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "temp-1", PostID: "p1", ParentID: "c1", Content: "second reply", Author: cy, CreatedAt: t0.Add(3 * time.Minute), Pending: true},
		{ID: "c5", PostID: "p1", ParentID: "gone", Content: "orphan", Author: bob, CreatedAt: t0.Add(4 * time.Minute), LikeCount: 1},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "comment_forest", []byte(feedsync.FormatTree(feedsync.BuildCommentTree(list))))
}
