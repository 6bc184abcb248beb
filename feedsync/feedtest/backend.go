// Package feedtest 内存版 feedsync.Backend，给引擎测试和示例用。
package feedtest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/message"
)

type subscription struct {
	table   string
	filter  *message.Filter
	handler func(message.ChangeEvent)
}

// Backend 内存后端：数据由测试预置，推送由测试用 Emit 手动触发。
// 写入默认全部成功，可以用 SetWriteFunc 注入失败 / 阻塞。
type Backend struct {
	mu sync.Mutex

	posts    []message.PostRow
	comments map[string][]message.CommentRow

	writeFunc func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error)
	writes    []feedsync.WriteOp

	fetchErr     error
	subscribeErr map[string]error

	subs      map[int]*subscription
	nextSubID int
	nextID    int
}

func New() *Backend {
	return &Backend{
		comments:     make(map[string][]message.CommentRow),
		subscribeErr: make(map[string]error),
		subs:         make(map[int]*subscription),
	}
}

// AddPost 预置一条动态（追加到末尾）
func (b *Backend) AddPost(rows ...message.PostRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posts = append(b.posts, rows...)
}

// SetComments 预置某条动态的评论
func (b *Backend) SetComments(postID string, rows ...message.CommentRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments[postID] = append([]message.CommentRow(nil), rows...)
}

// SetFetchErr 之后的 FetchAll / FetchComments 都返回 err
func (b *Backend) SetFetchErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetchErr = err
}

// SetSubscribeErr 订阅 table 时返回 err
func (b *Backend) SetSubscribeErr(table string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.subscribeErr, table)
		return
	}
	b.subscribeErr[table] = err
}

// SetWriteFunc 替换写入逻辑，fn 为 nil 时恢复默认
func (b *Backend) SetWriteFunc(fn func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeFunc = fn
}

func (b *Backend) FetchAll(_ context.Context, viewerID string) ([]message.PostRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	out := make([]message.PostRow, len(b.posts))
	copy(out, b.posts)
	if viewerID == "" {
		for i := range out {
			out[i].IsLiked, out[i].IsBookmarked = false, false
		}
	}
	return out, nil
}

func (b *Backend) FetchComments(_ context.Context, postID, _ string) ([]message.CommentRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return append([]message.CommentRow(nil), b.comments[postID]...), nil
}

func (b *Backend) Subscribe(table string, filter *message.Filter, handler func(message.ChangeEvent)) (feedsync.Unsubscribe, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.subscribeErr[table]; err != nil {
		return nil, err
	}
	b.nextSubID++
	id := b.nextSubID
	b.subs[id] = &subscription{table: table, filter: filter, handler: handler}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}, nil
}

func (b *Backend) Write(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
	b.mu.Lock()
	b.writes = append(b.writes, op)
	fn := b.writeFunc
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, op)
	}
	return b.defaultWrite(op)
}

func (b *Backend) defaultWrite(op feedsync.WriteOp) (feedsync.WriteResult, error) {
	if op.Kind != feedsync.MutationComment {
		return feedsync.WriteResult{}, nil
	}
	b.mu.Lock()
	b.nextID++
	id := "c-" + strconv.Itoa(b.nextID)
	b.mu.Unlock()

	row := &message.CommentRow{
		ID:        id,
		PostID:    op.PostID,
		UserID:    op.ViewerID,
		Content:   op.Content,
		CreatedAt: time.Now(),
	}
	if op.ParentID != "" {
		parent := op.ParentID
		row.ParentID = &parent
	}
	return feedsync.WriteResult{Comment: row}, nil
}

// Writes 已收到的写入（按顺序）
func (b *Backend) Writes() []feedsync.WriteOp {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]feedsync.WriteOp(nil), b.writes...)
}

// ActiveSubscriptions 当前未释放的订阅数
func (b *Backend) ActiveSubscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Emit 同步投递一个事件给所有匹配的订阅，返回投递次数
func (b *Backend) Emit(evt message.ChangeEvent) int {
	b.mu.Lock()
	var handlers []func(message.ChangeEvent)
	for _, s := range b.subs {
		if s.table != evt.Table || !s.filter.Match(evt) {
			continue
		}
		handlers = append(handlers, s.handler)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
	return len(handlers)
}

// Event 构造事件：INSERT / UPDATE 放在 New，DELETE 放在 Old
func Event(table, eventType string, row any) message.ChangeEvent {
	var (
		evt message.ChangeEvent
		err error
	)
	if strings.EqualFold(eventType, cons.EventDelete) {
		evt, err = message.NewChangeEvent(table, eventType, nil, row)
	} else {
		evt, err = message.NewChangeEvent(table, eventType, row, nil)
	}
	if err != nil {
		panic(fmt.Sprintf("feedtest: encode %s row: %v", table, err))
	}
	return evt
}

// LikeEvent likes 表事件
func LikeEvent(eventType, postID, userID string) message.ChangeEvent {
	return Event(cons.TableLikes, eventType, message.LikeRow{PostID: postID, UserID: userID})
}

// BookmarkEvent bookmarks 表事件
func BookmarkEvent(eventType, postID, userID string) message.ChangeEvent {
	return Event(cons.TableBookmarks, eventType, message.BookmarkRow{PostID: postID, UserID: userID})
}

// Post 最小可用的动态行
func Post(id, userID string, likes int64) message.PostRow {
	return message.PostRow{
		ID:         id,
		UserID:     userID,
		Prompt:     "prompt " + id,
		AISource:   "chatgpt",
		LikesCount: likes,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Author:     &message.AuthorRow{ID: userID, Username: "user-" + userID},
	}
}
