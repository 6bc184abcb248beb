package feedsync

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
)

// Reconciler 订阅各表的实时推送，把其他用户的改动合并进 Store。
//
// 每个事件的处理流程：
//  1. 分类 INSERT / UPDATE / DELETE，解析失败直接丢弃
//  2. 操作者是当前用户 -> 丢弃（乐观更新已经改过了，再合并会重复计数）
//  3. 固定延迟后再合并，给后端的读写一致性留时间
//  4. 计数表只做 ±1，不重新拉取；posts 表只在内容变化时替换内容
type Reconciler struct {
	store   *Store
	backend Backend
	delay   time.Duration
	watches []Watch
	log     *slog.Logger

	mu sync.Mutex
	// epoch 每次 Start / Stop 递增，订阅回调带着自己的 epoch，过期即丢弃
	epoch    uint64
	starting bool
	running  bool
	viewer   string
	gen      uint64
	unsubs   []Unsubscribe
	timers   map[*foldTimer]struct{}

	received   atomic.Int64
	suppressed atomic.Int64
	dropped    atomic.Int64
	folded     atomic.Int64
	discarded  atomic.Int64
}

type foldTimer struct {
	t *time.Timer
}

// ReconcilerStats 事件计数（调试 / 测试用）
type ReconcilerStats struct {
	Received   int64
	Suppressed int64
	Dropped    int64
	Folded     int64
	// Discarded posts 表只有计数变化的 UPDATE
	Discarded int64
}

func NewReconciler(store *Store, backend Backend, opts ...Option) *Reconciler {
	o := buildOptions(opts)
	return &Reconciler{
		store:   store,
		backend: backend,
		delay:   o.foldDelay,
		watches: o.watches,
		log:     o.logger,
		timers:  make(map[*foldTimer]struct{}),
	}
}

// Start 以 viewerID 身份订阅全部频道。任何一个订阅失败时，已建立的订阅会一起释放。
//
// 订阅期间不持有 r.mu：推送和订阅确认可能走同一个读循环，
// handler 等锁会把后面的确认一起堵住。
func (r *Reconciler) Start(viewerID string) error {
	r.Stop()

	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	r.starting = true
	r.viewer = viewerID
	r.gen = r.store.Generation()
	r.mu.Unlock()

	unsubs := make([]Unsubscribe, 0, len(r.watches))
	for _, w := range r.watches {
		table := w.Table
		unsub, err := r.backend.Subscribe(table, w.Filter, func(evt message.ChangeEvent) {
			r.receive(epoch, table, evt)
		})
		if err != nil {
			r.abort(epoch)
			release(unsubs)
			return fmt.Errorf("subscribe %s (%s): %w", table, w.Filter.String(), err)
		}
		unsubs = append(unsubs, unsub)
	}

	r.mu.Lock()
	if r.epoch != epoch {
		// 订阅过程中被 Stop 或新的 Start 取代
		r.mu.Unlock()
		release(unsubs)
		return ErrReconcilerStopped
	}
	r.starting = false
	r.running = true
	r.unsubs = unsubs
	r.mu.Unlock()
	r.log.Debug("realtime channels opened", "viewer", viewerID, "channels", len(unsubs))
	return nil
}

// abort 订阅失败：丢掉启动期间已排队的合并
func (r *Reconciler) abort(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return
	}
	r.epoch++
	r.starting = false
	r.cancelTimersLocked()
}

// Stop 释放全部订阅并取消尚未合并的事件。页面卸载 / 切换用户时调用。
// 进行中的 Start 会在提交时发现自己已过期，自行释放订阅。
func (r *Reconciler) Stop() {
	r.mu.Lock()
	r.epoch++
	active := r.running || r.starting
	r.running = false
	r.starting = false
	r.cancelTimersLocked()
	unsubs := r.unsubs
	r.unsubs = nil
	viewer := r.viewer
	r.mu.Unlock()

	if !active {
		return
	}
	// 不能持锁调用：退订可能要等 handler 所在的 goroutine 退出
	release(unsubs)
	r.log.Debug("realtime channels released", "viewer", viewer, "channels", len(unsubs))
}

func (r *Reconciler) cancelTimersLocked() {
	for ft := range r.timers {
		ft.t.Stop()
	}
	r.timers = make(map[*foldTimer]struct{})
}

func release(unsubs []Unsubscribe) {
	for _, u := range unsubs {
		if u != nil {
			u()
		}
	}
}

// Running 是否处于订阅状态
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// PendingFolds 已收到、还在延迟窗口内的事件数
func (r *Reconciler) PendingFolds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *Reconciler) Stats() ReconcilerStats {
	return ReconcilerStats{
		Received:   r.received.Load(),
		Suppressed: r.suppressed.Load(),
		Dropped:    r.dropped.Load(),
		Folded:     r.folded.Load(),
		Discarded:  r.discarded.Load(),
	}
}

// change 解析后的事件
type change struct {
	table     string
	op        string
	actor     string
	postID    string
	commentID string
	post      *message.PostRow
	comment   *message.CommentRow
}

func (r *Reconciler) receive(epoch uint64, table string, evt message.ChangeEvent) {
	r.received.Add(1)
	if evt.Table == "" {
		evt.Table = table
	}

	ch, err := decodeChange(evt)
	if err != nil {
		r.dropped.Add(1)
		r.log.Warn("drop realtime event", "table", evt.Table, "event_type", evt.EventType, "error", err)
		return
	}

	r.mu.Lock()
	// 启动中（viewer 和代数已记录）的事件照常处理
	if r.epoch != epoch || !(r.running || r.starting) {
		r.mu.Unlock()
		return
	}
	if r.viewer != "" && ch.actor == r.viewer {
		r.mu.Unlock()
		r.suppressed.Add(1)
		return
	}
	gen := r.gen
	if r.delay <= 0 {
		r.mu.Unlock()
		r.fold(gen, ch)
		return
	}
	ft := &foldTimer{}
	// 回调先抢锁，所以一定能看到 ft.t 已赋值
	ft.t = time.AfterFunc(r.delay, func() {
		r.mu.Lock()
		_, live := r.timers[ft]
		delete(r.timers, ft)
		r.mu.Unlock()
		if live {
			r.fold(gen, ch)
		}
	})
	r.timers[ft] = struct{}{}
	r.mu.Unlock()
}

func decodeChange(evt message.ChangeEvent) (change, error) {
	ch := change{table: evt.Table, op: strings.ToUpper(strings.TrimSpace(evt.EventType))}
	switch ch.op {
	case cons.EventInsert, cons.EventUpdate, cons.EventDelete:
	default:
		return ch, fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, evt.EventType)
	}

	switch evt.Table {
	case cons.TableLikes, cons.TableBookmarks:
		var row message.LikeRow
		if err := evt.Decode(&row); err != nil {
			return ch, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if row.PostID == "" || row.UserID == "" {
			return ch, fmt.Errorf("%w: %s row without post_id/user_id", ErrMalformedEvent, evt.Table)
		}
		ch.actor, ch.postID = row.UserID, row.PostID

	case cons.TableCommentLikes:
		var row message.CommentLikeRow
		if err := evt.Decode(&row); err != nil {
			return ch, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if row.CommentID == "" || row.PostID == "" || row.UserID == "" {
			return ch, fmt.Errorf("%w: comment_likes row without comment_id/post_id/user_id", ErrMalformedEvent)
		}
		ch.actor, ch.postID, ch.commentID = row.UserID, row.PostID, row.CommentID

	case cons.TableComments:
		var row message.CommentRow
		if err := evt.Decode(&row); err != nil {
			return ch, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if row.ID == "" || row.PostID == "" || row.UserID == "" {
			return ch, fmt.Errorf("%w: comments row without id/post_id/user_id", ErrMalformedEvent)
		}
		ch.actor, ch.postID, ch.commentID, ch.comment = row.UserID, row.PostID, row.ID, &row

	case cons.TablePosts:
		var row message.PostRow
		if err := evt.Decode(&row); err != nil {
			return ch, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if row.ID == "" {
			return ch, fmt.Errorf("%w: posts row without id", ErrMalformedEvent)
		}
		// DELETE 的 old 行可能只有主键
		if row.UserID == "" && ch.op != cons.EventDelete {
			return ch, fmt.Errorf("%w: posts row without user_id", ErrMalformedEvent)
		}
		ch.actor, ch.postID, ch.post = row.UserID, row.ID, &row

	default:
		return ch, fmt.Errorf("%w: unknown table %q", ErrMalformedEvent, evt.Table)
	}
	return ch, nil
}

func (r *Reconciler) fold(gen uint64, ch change) {
	var (
		applied   bool
		discarded bool
	)
	err := r.store.update(gen, func(tx *Tx) error {
		switch ch.table {
		case cons.TableLikes:
			applied = foldCounter(tx, ch, CounterLikes)
		case cons.TableBookmarks:
			applied = foldCounter(tx, ch, CounterBookmarks)
		case cons.TableCommentLikes:
			applied = foldCommentLike(tx, ch)
		case cons.TableComments:
			applied = foldComment(tx, ch)
		case cons.TablePosts:
			applied, discarded = foldPost(tx, ch)
		}
		return nil
	})
	if errors.Is(err, ErrStoreClosed) {
		return
	}
	switch {
	case discarded:
		r.discarded.Add(1)
	case applied:
		r.folded.Add(1)
	default:
		r.log.Debug("realtime event had no visible target", "table", ch.table, "event_type", ch.op, "post_id", ch.postID)
	}
}

func delta(op string) int {
	switch op {
	case cons.EventInsert:
		return 1
	case cons.EventDelete:
		return -1
	}
	return 0
}

func foldCounter(tx *Tx, ch change, c Counter) bool {
	d := delta(ch.op)
	if d == 0 {
		return false
	}
	_, ok := tx.AdjustCounter(ch.postID, c, d)
	return ok
}

func foldCommentLike(tx *Tx, ch change) bool {
	d := delta(ch.op)
	if d == 0 {
		return false
	}
	_, ok := tx.AdjustCommentCounter(ch.postID, ch.commentID, CommentCounterLikes, d)
	return ok
}

func foldComment(tx *Tx, ch change) bool {
	if _, ok := tx.item(ch.postID); !ok {
		return false
	}
	loaded := tx.HasComments(ch.postID)
	existing, present := tx.GetComment(ch.postID, ch.commentID)

	switch ch.op {
	case cons.EventInsert:
		// 已在列表里说明是重复投递
		if present {
			return false
		}
		tx.AdjustCounter(ch.postID, CounterComments, 1)
		if loaded {
			c := TransformComment(*ch.comment, "")
			tx.UpsertComment(c)
			if c.ParentID != "" {
				tx.AdjustCommentCounter(ch.postID, c.ParentID, CommentCounterReplies, 1)
			}
		}
		return true

	case cons.EventDelete:
		tx.AdjustCounter(ch.postID, CounterComments, -1)
		if present {
			tx.RemoveComment(ch.postID, ch.commentID)
			if existing.ParentID != "" {
				tx.AdjustCommentCounter(ch.postID, existing.ParentID, CommentCounterReplies, -1)
			}
		}
		return true

	case cons.EventUpdate:
		if !present {
			return false
		}
		incoming := TransformComment(*ch.comment, "")
		existing.Content = incoming.Content
		if ch.comment.Author != nil {
			existing.Author = incoming.Author
		}
		return tx.UpsertComment(existing)
	}
	return false
}

// foldPost 返回 (是否修改, 是否因为只有计数变化而丢弃)
func foldPost(tx *Tx, ch change) (bool, bool) {
	switch ch.op {
	case cons.EventInsert:
		return tx.InsertItem(TransformPost(*ch.post, ""), true), false

	case cons.EventDelete:
		return tx.RemoveItem(ch.postID), false

	case cons.EventUpdate:
		existing, ok := tx.GetByID(ch.postID)
		if !ok {
			return false, false
		}
		incoming := TransformPost(*ch.post, "")
		// 原始表行一般不带 author，作者没变就沿用已知的作者信息
		if ch.post.Author == nil && (ch.post.UserID == "" || ch.post.UserID == existing.Author.ID) {
			incoming.Author = existing.Author
		}
		if sameContent(existing, incoming) {
			// 只有计数变化：计数由 likes/comments/bookmarks 频道负责
			return false, true
		}
		return tx.ReplaceContent(incoming), false
	}
	return false, false
}
