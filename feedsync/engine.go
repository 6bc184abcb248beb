package feedsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Engine 把 Store、MutationManager、Reconciler 组装在一起：
// 冷启动拉取、切换用户、页面卸载都从这里进。
type Engine struct {
	backend Backend
	store   *Store
	muts    *MutationManager
	rec     *Reconciler
	log     *slog.Logger

	// lifecycle 串行化 SetViewer / Refresh / Close
	lifecycle sync.Mutex

	mu     sync.RWMutex
	viewer Author
	closed bool
}

func NewEngine(backend Backend, opts ...Option) *Engine {
	o := buildOptions(opts)
	e := &Engine{
		backend: backend,
		store:   NewStore(),
		log:     o.logger,
	}
	e.muts = NewMutationManager(e.store, backend, e.Viewer, opts...)
	e.rec = NewReconciler(e.store, backend, opts...)
	return e
}

// Start 冷启动，等价于第一次 SetViewer。匿名用户传 Author{}。
func (e *Engine) Start(ctx context.Context, viewer Author) error {
	return e.SetViewer(ctx, viewer)
}

// SetViewer 切换当前用户：停掉旧订阅，清空 Store（不合并），重新拉取后再订阅。
// 旧用户还在进行中的写入完成后不会再改动 Store。
func (e *Engine) SetViewer(ctx context.Context, viewer Author) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.isClosed() {
		return ErrStoreClosed
	}

	// 先置为匿名再换代：乐观操作读到旧用户时，代数一定还是旧的
	e.mu.Lock()
	e.viewer = Author{}
	e.mu.Unlock()

	e.rec.Stop()
	e.store.Reset()
	gen := e.store.Generation()

	viewer.ID = strings.TrimSpace(viewer.ID)
	e.mu.Lock()
	e.viewer = viewer
	e.mu.Unlock()

	if err := e.fetchInto(ctx, gen, viewer.ID); err != nil {
		return err
	}
	if err := e.rec.Start(viewer.ID); err != nil {
		return fmt.Errorf("open realtime channels: %w", err)
	}
	e.log.Info("feed ready", "viewer", viewer.ID, "items", e.store.Len())
	return nil
}

// Refresh 重新拉取当前用户的 feed（已加载的评论会清空），订阅不变
func (e *Engine) Refresh(ctx context.Context) error {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	if e.isClosed() {
		return ErrStoreClosed
	}
	return e.fetchInto(ctx, e.store.Generation(), e.Viewer().ID)
}

func (e *Engine) fetchInto(ctx context.Context, gen uint64, viewerID string) error {
	rows, err := e.backend.FetchAll(ctx, viewerID)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	items := make([]FeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, TransformPost(row, viewerID))
	}
	return e.store.load(gen, items)
}

// SetProfile 更新当前用户的展示信息（用于之后的占位评论）
func (e *Engine) SetProfile(displayName, avatarURL string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if displayName != "" {
		e.viewer.DisplayName = displayName
	}
	if avatarURL != "" {
		e.viewer.AvatarURL = avatarURL
	}
}

// Close 页面卸载：释放订阅和计时器，销毁 Store。进行中的写入照常完成，但结果被丢弃。
func (e *Engine) Close() {
	e.lifecycle.Lock()
	defer e.lifecycle.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.rec.Stop()
	e.store.Close()
	e.log.Debug("feed engine closed", "in_flight", e.muts.InFlight())
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// Viewer 当前用户，匿名时 ID 为空
func (e *Engine) Viewer() Author {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viewer
}

func (e *Engine) Store() *Store { return e.store }

// OnChange Store 每次变更后回调（在写锁外）
func (e *Engine) OnChange(fn func(version uint64)) { e.store.SetOnChange(fn) }

func (e *Engine) Items() []FeedItem { return e.store.GetAll() }

func (e *Engine) Item(id string) (FeedItem, bool) { return e.store.GetByID(id) }

// LoadComments 拉取某条动态的评论并写入 Store。
// 还没确认的占位评论会保留在列表末尾。
func (e *Engine) LoadComments(ctx context.Context, postID string) ([]*CommentNode, error) {
	if e.isClosed() {
		return nil, ErrStoreClosed
	}
	if _, ok := e.store.GetByID(postID); !ok {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}
	gen := e.store.Generation()
	viewerID := e.Viewer().ID

	rows, err := e.backend.FetchComments(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments of %s: %w", postID, err)
	}
	list := make([]Comment, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		c := TransformComment(row, viewerID)
		if c.PostID == "" {
			c.PostID = postID
		}
		seen[c.ID] = struct{}{}
		list = append(list, c)
	}

	err = e.store.update(gen, func(tx *Tx) error {
		if prev, ok := tx.s.comments[postID]; ok {
			for _, c := range prev {
				if _, dup := seen[c.ID]; c.Pending && !dup {
					list = append(list, c)
				}
			}
		}
		if !tx.SetComments(postID, list) {
			return fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.store.CommentTree(postID), nil
}

func (e *Engine) Comments(postID string) ([]Comment, bool) { return e.store.Comments(postID) }

func (e *Engine) CommentTree(postID string) []*CommentNode { return e.store.CommentTree(postID) }

func (e *Engine) Like(ctx context.Context, itemID string) (*Pending, error) {
	return e.muts.Like(ctx, itemID)
}

func (e *Engine) Bookmark(ctx context.Context, itemID string) (*Pending, error) {
	return e.muts.Bookmark(ctx, itemID)
}

func (e *Engine) PostComment(ctx context.Context, postID, content, parentID string) (*Pending, error) {
	return e.muts.PostComment(ctx, postID, content, parentID)
}

func (e *Engine) LikeComment(ctx context.Context, commentID, postID string) (*Pending, error) {
	return e.muts.LikeComment(ctx, commentID, postID)
}

// InFlight 尚未返回的后端写入数量
func (e *Engine) InFlight() int { return e.muts.InFlight() }

// WaitWrites 等待全部进行中的写入结束（测试 / 优雅退出用）
func (e *Engine) WaitWrites() { e.muts.Wait() }

// Stats 实时事件统计
func (e *Engine) Stats() ReconcilerStats { return e.rec.Stats() }
