package feedsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ViewerFunc 返回当前登录用户，ID 为空表示匿名。
// 切换用户时要先返回匿名，再 Reset Store，最后返回新用户。
type ViewerFunc func() Author

// MutationManager 乐观操作：立即改 Store，异步写后端，失败按快照回滚。
type MutationManager struct {
	store   *Store
	backend Backend
	viewer  ViewerFunc
	timeout time.Duration
	newID   func() string
	now     func() time.Time
	log     *slog.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	pending map[*Pending]struct{}
}

func NewMutationManager(store *Store, backend Backend, viewer ViewerFunc, opts ...Option) *MutationManager {
	o := buildOptions(opts)
	return &MutationManager{
		store:   store,
		backend: backend,
		viewer:  viewer,
		timeout: o.writeTimeout,
		newID:   o.newID,
		now:     o.now,
		log:     o.logger,
		pending: make(map[*Pending]struct{}),
	}
}

// Pending 一次进行中的乐观操作。Done 关闭后 Err 才有意义。
type Pending struct {
	Kind     MutationKind
	TargetID string
	PostID   string
	ViewerID string

	done    chan struct{}
	err     error
	comment *Comment
}

func (p *Pending) Done() <-chan struct{} { return p.done }

// Err 后端写入结果；被当作成功处理的错误（重复收藏）返回 nil
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait 等待后端写入完成
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Comment 评论操作确认后的真实评论
func (p *Pending) Comment() (Comment, bool) {
	select {
	case <-p.done:
	default:
		return Comment{}, false
	}
	if p.comment == nil {
		return Comment{}, false
	}
	return *p.comment, true
}

// Like 点赞 / 取消点赞（按当前状态切换）
func (m *MutationManager) Like(ctx context.Context, itemID string) (*Pending, error) {
	return m.run(ctx, newLikeOp(itemID))
}

// Bookmark 收藏 / 取消收藏（按当前状态切换）
func (m *MutationManager) Bookmark(ctx context.Context, itemID string) (*Pending, error) {
	return m.run(ctx, newBookmarkOp(itemID))
}

// PostComment 发表评论，parentID 为空表示顶级评论
func (m *MutationManager) PostComment(ctx context.Context, postID, content, parentID string) (*Pending, error) {
	id := m.newID()
	if !strings.HasPrefix(id, PendingCommentPrefix) {
		id = PendingCommentPrefix + id
	}
	return m.run(ctx, &commentOp{
		postID:   postID,
		parentID: parentID,
		content:  content,
		tempID:   id,
		at:       m.now(),
	})
}

// LikeComment 评论点赞 / 取消点赞
func (m *MutationManager) LikeComment(ctx context.Context, commentID, postID string) (*Pending, error) {
	return m.run(ctx, &commentLikeOp{postID: postID, commentID: commentID})
}

// InFlight 尚未返回的后端写入数量
func (m *MutationManager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Wait 等待全部进行中的写入结束
func (m *MutationManager) Wait() {
	m.wg.Wait()
}

type writeOutcome struct {
	res WriteResult
	err error
}

func (m *MutationManager) run(ctx context.Context, op operation) (*Pending, error) {
	// 先取代数再取用户：期间换过代，apply 会因代数不符返回 ErrStoreClosed
	gen := m.store.Generation()
	var viewer Author
	if m.viewer != nil {
		viewer = m.viewer()
	}
	if viewer.ID == "" {
		return nil, ErrAuthRequired
	}

	if err := m.store.update(gen, func(tx *Tx) error {
		return op.apply(tx, viewer)
	}); err != nil {
		return nil, err
	}

	p := &Pending{
		Kind:     op.kind(),
		TargetID: op.target(),
		PostID:   op.post(),
		ViewerID: viewer.ID,
		done:     make(chan struct{}),
	}
	m.mu.Lock()
	m.pending[p] = struct{}{}
	m.mu.Unlock()

	wop := op.writeOp(viewer.ID)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		out := m.write(ctx, wop)
		p.err = m.settle(gen, op, out)
		if c, ok := op.(*commentOp); ok {
			p.comment = c.confirmed
		}

		m.mu.Lock()
		delete(m.pending, p)
		m.mu.Unlock()
		close(p.done)
	}()
	return p, nil
}

// write 写入与调用方的 ctx 解绑（页面离开不取消写入），但受 timeout 约束；
// 即使 Backend 不理会 ctx，也会按超时返回。
func (m *MutationManager) write(ctx context.Context, wop WriteOp) writeOutcome {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	ch := make(chan writeOutcome, 1)
	go func() {
		res, err := m.backend.Write(wctx, wop)
		ch <- writeOutcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		return out
	case <-wctx.Done():
		return writeOutcome{err: fmt.Errorf("write %s timed out: %w", wop.Kind, wctx.Err())}
	}
}

func (m *MutationManager) settle(gen uint64, op operation, out writeOutcome) error {
	if out.err != nil && !op.accept(out.err) {
		err := m.store.update(gen, func(tx *Tx) error {
			op.rollback(tx)
			return nil
		})
		if errors.Is(err, ErrStoreClosed) {
			m.log.Debug("rollback skipped, store torn down", "kind", op.kind(), "target", op.target())
		} else {
			m.log.Warn("optimistic write failed, rolled back", "kind", op.kind(), "target", op.target(), "error", out.err)
		}
		return fmt.Errorf("%s %s: %w", op.kind(), op.target(), out.err)
	}

	if out.err != nil {
		m.log.Debug("write error treated as success", "kind", op.kind(), "target", op.target(), "error", out.err)
	}
	err := m.store.update(gen, func(tx *Tx) error {
		op.commit(tx, out.res)
		return nil
	})
	if errors.Is(err, ErrStoreClosed) {
		m.log.Debug("commit skipped, store torn down", "kind", op.kind(), "target", op.target())
	}
	return nil
}
