package feedsync

import (
	"sync"
)

// Store 内存里的 feed 数据，渲染层只读，写入方只有 MutationManager 和 Reconciler。
//
// 所有写操作都在同一把锁内完成，读者永远看不到“改了一半”的状态；
// 读接口返回的都是拷贝。Store 不做任何网络 I/O。
type Store struct {
	mu sync.RWMutex

	order    []string
	items    map[string]*FeedItem
	comments map[string][]Comment // postID -> 平铺评论
	// loaded 评论已从后端拉取过的动态；未拉取时 comments 里只可能有本地占位评论
	loaded map[string]bool

	closed bool
	// gen 每次 Reset 递增，异步回调用它判断自己是否已经过期
	gen uint64
	// version 每次成功写入递增
	version uint64

	onChange func(version uint64)
}

func NewStore() *Store {
	return &Store{
		items:    make(map[string]*FeedItem),
		comments: make(map[string][]Comment),
		loaded:   make(map[string]bool),
		gen:      1,
	}
}

// SetOnChange 注册变更回调（在锁外调用）
func (s *Store) SetOnChange(fn func(version uint64)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Update 在一次加锁内执行多个写操作。fn 返回错误时不提交版本号，
// 因此 fn 必须先校验再修改。
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.update(0, fn)
}

// update gen 为 0 时不校验代数
func (s *Store) update(gen uint64, fn func(tx *Tx) error) error {
	s.mu.Lock()
	if s.closed || (gen != 0 && gen != s.gen) {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	tx := &Tx{s: s}
	err := fn(tx)
	var (
		notify  func(uint64)
		version uint64
	)
	if err == nil && tx.dirty {
		s.version++
		version = s.version
		notify = s.onChange
	}
	s.mu.Unlock()

	if notify != nil {
		notify(version)
	}
	return err
}

// Load 冷启动：用全量数据替换当前内容（评论一并清空）
func (s *Store) Load(items []FeedItem) error {
	return s.load(0, items)
}

func (s *Store) load(gen uint64, items []FeedItem) error {
	return s.update(gen, func(tx *Tx) error {
		tx.s.order = make([]string, 0, len(items))
		tx.s.items = make(map[string]*FeedItem, len(items))
		tx.s.comments = make(map[string][]Comment)
		tx.s.loaded = make(map[string]bool)
		for _, it := range items {
			if it.ID == "" {
				continue
			}
			if _, dup := tx.s.items[it.ID]; dup {
				continue
			}
			cp := it.clone()
			tx.s.items[it.ID] = &cp
			tx.s.order = append(tx.s.order, it.ID)
		}
		tx.dirty = true
		return nil
	})
}

// Reset 切换用户时清空（不合并），并让旧的异步回调全部失效
func (s *Store) Reset() {
	s.mu.Lock()
	s.order = nil
	s.items = make(map[string]*FeedItem)
	s.comments = make(map[string][]Comment)
	s.loaded = make(map[string]bool)
	s.gen++
	s.version++
	version, notify := s.version, s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify(version)
	}
}

// Close 销毁 Store，之后的写操作全部返回 ErrStoreClosed
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.mu.Unlock()
}

func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Generation 当前代数，乐观操作在 apply 时记录
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// GetAll 按展示顺序返回全部动态的拷贝
func (s *Store) GetAll() []FeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FeedItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].clone())
	}
	return out
}

func (s *Store) GetByID(id string) (FeedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return FeedItem{}, false
	}
	return it.clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Comments 某条动态的平铺评论；第二个返回值表示是否从后端加载过。
// 未加载时列表里只有本地还没确认的占位评论。
func (s *Store) Comments(postID string) ([]Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loaded := s.loaded[postID]
	list, ok := s.comments[postID]
	if !ok {
		return nil, loaded
	}
	return append([]Comment(nil), list...), loaded
}

// GetComment 查找单条评论
func (s *Store) GetComment(postID, commentID string) (Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.comments[postID] {
		if c.ID == commentID {
			return c, true
		}
	}
	return Comment{}, false
}

// CommentTree 评论森林（每次现算，不缓存）
func (s *Store) CommentTree(postID string) []*CommentNode {
	list, _ := s.Comments(postID)
	return BuildCommentTree(list)
}

// ---- 单步写操作：每个都是一次独立的加锁写入 ----

// AdjustCounter 计数 +delta，结果钳到 0；返回新值
func (s *Store) AdjustCounter(id string, c Counter, delta int) (int, bool) {
	var (
		n  int
		ok bool
	)
	_ = s.Update(func(tx *Tx) error {
		n, ok = tx.AdjustCounter(id, c, delta)
		return nil
	})
	return n, ok
}

func (s *Store) SetFlag(id string, f Flag, v bool) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.SetFlag(id, f, v)
		return nil
	})
	return ok
}

// ReplaceItem 整体替换一条已存在的动态
func (s *Store) ReplaceItem(item FeedItem) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.ReplaceItem(item)
		return nil
	})
	return ok
}

// ReplaceContent 只替换内容字段，计数与当前用户状态保留
func (s *Store) ReplaceContent(item FeedItem) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.ReplaceContent(item)
		return nil
	})
	return ok
}

func (s *Store) InsertItem(item FeedItem, front bool) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.InsertItem(item, front)
		return nil
	})
	return ok
}

func (s *Store) RemoveItem(id string) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.RemoveItem(id)
		return nil
	})
	return ok
}

// SetComments 用拉取结果替换某条动态的评论
func (s *Store) SetComments(postID string, list []Comment) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.SetComments(postID, list)
		return nil
	})
	return ok
}

func (s *Store) UpsertComment(c Comment) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.UpsertComment(c)
		return nil
	})
	return ok
}

func (s *Store) RemoveComment(postID, commentID string) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.RemoveComment(postID, commentID)
		return nil
	})
	return ok
}

func (s *Store) AdjustCommentCounter(postID, commentID string, c CommentCounter, delta int) (int, bool) {
	var (
		n  int
		ok bool
	)
	_ = s.Update(func(tx *Tx) error {
		n, ok = tx.AdjustCommentCounter(postID, commentID, c, delta)
		return nil
	})
	return n, ok
}

func (s *Store) ReplaceCommentID(postID, tempID string, c Comment) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.ReplaceCommentID(postID, tempID, c)
		return nil
	})
	return ok
}

func (s *Store) SetCommentLike(postID, commentID string, liked bool, likeCount int) bool {
	var ok bool
	_ = s.Update(func(tx *Tx) error {
		ok = tx.SetCommentLike(postID, commentID, liked, likeCount)
		return nil
	})
	return ok
}

// Tx 只在 Store.Update 的回调内有效，调用方已持有写锁
type Tx struct {
	s     *Store
	dirty bool
}

func (tx *Tx) item(id string) (*FeedItem, bool) {
	it, ok := tx.s.items[id]
	return it, ok
}

func (tx *Tx) GetByID(id string) (FeedItem, bool) {
	it, ok := tx.item(id)
	if !ok {
		return FeedItem{}, false
	}
	return it.clone(), true
}

func (tx *Tx) AdjustCounter(id string, c Counter, delta int) (int, bool) {
	it, ok := tx.item(id)
	if !ok {
		return 0, false
	}
	p := counterField(it, c)
	if p == nil {
		return 0, false
	}
	*p = clamp(*p + delta)
	tx.dirty = true
	return *p, true
}

// SetCounter 直接写入计数（回滚用），负数钳到 0
func (tx *Tx) SetCounter(id string, c Counter, v int) bool {
	it, ok := tx.item(id)
	if !ok {
		return false
	}
	p := counterField(it, c)
	if p == nil {
		return false
	}
	*p = clamp(v)
	tx.dirty = true
	return true
}

func (tx *Tx) SetFlag(id string, f Flag, v bool) bool {
	it, ok := tx.item(id)
	if !ok {
		return false
	}
	switch f {
	case FlagLiked:
		it.IsLiked = v
	case FlagBookmarked:
		it.IsBookmarked = v
	default:
		return false
	}
	tx.dirty = true
	return true
}

func (tx *Tx) ReplaceItem(item FeedItem) bool {
	if _, ok := tx.item(item.ID); !ok {
		return false
	}
	cp := item.clone()
	cp.LikeCount = clamp(cp.LikeCount)
	cp.CommentCount = clamp(cp.CommentCount)
	cp.ShareCount = clamp(cp.ShareCount)
	cp.BookmarkCount = clamp(cp.BookmarkCount)
	tx.s.items[item.ID] = &cp
	tx.dirty = true
	return true
}

func (tx *Tx) ReplaceContent(item FeedItem) bool {
	it, ok := tx.item(item.ID)
	if !ok {
		return false
	}
	src := item.clone()
	it.Prompt = src.Prompt
	it.Title = src.Title
	it.Description = src.Description
	it.Images = src.Images
	it.Category = src.Category
	it.Tags = src.Tags
	it.AISource = src.AISource
	it.VideoURL = src.VideoURL
	it.Author = src.Author
	tx.dirty = true
	return true
}

func (tx *Tx) InsertItem(item FeedItem, front bool) bool {
	if item.ID == "" {
		return false
	}
	if _, ok := tx.item(item.ID); ok {
		return false
	}
	cp := item.clone()
	tx.s.items[item.ID] = &cp
	if front {
		tx.s.order = append([]string{item.ID}, tx.s.order...)
	} else {
		tx.s.order = append(tx.s.order, item.ID)
	}
	tx.dirty = true
	return true
}

func (tx *Tx) RemoveItem(id string) bool {
	if _, ok := tx.item(id); !ok {
		return false
	}
	delete(tx.s.items, id)
	delete(tx.s.comments, id)
	delete(tx.s.loaded, id)
	for i, oid := range tx.s.order {
		if oid == id {
			tx.s.order = append(tx.s.order[:i], tx.s.order[i+1:]...)
			break
		}
	}
	tx.dirty = true
	return true
}

// HasComments 该动态的评论是否已加载
func (tx *Tx) HasComments(postID string) bool {
	return tx.s.loaded[postID]
}

func (tx *Tx) SetComments(postID string, list []Comment) bool {
	if _, ok := tx.item(postID); !ok {
		return false
	}
	cp := make([]Comment, 0, len(list))
	for _, c := range list {
		if c.PostID == "" {
			c.PostID = postID
		}
		if c.PostID != postID {
			continue
		}
		cp = append(cp, c)
	}
	tx.s.comments[postID] = cp
	tx.s.loaded[postID] = true
	tx.dirty = true
	return true
}

func (tx *Tx) comment(postID, commentID string) (*Comment, bool) {
	list := tx.s.comments[postID]
	for i := range list {
		if list[i].ID == commentID {
			return &list[i], true
		}
	}
	return nil, false
}

func (tx *Tx) GetComment(postID, commentID string) (Comment, bool) {
	c, ok := tx.comment(postID, commentID)
	if !ok {
		return Comment{}, false
	}
	return *c, true
}

// UpsertComment 同 ID 覆盖，否则追加；评论未加载时只暂存，不算加载过
func (tx *Tx) UpsertComment(c Comment) bool {
	if c.ID == "" || c.PostID == "" {
		return false
	}
	if _, ok := tx.item(c.PostID); !ok {
		return false
	}
	if existing, ok := tx.comment(c.PostID, c.ID); ok {
		*existing = c
	} else {
		tx.s.comments[c.PostID] = append(tx.s.comments[c.PostID], c)
	}
	tx.dirty = true
	return true
}

func (tx *Tx) RemoveComment(postID, commentID string) bool {
	list := tx.s.comments[postID]
	for i := range list {
		if list[i].ID == commentID {
			rest := append(list[:i:i], list[i+1:]...)
			if len(rest) == 0 && !tx.s.loaded[postID] {
				delete(tx.s.comments, postID)
			} else {
				tx.s.comments[postID] = rest
			}
			tx.dirty = true
			return true
		}
	}
	return false
}

// ReplaceCommentID 用后端返回的评论替换占位评论，位置不变
func (tx *Tx) ReplaceCommentID(postID, tempID string, c Comment) bool {
	existing, ok := tx.comment(postID, tempID)
	if !ok {
		return false
	}
	// 实时推送可能已经先把真实评论插进来了，此时只删除占位
	if _, dup := tx.comment(postID, c.ID); dup && c.ID != tempID {
		return tx.RemoveComment(postID, tempID)
	}
	*existing = c
	tx.dirty = true
	return true
}

func (tx *Tx) AdjustCommentCounter(postID, commentID string, cc CommentCounter, delta int) (int, bool) {
	c, ok := tx.comment(postID, commentID)
	if !ok {
		return 0, false
	}
	var p *int
	switch cc {
	case CommentCounterLikes:
		p = &c.LikeCount
	case CommentCounterReplies:
		p = &c.RepliesCount
	default:
		return 0, false
	}
	*p = clamp(*p + delta)
	tx.dirty = true
	return *p, true
}

// SetCommentCounter 直接写入评论计数（回滚用）
func (tx *Tx) SetCommentCounter(postID, commentID string, cc CommentCounter, v int) bool {
	c, ok := tx.comment(postID, commentID)
	if !ok {
		return false
	}
	switch cc {
	case CommentCounterLikes:
		c.LikeCount = clamp(v)
	case CommentCounterReplies:
		c.RepliesCount = clamp(v)
	default:
		return false
	}
	tx.dirty = true
	return true
}

func (tx *Tx) SetCommentLike(postID, commentID string, liked bool, likeCount int) bool {
	c, ok := tx.comment(postID, commentID)
	if !ok {
		return false
	}
	c.IsLiked = liked
	c.LikeCount = clamp(likeCount)
	tx.dirty = true
	return true
}

func counterField(it *FeedItem, c Counter) *int {
	switch c {
	case CounterLikes:
		return &it.LikeCount
	case CounterComments:
		return &it.CommentCount
	case CounterShares:
		return &it.ShareCount
	case CounterBookmarks:
		return &it.BookmarkCount
	}
	return nil
}

func flagValue(it *FeedItem, f Flag) bool {
	if f == FlagBookmarked {
		return it.IsBookmarked
	}
	return it.IsLiked
}
