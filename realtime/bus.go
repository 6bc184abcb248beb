// Package realtime 基于 Redis Pub/Sub 的行变更总线：服务端写库后 Publish，
// 引擎（进程内）或 WS hub（跨进程）按表订阅。
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/message"
)

// DefaultChannelPrefix 频道名为 {prefix}:{table}
const DefaultChannelPrefix = "pf:changes"

const subscribeTimeout = 5 * time.Second

// ErrBusClosed 总线已关闭
var ErrBusClosed = errors.New("realtime: bus closed")

// Bus 行变更总线，可并发使用
type Bus struct {
	rdb    *redis.Client
	prefix string
	log    *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

type subscription struct {
	ps      *redis.PubSub
	stopped atomic.Bool
	once    sync.Once
}

// NewBus prefix 为空时用 DefaultChannelPrefix，log 为空时用 slog.Default()
func NewBus(rdb *redis.Client, prefix string, log *slog.Logger) *Bus {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		rdb:    rdb,
		prefix: prefix,
		log:    log.With("component", "realtime"),
		subs:   make(map[uint64]*subscription),
	}
}

// Channel 表对应的 Redis 频道
func (b *Bus) Channel(table string) string {
	return b.prefix + ":" + table
}

// Publish 推送一条行变更
func (b *Bus) Publish(ctx context.Context, evt message.ChangeEvent) error {
	if evt.Table == "" {
		return fmt.Errorf("publish: %w", feedsync.ErrMalformedEvent)
	}
	if evt.CommitAt.IsZero() {
		evt.CommitAt = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.Channel(evt.Table), data).Err()
}

// Subscribe 订阅一张表。每个订阅一个 goroutine，handler 在该 goroutine 上串行调用；
// 不满足 filter 的事件直接丢弃。返回的 Unsubscribe 可多次调用。
func (b *Bus) Subscribe(table string, filter *message.Filter, handler func(message.ChangeEvent)) (feedsync.Unsubscribe, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	b.nextID++
	id := b.nextID
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()
	ps := b.rdb.Subscribe(ctx, b.Channel(table))
	// 等订阅确认，保证返回之后的 Publish 不会丢
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.Channel(table), err)
	}

	sub := &subscription{ps: ps}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = ps.Close()
		return nil, ErrBusClosed
	}
	b.subs[id] = sub
	b.wg.Add(1)
	b.mu.Unlock()

	go b.loop(table, filter, sub, handler)

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		sub.stop()
	}, nil
}

func (s *subscription) stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		_ = s.ps.Close()
	})
}

func (b *Bus) loop(table string, filter *message.Filter, sub *subscription, handler func(message.ChangeEvent)) {
	defer b.wg.Done()
	for msg := range sub.ps.Channel() {
		if sub.stopped.Load() {
			return
		}
		var evt message.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			b.log.Warn("drop undecodable event", "channel", msg.Channel, "err", err)
			continue
		}
		if evt.Table == "" {
			evt.Table = table
		}
		if !filter.Match(evt) {
			continue
		}
		handler(evt)
	}
}

// Subscriptions 当前活跃订阅数
func (b *Bus) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close 关闭全部订阅并等待投递 goroutine 退出。不要在 handler 里调用。
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uint64]*subscription)
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	b.wg.Wait()
}
