package feedsync

import (
	"log/slog"
	"time"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
	"github.com/google/uuid"
)

const (
	// DefaultFoldDelay 实时事件合并前的固定等待，给后端的读写一致性留时间
	DefaultFoldDelay = 100 * time.Millisecond
	// DefaultWriteTimeout 后端写入超时，超时按失败回滚
	DefaultWriteTimeout = 10 * time.Second
)

// Watch 一个实时订阅：表名 + 可选行过滤
type Watch struct {
	Table  string
	Filter *message.Filter
}

// DefaultWatches 监听全部表，不加行过滤（别人的操作同样需要合并）
func DefaultWatches() []Watch {
	out := make([]Watch, 0, len(cons.WatchedTables))
	for _, t := range cons.WatchedTables {
		out = append(out, Watch{Table: t})
	}
	return out
}

type options struct {
	foldDelay    time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
	watches      []Watch
	newID        func() string
	now          func() time.Time
}

func defaultOptions() options {
	return options{
		foldDelay:    DefaultFoldDelay,
		writeTimeout: DefaultWriteTimeout,
		logger:       slog.Default(),
		watches:      DefaultWatches(),
		newID:        func() string { return PendingCommentPrefix + uuid.NewString() },
		now:          time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Option func(*options)

// WithFoldDelay 实时事件合并延迟，<= 0 表示收到即合并
func WithFoldDelay(d time.Duration) Option {
	return func(o *options) {
		o.foldDelay = d
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWatches 覆盖默认订阅列表
func WithWatches(w ...Watch) Option {
	return func(o *options) {
		o.watches = append([]Watch(nil), w...)
	}
}

// WithIDGenerator 乐观评论临时 ID 生成器（测试用固定 ID）
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithClock 占位评论的创建时间来源
func WithClock(fn func() time.Time) Option {
	return func(o *options) {
		if fn != nil {
			o.now = fn
		}
	}
}
