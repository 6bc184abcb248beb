package feedsync_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/feedsync/feedtest"
)

const viewerID = "me"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newEngine 默认收到事件立即合并，便于断言
func newEngine(t *testing.T, b *feedtest.Backend, opts ...feedsync.Option) *feedsync.Engine {
	t.Helper()
	base := []feedsync.Option{feedsync.WithFoldDelay(0), feedsync.WithLogger(quietLogger())}
	e := feedsync.NewEngine(b, append(base, opts...)...)
	t.Cleanup(e.Close)
	return e
}

func startAs(t *testing.T, e *feedsync.Engine, id string) {
	t.Helper()
	require.NoError(t, e.Start(context.Background(), feedsync.Author{ID: id, DisplayName: "Me"}))
}

func waitPending(t *testing.T, p *feedsync.Pending) error {
	t.Helper()
	select {
	case <-p.Done():
		return p.Err()
	case <-time.After(2 * time.Second):
		t.Fatalf("%s %s never settled", p.Kind, p.TargetID)
		return nil
	}
}

func item(t *testing.T, e *feedsync.Engine, id string) feedsync.FeedItem {
	t.Helper()
	it, ok := e.Item(id)
	require.True(t, ok, "item %s not in store", id)
	return it
}

// gateWrites 让后端写入阻塞，直到测试往返回的 channel 里送一个结果
func gateWrites(b *feedtest.Backend) chan<- error {
	ch := make(chan error, 16)
	b.SetWriteFunc(func(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
		select {
		case err := <-ch:
			return feedsync.WriteResult{}, err
		case <-ctx.Done():
			return feedsync.WriteResult{}, ctx.Err()
		}
	})
	return ch
}
