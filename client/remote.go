package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/message"
	"github.com/cydxin/prompt-feed-sdk/response"
)

const (
	defaultPageSize = 100
	ackTimeout      = 5 * time.Second
	writeWait       = 10 * time.Second
)

// ErrDisconnected WS 连接已断开，订阅不再收到推送
var ErrDisconnected = errors.New("realtime connection closed")

// Remote 通过 HTTP 接口 + /ws 推送实现 feedsync.Backend。
// 当前用户由 token 决定，viewerID 只用来判断是否匿名。
type Remote struct {
	baseURL string
	wsURL   string
	token   string
	http    *http.Client
	log     *slog.Logger

	// PageSize 冷启动拉取的动态条数
	PageSize int

	mu       sync.Mutex
	conn     *websocket.Conn
	writeMu  sync.Mutex
	handlers map[string]func(message.ChangeEvent)
	acks     map[string]chan message.WsAck
	nextID   uint64
	closed   bool
}

var _ feedsync.Backend = (*Remote)(nil)

type Option func(*Remote)

// WithToken 登录后拿到的 token，写操作必须有
func WithToken(token string) Option {
	return func(r *Remote) { r.token = token }
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *Remote) { r.http = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Remote) { r.log = l }
}

// WithWSURL 覆盖推送地址，默认由 baseURL 推出 ws(s)://host/api/v1/ws
func WithWSURL(u string) Option {
	return func(r *Remote) { r.wsURL = u }
}

// NewRemote baseURL 指向接口分组，例如 http://localhost:6789/api/v1
func NewRemote(baseURL string, opts ...Option) *Remote {
	r := &Remote{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      slog.Default(),
		PageSize: defaultPageSize,
		handlers: make(map[string]func(message.ChangeEvent)),
		acks:     make(map[string]chan message.WsAck),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.wsURL == "" {
		r.wsURL = deriveWSURL(r.baseURL)
	}
	return r
}

func deriveWSURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	}
	return base + "/ws"
}

// envelope 与 response.Response 一致，data 延迟解码
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (r *Remote) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", path, feedsync.ErrAuthRequired)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: http %d: decode: %w", path, resp.StatusCode, err)
	}
	if env.Code != response.CodeSuccess {
		return fmt.Errorf("%s: %w", path, codeError(env.Code, env.Msg))
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// codeError 业务码映射回 feedsync 的哨兵错误
func codeError(code int, msg string) error {
	switch code {
	case response.CodeDuplicate:
		return feedsync.ErrDuplicate
	case response.CodeNotFound:
		return feedsync.ErrNotFound
	case response.CodeEmptyContent:
		return feedsync.ErrEmptyContent
	case response.CodeTokenInvalid:
		return feedsync.ErrAuthRequired
	}
	return response.Error(code, msg).Err()
}

func (r *Remote) FetchAll(ctx context.Context, _ string) ([]message.PostRow, error) {
	var rows []message.PostRow
	q := url.Values{"limit": {strconv.Itoa(r.PageSize)}}
	if err := r.call(ctx, http.MethodGet, "/feed/list", q, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Remote) FetchComments(ctx context.Context, postID, _ string) ([]message.CommentRow, error) {
	var rows []message.CommentRow
	if err := r.call(ctx, http.MethodGet, "/feed/comment/list", url.Values{"post_id": {postID}}, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Remote) Write(ctx context.Context, op feedsync.WriteOp) (feedsync.WriteResult, error) {
	var res feedsync.WriteResult
	if op.ViewerID == "" || r.token == "" {
		return res, feedsync.ErrAuthRequired
	}
	postBody := map[string]string{"post_id": op.PostID}
	commentBody := map[string]string{"comment_id": op.CommentID}

	var err error
	switch op.Kind {
	case feedsync.MutationLike:
		err = r.call(ctx, http.MethodPost, "/feed/like", nil, postBody, nil)
	case feedsync.MutationUnlike:
		err = r.call(ctx, http.MethodPost, "/feed/unlike", nil, postBody, nil)
	case feedsync.MutationBookmark:
		err = r.call(ctx, http.MethodPost, "/feed/bookmark", nil, postBody, nil)
	case feedsync.MutationUnbookmark:
		err = r.call(ctx, http.MethodPost, "/feed/unbookmark", nil, postBody, nil)
	case feedsync.MutationCommentLike:
		err = r.call(ctx, http.MethodPost, "/feed/comment/like", nil, commentBody, nil)
	case feedsync.MutationCommentUnlike:
		err = r.call(ctx, http.MethodPost, "/feed/comment/unlike", nil, commentBody, nil)
	case feedsync.MutationComment:
		var row message.CommentRow
		body := map[string]string{"post_id": op.PostID, "parent_id": op.ParentID, "content": op.Content}
		if err = r.call(ctx, http.MethodPost, "/feed/comment", nil, body, &row); err == nil {
			res.Comment = &row
		}
	default:
		return res, fmt.Errorf("unsupported write %q", op.Kind)
	}
	return res, err
}

// Subscribe 所有订阅共用一条 WS 连接，第一次订阅时建立。
// 连接断开后不重连，已有订阅不再收到推送。
func (r *Remote) Subscribe(table string, filter *message.Filter, handler func(message.ChangeEvent)) (feedsync.Unsubscribe, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrDisconnected
	}
	if err := r.dialLocked(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.nextID++
	subID := strconv.FormatUint(r.nextID, 10)
	ack := make(chan message.WsAck, 1)
	r.handlers[subID] = handler
	r.acks[subID] = ack
	conn := r.conn
	r.mu.Unlock()

	req := message.SubscribeReq{Type: message.WsTypeSubscribe, SubID: subID, Table: table, Filter: filter}
	if err := r.send(conn, req); err != nil {
		r.drop(subID)
		return nil, err
	}

	select {
	case a, ok := <-ack:
		if !ok {
			r.drop(subID)
			return nil, ErrDisconnected
		}
		if a.Type != message.WsTypeSubscribed {
			r.drop(subID)
			return nil, fmt.Errorf("subscribe %s: %s", table, a.Message)
		}
	case <-time.After(ackTimeout):
		r.drop(subID)
		return nil, fmt.Errorf("subscribe %s: no ack within %s", table, ackTimeout)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.drop(subID)
			r.mu.Lock()
			c := r.conn
			r.mu.Unlock()
			if c != nil {
				_ = r.send(c, message.SubscribeReq{Type: message.WsTypeUnsubscribe, SubID: subID})
			}
		})
	}, nil
}

func (r *Remote) dialLocked() error {
	if r.conn != nil {
		return nil
	}
	u := r.wsURL
	if r.token != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "token=" + url.QueryEscape(r.token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("dial realtime: %w", err)
	}
	r.conn = conn
	go r.readLoop(conn)
	return nil
}

func (r *Remote) send(conn *websocket.Conn, v any) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (r *Remote) drop(subID string) {
	r.mu.Lock()
	delete(r.handlers, subID)
	delete(r.acks, subID)
	r.mu.Unlock()
}

// frame 下行帧：change 推送和 ack 共用
type frame struct {
	Type    string              `json:"type"`
	SubID   string              `json:"sub_id"`
	Message string              `json:"message"`
	Event   message.ChangeEvent `json:"event"`
}

func (r *Remote) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			r.mu.Lock()
			closed := r.closed
			if r.conn == conn {
				r.conn = nil
			}
			for id, ch := range r.acks {
				close(ch)
				delete(r.acks, id)
			}
			r.handlers = make(map[string]func(message.ChangeEvent))
			r.mu.Unlock()
			if !closed {
				r.log.Warn("realtime connection lost", "err", err)
			}
			return
		}

		switch f.Type {
		case message.WsTypeChange:
			r.mu.Lock()
			h := r.handlers[f.SubID]
			r.mu.Unlock()
			if h != nil {
				h(f.Event)
			}
		case message.WsTypeSubscribed, message.WsTypeError:
			r.mu.Lock()
			ch, ok := r.acks[f.SubID]
			if ok {
				delete(r.acks, f.SubID)
			}
			r.mu.Unlock()
			if ok {
				ch <- message.WsAck{Type: f.Type, SubID: f.SubID, Message: f.Message}
			} else if f.Type == message.WsTypeError {
				r.log.Warn("realtime error frame", "sub_id", f.SubID, "message", f.Message)
			}
		}
	}
}

// Close 断开 WS，之后 Subscribe 返回 ErrDisconnected
func (r *Remote) Close() error {
	r.mu.Lock()
	r.closed = true
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn == nil {
		return nil
	}
	r.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	r.writeMu.Unlock()
	return conn.Close()
}
