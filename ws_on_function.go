package feed_sdk

import (
	"encoding/json"
	"slices"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
)

// handleFrame 处理上行帧：只有 subscribe / unsubscribe 两种
func (h *WsHub) handleFrame(client *Client, msg []byte) {
	var req message.SubscribeReq
	if err := json.Unmarshal(msg, &req); err != nil {
		client.sendJSON(message.WsAck{Type: message.WsTypeError, Message: "invalid frame"})
		return
	}
	switch req.Type {
	case message.WsTypeSubscribe:
		h.subscribe(client, req)
	case message.WsTypeUnsubscribe:
		h.unsubscribe(client, req.SubID)
	default:
		client.sendJSON(message.WsAck{Type: message.WsTypeError, SubID: req.SubID, Message: "unknown type " + req.Type})
	}
}

func (h *WsHub) subscribe(client *Client, req message.SubscribeReq) {
	fail := func(msg string) {
		client.sendJSON(message.WsAck{Type: message.WsTypeError, SubID: req.SubID, Message: msg})
	}
	if req.SubID == "" {
		fail("sub_id required")
		return
	}
	if !slices.Contains(cons.WatchedTables, req.Table) {
		fail("unknown table " + req.Table)
		return
	}
	if h.bus == nil {
		fail("realtime disabled")
		return
	}

	client.mu.Lock()
	_, dup := client.subs[req.SubID]
	full := len(client.subs) >= maxSubscriptions
	closed := client.closed
	client.mu.Unlock()
	switch {
	case closed:
		return
	case dup:
		fail("duplicate sub_id")
		return
	case full:
		fail("too many subscriptions")
		return
	}

	subID := req.SubID
	unsub, err := h.bus.Subscribe(req.Table, req.Filter, func(evt message.ChangeEvent) {
		client.sendJSON(message.ChangePush{Type: message.WsTypeChange, SubID: subID, Event: evt})
	})
	if err != nil {
		h.log.Warn("ws subscribe failed", "session", client.SessionID, "table", req.Table, "err", err)
		fail("subscribe failed")
		return
	}

	client.mu.Lock()
	if client.closed {
		client.mu.Unlock()
		unsub()
		return
	}
	client.subs[subID] = unsub
	client.mu.Unlock()

	h.log.Debug("ws subscribed", "session", client.SessionID, "sub_id", subID, "table", req.Table, "filter", req.Filter.String())
	client.sendJSON(message.WsAck{Type: message.WsTypeSubscribed, SubID: subID})
}

func (h *WsHub) unsubscribe(client *Client, subID string) {
	client.mu.Lock()
	unsub, ok := client.subs[subID]
	if ok {
		delete(client.subs, subID)
	}
	client.mu.Unlock()
	if ok {
		unsub()
	}
}
