package message

// WS 上行/下行消息类型
const (
	WsTypeSubscribe   = "subscribe"   // 订阅某张表（client -> server）
	WsTypeUnsubscribe = "unsubscribe" // 取消订阅（client -> server）
	WsTypeSubscribed  = "subscribed"  // 订阅成功确认（server -> client）
	WsTypeChange      = "change"      // 行变更推送（server -> client）
	WsTypeError       = "error"       // 错误（server -> client）
)

// SubscribeReq 订阅/取消订阅请求。
// sub_id 由客户端生成，同一连接内唯一，推送时原样带回用于分发。
type SubscribeReq struct {
	Type   string  `json:"type"`
	SubID  string  `json:"sub_id"`
	Table  string  `json:"table,omitempty"`
	Filter *Filter `json:"filter,omitempty"`
}

// ChangePush 服务端推送的行变更
type ChangePush struct {
	Type  string      `json:"type"`
	SubID string      `json:"sub_id"`
	Event ChangeEvent `json:"event"`
}

// WsAck 订阅确认 / 错误
type WsAck struct {
	Type    string `json:"type"`
	SubID   string `json:"sub_id,omitempty"`
	Message string `json:"message,omitempty"`
}
