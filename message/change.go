package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeEvent 行变更事件。
// INSERT 只有 New；DELETE 只有 Old；UPDATE 两者都可能有（Old 可能只包含主键）。
type ChangeEvent struct {
	Table     string          `json:"table"`
	EventType string          `json:"event_type"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
	CommitAt  time.Time       `json:"commit_at"`
}

// Row 返回事件里“有意义”的那一行：优先 New，其次 Old。
func (e ChangeEvent) Row() json.RawMessage {
	if len(e.New) > 0 && string(e.New) != "null" {
		return e.New
	}
	if len(e.Old) > 0 && string(e.Old) != "null" {
		return e.Old
	}
	return nil
}

// Decode 把 Row() 解码到 v
func (e ChangeEvent) Decode(v any) error {
	row := e.Row()
	if row == nil {
		return fmt.Errorf("event %s/%s has no row", e.Table, e.EventType)
	}
	return json.Unmarshal(row, v)
}

// NewChangeEvent 构造事件，row 为 nil 时对应字段留空
func NewChangeEvent(table, eventType string, newRow, oldRow any) (ChangeEvent, error) {
	evt := ChangeEvent{Table: table, EventType: eventType, CommitAt: time.Now()}
	if newRow != nil {
		b, err := json.Marshal(newRow)
		if err != nil {
			return evt, err
		}
		evt.New = b
	}
	if oldRow != nil {
		b, err := json.Marshal(oldRow)
		if err != nil {
			return evt, err
		}
		evt.Old = b
	}
	return evt, nil
}

// Filter 订阅行过滤：只接收 Column == Value 的行（例如 user_id = 当前用户）。
type Filter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Match 判断事件是否满足过滤条件，nil 过滤器匹配所有事件。
func (f *Filter) Match(e ChangeEvent) bool {
	if f == nil || f.Column == "" {
		return true
	}
	row := e.Row()
	if row == nil {
		return false
	}
	var m map[string]any
	if err := json.Unmarshal(row, &m); err != nil {
		return false
	}
	v, ok := m[f.Column]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t == f.Value
	case float64:
		return fmt.Sprintf("%.0f", t) == f.Value
	default:
		return fmt.Sprint(t) == f.Value
	}
}

// String 形如 user_id=eq.42，用于日志
func (f *Filter) String() string {
	if f == nil || f.Column == "" {
		return "*"
	}
	return f.Column + "=eq." + f.Value
}
