package feedsync

import (
	"fmt"
	"sort"
	"strings"
)

// CommentNode 评论树节点。
// 数据结构支持任意深度；“只展示两级”是渲染层的限制，用 Flatten 把深层回复收拢到根评论下。
type CommentNode struct {
	Comment
	Replies []*CommentNode
	// ReplyCount 已加载的直接回复数
	ReplyCount int
	// Collapsed 后端的 replies_count 大于已加载的回复数，还有回复可以展开
	Collapsed bool
}

// BuildCommentTree 把平铺的评论列表构建成森林。
//
//   - 父评论存在则挂到父评论下，否则（parent 为空 / 不存在 / 成环）作为根评论
//   - 每一层按 CreatedAt 升序，时间相同保持输入顺序
//   - 纯函数，不保留任何状态，可以在每次同步后重复调用
//
// 输入已按时间排序时（后端默认如此）整体为线性复杂度。
func BuildCommentTree(comments []Comment) []*CommentNode {
	if len(comments) == 0 {
		return []*CommentNode{}
	}

	list := comments
	if !chronological(list) {
		list = append([]Comment(nil), comments...)
		sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	}

	// 1) id -> node，重复 ID 只保留第一条
	nodes := make(map[string]*CommentNode, len(list))
	ordered := make([]*CommentNode, 0, len(list))
	for _, c := range list {
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &CommentNode{Comment: c}
		nodes[c.ID] = n
		ordered = append(ordered, n)
	}

	// 2) 断环：沿父链向上走，遇到正在访问的节点说明成环，把它当作根
	parent := resolveParents(ordered, nodes)

	// 3) 挂载
	roots := make([]*CommentNode, 0, len(ordered))
	for _, n := range ordered {
		p := parent[n.ID]
		if p == nil {
			roots = append(roots, n)
			continue
		}
		p.Replies = append(p.Replies, n)
	}
	for _, n := range ordered {
		n.ReplyCount = len(n.Replies)
		n.Collapsed = n.RepliesCount > n.ReplyCount
	}
	return roots
}

func chronological(list []Comment) bool {
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Before(list[i-1].CreatedAt) {
			return false
		}
	}
	return true
}

// resolveParents 返回 id -> 父节点（nil 表示根）。每个节点最多被访问常数次。
func resolveParents(ordered []*CommentNode, nodes map[string]*CommentNode) map[string]*CommentNode {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(ordered))
	parent := make(map[string]*CommentNode, len(ordered))

	for _, start := range ordered {
		if state[start.ID] == done {
			continue
		}
		var path []*CommentNode
		cur := start
		for cur != nil && state[cur.ID] == unvisited {
			state[cur.ID] = visiting
			path = append(path, cur)
			p := nodes[cur.ParentID]
			if cur.ParentID == "" || p == nil {
				parent[cur.ID] = nil
				break
			}
			if state[p.ID] == visiting {
				// 成环：当前节点作为根
				parent[cur.ID] = nil
				break
			}
			parent[cur.ID] = p
			cur = p
		}
		for _, n := range path {
			state[n.ID] = done
		}
	}
	return parent
}

// Flatten 返回 n 的全部后代（不含 n），按时间升序。
// 两级展示时用它把更深的回复收拢到根评论的回复列表里。
func Flatten(n *CommentNode) []Comment {
	if n == nil {
		return nil
	}
	var out []Comment
	stack := append([]*CommentNode(nil), n.Replies...)
	for len(stack) > 0 {
		last := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, last.Comment)
		stack = append(stack, last.Replies...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CountComments 森林中的评论总数
func CountComments(roots []*CommentNode) int {
	total := 0
	for _, r := range roots {
		total++
		total += CountComments(r.Replies)
	}
	return total
}

// FormatTree 文本形式的评论树（日志 / 命令行输出用）
func FormatTree(roots []*CommentNode) string {
	var b strings.Builder
	var walk func(nodes []*CommentNode, depth int)
	walk = func(nodes []*CommentNode, depth int) {
		for _, n := range nodes {
			b.WriteString(strings.Repeat("  ", depth))
			fmt.Fprintf(&b, "%s [%s] %s (likes=%d replies=%d", n.ID, n.Author.DisplayName, n.Content, n.LikeCount, n.ReplyCount)
			if n.Collapsed {
				b.WriteString(" more")
			}
			if n.Pending {
				b.WriteString(" pending")
			}
			b.WriteString(")\n")
			walk(n.Replies, depth+1)
		}
	}
	walk(roots, 0)
	return b.String()
}
