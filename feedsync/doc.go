// Package feedsync 是客户端的 feed 状态同步引擎。
//
// 它在内存里维护一份可见的动态列表（点赞/收藏/评论计数 + 评论树），并同时处理三类输入：
//
//   - 用户操作：乐观更新，立即生效（MutationManager）
//   - 后端写入的确认/失败：失败时按快照精确回滚
//   - 实时推送：其他用户对同一批行的改动（Reconciler），自己的操作一律丢弃，避免重复计数
//
// Store 是唯一的数据源，渲染层只读；写入方只有 MutationManager 和 Reconciler 两个。
// 后端通过 Backend 接口注入，测试使用 feedtest 包里的内存实现。
package feedsync
