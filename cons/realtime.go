package cons

// 实时推送频道对应的表名（与 feedsync 订阅的 table 保持一致）
const (
	TablePosts        = "posts"         // 动态
	TableLikes        = "likes"         // 动态点赞
	TableComments     = "comments"      // 评论
	TableBookmarks    = "bookmarks"     // 收藏
	TableCommentLikes = "comment_likes" // 评论点赞
)

// 行变更事件类型（event_type）
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// WatchedTables 默认监听的全部表
var WatchedTables = []string{TablePosts, TableLikes, TableComments, TableBookmarks, TableCommentLikes}
