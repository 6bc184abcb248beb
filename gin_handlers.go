package feed_sdk

import "github.com/gin-gonic/gin"

/* 接口按模块拆分：
- handler_user.go    用户
- handler_feed.go    动态 / 点赞 / 收藏
- handler_comment.go 评论
- engine.go          /ws 实时推送
*/

// RegisterRoutes 把全部接口挂到 r 上（通常是 /api/v1 分组）。
// 读接口可匿名访问，写接口必须登录。
//
//	api := r.Group("/api/v1")
//	engine.RegisterRoutes(api)
func (e *FeedEngine) RegisterRoutes(r gin.IRouter) {
	optional := e.GinOptionalAuthMiddleware(nil)
	required := e.GinAuthMiddleware(nil)

	userAPI := r.Group("/user")
	{
		userAPI.POST("/register", e.GinHandleUserRegister)
		userAPI.POST("/login", e.GinHandleUserLogin)
		userAPI.GET("/info", optional, e.GinHandleGetUserInfo)
		userAPI.POST("/update", required, e.GinHandleUpdateProfile)
		userAPI.POST("/logout", required, e.GinHandleLogout)
	}

	feedAPI := r.Group("/feed")
	{
		feedAPI.GET("/list", optional, e.GinHandleListFeed)
		feedAPI.GET("/detail", optional, e.GinHandleGetPost)
		feedAPI.POST("/create", required, e.GinHandleCreatePost)
		feedAPI.POST("/update", required, e.GinHandleUpdatePost)
		feedAPI.POST("/delete", required, e.GinHandleDeletePost)
		feedAPI.POST("/like", required, e.GinHandleLike)
		feedAPI.POST("/unlike", required, e.GinHandleUnlike)
		feedAPI.POST("/bookmark", required, e.GinHandleBookmark)
		feedAPI.POST("/unbookmark", required, e.GinHandleUnbookmark)

		feedAPI.GET("/comment/list", optional, e.GinHandleListComments)
		feedAPI.POST("/comment", required, e.GinHandleAddComment)
		feedAPI.POST("/comment/like", required, e.GinHandleLikeComment)
		feedAPI.POST("/comment/unlike", required, e.GinHandleUnlikeComment)
	}

	r.GET("/ws", e.GinHandleWS)
}
