// Package feed_sdk 提示词分享社区的服务端 SDK：用户、动态、点赞收藏、评论，以及基于 Redis 的行变更推送
// @title Prompt Feed API
// @version 1.0
// @description 提示词分享社区的 RESTful API 文档。所有 ID 以十进制字符串传输。
// @description
// @description ## 业务状态码说明
// @description | Code | 说明 |
// @description |------|------|
// @description | 0 | 成功 |
// @description | 10001 | 参数错误 |
// @description | 10002 | 用户不存在 |
// @description | 10003 | 密码错误（登录失败） |
// @description | 10004 | Token 无效 |
// @description | 10005 | 权限不足（只能改自己的动态） |
// @description | 10006 | 重复点赞 / 收藏 |
// @description | 10007 | 动态或评论不存在 |
// @description | 10008 | 内容为空 |
// @description | 10009 | 账号或邮箱已被注册 |
// @description | 99999 | 内部错误 |
// @description
// @description ## HTTP 状态码说明
// @description - **200**: 业务请求成功（根据 response.code 判断业务状态）
// @description - **400**: 请求体无法解析
// @description - **401**: 认证失败（未登录/Token 无效/登录失败）
// @description
// @description ## 实时推送
// @description 连接 /ws 后发送 subscribe 帧，按表（posts/likes/bookmarks/comments/comment_likes）订阅行变更。
//
// @contact.name API Support
// @contact.url https://github.com/cydxin/prompt-feed-sdk/issues
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:6789
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 格式：Bearer <token>
//
// @securityDefinitions.apikey QueryToken
// @in query
// @name token
// @description 用于 WebSocket 等无法传 header 的场景
package feed_sdk
