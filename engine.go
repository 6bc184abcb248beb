package feed_sdk

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/cydxin/prompt-feed-sdk/middleware"
	"github.com/cydxin/prompt-feed-sdk/models"
	"github.com/cydxin/prompt-feed-sdk/realtime"
	"github.com/cydxin/prompt-feed-sdk/service"
	"github.com/gin-gonic/gin"
)

type FeedEngine struct {
	config *Config
	log    *slog.Logger
	base   *service.Service

	UserService        *service.UserService
	PostService        *service.PostService
	CommentService     *service.CommentService
	InteractionService *service.InteractionService
	AuthService        *service.AuthService // 鉴权服务

	// Bus 没有配置 Redis 时为 nil：写库照常，只是不推送
	Bus   *realtime.Bus
	WsHub *WsHub
}

// NewEngine 创建实例
// 使用选项模式传入配置，Option回调。每次调用返回一个新实例，测试里可以同时建多个。
func NewEngine(opts ...Option) *FeedEngine {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Service.Debug && c.DB != nil {
		c.DB = c.DB.Debug()
	}

	baseService := &service.Service{
		DB:  c.DB,
		RDB: c.RDB,
		Log: c.Logger,
	}
	e := &FeedEngine{config: c, log: c.Logger, base: baseService}
	if c.RDB != nil {
		e.Bus = realtime.NewBus(c.RDB, c.ChannelPrefix, c.Logger)
		baseService.Publisher = e.Bus
	}

	// 初始化各个 Service
	e.UserService = service.NewUserService(baseService)
	e.PostService = service.NewPostService(baseService)
	e.CommentService = service.NewCommentService(baseService)
	e.InteractionService = service.NewInteractionService(baseService)
	e.AuthService = service.NewAuthService(c.RDB)

	// 初始化 WS；没有总线时 hub 只能回错误
	var sub service.Subscriber
	if e.Bus != nil {
		sub = e.Bus
	}
	e.WsHub = NewWsHub(sub, c.Logger)
	go e.WsHub.Run()

	// 迁移表
	if !c.SkipMigrate && c.DB != nil {
		if err := e.AutoMigrate(); err != nil {
			log.Printf("AutoMigrate failed: %v", err)
		}
	}
	return e
}

func (e *FeedEngine) AutoMigrate() error {
	log.Println("AutoMigrate...")
	return e.config.DB.AutoMigrate(models.All()...)
}

// LocalBackend 给同进程的 feedsync.Engine 用的后端
func (e *FeedEngine) LocalBackend() *service.LocalBackend {
	var sub service.Subscriber
	if e.Bus != nil {
		sub = e.Bus
	}
	return service.NewLocalBackend(e.base, sub)
}

// ServeWS 处理 WebSocket 请求，userID 为 0 表示匿名连接（只能订阅，不影响推送内容）
func (e *FeedEngine) ServeWS(w http.ResponseWriter, r *http.Request, userID uint64) {
	e.WsHub.ServeWS(w, r, userID)
}

// GinHandleWS 先尝试鉴权再升级；token 无效时按匿名处理
// @Summary 实时推送（WebSocket）
// @Description 升级为 WebSocket。上行 {"type":"subscribe","sub_id":"1","table":"likes","filter":{"column":"post_id","value":"5"}}，下行 {"type":"change","sub_id":"1","event":{...}}
// @Tags 实时
// @Param token query string false "登录 token"
// @Success 101 {string} string "Switching Protocols"
// @Security QueryToken
// @Router /ws [get]
func (e *FeedEngine) GinHandleWS(ctx *gin.Context) {
	var uid uint64
	if id, _, err := e.AuthService.AuthenticateRequest(ctx.Request.Context(), ctx.Request); err == nil {
		uid = id
	}
	e.ServeWS(ctx.Writer, ctx.Request, uid)
}

// GinAuthMiddleware 返回配置好的 Gin 鉴权中间件
// 使用 FeedEngine 内部的 AuthService 和 Redis 配置
//
// 使用示例:
//
//	engine := feed_sdk.NewEngine(...)
//	r := gin.Default()
//	r.Use(engine.GinAuthMiddleware(nil)) // 使用默认配置
//	// 或自定义配置
//	r.Use(engine.GinAuthMiddleware(&middleware.AuthOptions{
//	    HeaderKey: "X-Token",
//	    QueryKey: "access_token",
//	}))
func (e *FeedEngine) GinAuthMiddleware(opt *middleware.AuthOptions) gin.HandlerFunc {
	return middleware.GinAuthMiddleware(e.AuthService, opt)
}

// GinOptionalAuthMiddleware 匿名可访问的接口用
func (e *FeedEngine) GinOptionalAuthMiddleware(opt *middleware.AuthOptions) gin.HandlerFunc {
	return middleware.GinOptionalAuthMiddleware(e.AuthService, opt)
}

// Close 断开全部 WS 连接并关闭总线
func (e *FeedEngine) Close() {
	e.WsHub.Close()
	if e.Bus != nil {
		e.Bus.Close()
	}
}
