package middleware

import (
	"net/http"
	"strings"

	"github.com/cydxin/prompt-feed-sdk/response"
	"github.com/cydxin/prompt-feed-sdk/service"
	"github.com/gin-gonic/gin"
)

const (
	// ContextUserIDKey gin context 里保存 user id 的 key
	ContextUserIDKey = "user_id"
	ContextTokenKey  = "token"
)

// AuthOptions 可选配置。
type AuthOptions struct {
	// HeaderKey 默认 Authorization
	HeaderKey string
	// QueryKey 默认 token
	QueryKey string
	// UserIDKey 默认 user_id
	UserIDKey string
	// TokenKey 默认 token
	TokenKey string
}

func (o *AuthOptions) withDefaults() AuthOptions {
	if o == nil {
		return AuthOptions{HeaderKey: "Authorization", QueryKey: "token", UserIDKey: ContextUserIDKey, TokenKey: ContextTokenKey}
	}
	out := *o
	if out.HeaderKey == "" {
		out.HeaderKey = "Authorization"
	}
	if out.QueryKey == "" {
		out.QueryKey = "token"
	}
	if out.UserIDKey == "" {
		out.UserIDKey = ContextUserIDKey
	}
	if out.TokenKey == "" {
		out.TokenKey = ContextTokenKey
	}
	return out
}

func (o AuthOptions) extract(c *gin.Context) string {
	// 1) header bearer
	ah := strings.TrimSpace(c.GetHeader(o.HeaderKey))
	if ah != "" {
		parts := strings.SplitN(ah, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	// 2) query fallback
	return strings.TrimSpace(c.Query(o.QueryKey))
}

/*
	GinAuthMiddleware Gin 鉴权中间件：

- 优先从 Authorization: Bearer <token> 读取
- 如果没有，再从 query 参数读取（默认 token=xxx）
- 校验 token -> userID（Redis）成功后，写入 gin.Context

使用：router.Use(middleware.GinAuthMiddleware(authService, nil))
*/
func GinAuthMiddleware(auth *service.AuthService, opt *AuthOptions) gin.HandlerFunc {
	cfg := opt.withDefaults()

	return func(c *gin.Context) {
		if auth == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Code: response.CodeInternalError,
				Msg:  "auth service is nil",
			})
			return
		}

		token := cfg.extract(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Code: response.CodeTokenInvalid,
				Msg:  "missing token",
			})
			return
		}

		uid, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Response{
				Code: response.CodeTokenInvalid,
				Msg:  err.Error(),
			})
			return
		}

		c.Set(cfg.UserIDKey, uid)
		c.Set(cfg.TokenKey, token)
		c.Next()
	}
}

// GinOptionalAuthMiddleware 有合法 token 时写入 user_id，否则按匿名放行（动态列表等只读接口用）
func GinOptionalAuthMiddleware(auth *service.AuthService, opt *AuthOptions) gin.HandlerFunc {
	cfg := opt.withDefaults()

	return func(c *gin.Context) {
		if auth != nil {
			if token := cfg.extract(c); token != "" {
				if uid, err := auth.Authenticate(c.Request.Context(), token); err == nil {
					c.Set(cfg.UserIDKey, uid)
					c.Set(cfg.TokenKey, token)
				}
			}
		}
		c.Next()
	}
}

// UserID 取中间件写入的当前用户，匿名返回 false
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint64)
	return uid, ok && uid != 0
}
