package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrUnauthorized token 缺失、过期或已注销
var ErrUnauthorized = errors.New("unauthorized")

const defaultTokenTTL = 7 * 24 * time.Hour

// AuthService 登录态：HTTP 中间件和 WS 握手共用。
//
// Redis Key：
//
//	pf:token:{token}          -> userID，带 TTL
//	pf:user_tokens:{userID}   -> 该用户全部 token 的 Set，用于全端退出
type AuthService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAuthService(rdb *redis.Client) *AuthService {
	return &AuthService{rdb: rdb, ttl: defaultTokenTTL}
}

func tokenKey(token string) string { return "pf:token:" + token }

func userTokensKey(userID uint64) string { return fmt.Sprintf("pf:user_tokens:%d", userID) }

func (a *AuthService) ready() error {
	if a == nil || a.rdb == nil {
		return errors.New("auth: redis client is nil")
	}
	return nil
}

// Issue 登录成功后签发 token，一个用户可以同时持有多个（多端登录）
func (a *AuthService) Issue(ctx context.Context, userID uint64) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	pipe := a.rdb.TxPipeline()
	pipe.Set(ctx, tokenKey(token), strconv.FormatUint(userID, 10), a.ttl)
	pipe.SAdd(ctx, userTokensKey(userID), token)
	// Set 比单个 token 多活一天，过期后自动清理
	pipe.Expire(ctx, userTokensKey(userID), a.ttl+24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// ExtractToken 优先 Authorization: Bearer，其次 ?token=（WS 客户端只能走 query）
func (a *AuthService) ExtractToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah != "" {
		parts := strings.SplitN(ah, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authenticate token -> userID。token 为空、不存在或内容损坏都返回 ErrUnauthorized。
func (a *AuthService) Authenticate(ctx context.Context, token string) (uint64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrUnauthorized
	}
	if err := a.ready(); err != nil {
		return 0, err
	}
	val, err := a.rdb.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrUnauthorized
	}
	if err != nil {
		return 0, err
	}
	uid, err := strconv.ParseUint(val, 10, 64)
	if err != nil || uid == 0 {
		return 0, ErrUnauthorized
	}
	return uid, nil
}

func (a *AuthService) AuthenticateRequest(ctx context.Context, r *http.Request) (uint64, string, error) {
	t := a.ExtractToken(r)
	uid, err := a.Authenticate(ctx, t)
	return uid, t, err
}

// RevokeToken 退出当前端；token 已失效时什么也不做
func (a *AuthService) RevokeToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	uid, err := a.Authenticate(ctx, token)
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := a.rdb.TxPipeline()
	pipe.Del(ctx, tokenKey(token))
	pipe.SRem(ctx, userTokensKey(uid), token)
	_, err = pipe.Exec(ctx)
	return err
}

// RevokeAllTokensByUser 全端退出
func (a *AuthService) RevokeAllTokensByUser(ctx context.Context, userID uint64) error {
	if err := a.ready(); err != nil {
		return err
	}
	tokens, err := a.rdb.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	pipe := a.rdb.TxPipeline()
	for _, t := range tokens {
		pipe.Del(ctx, tokenKey(t))
	}
	pipe.Del(ctx, userTokensKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
