package feed_sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/cydxin/prompt-feed-sdk/response"
	"github.com/cydxin/prompt-feed-sdk/service"
)

type testEnv struct {
	engine *FeedEngine
	mock   sqlmock.Sqlmock
	router *gin.Engine
	token  string
}

// newTestEnv sqlmock 做数据库，miniredis 做 token 和推送
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqldb, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := NewEngine(
		WithDB(db),
		WithRDB(rdb),
		WithSkipMigrate(true),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(e.Close)

	tok, err := e.AuthService.Issue(context.Background(), 9)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	e.RegisterRoutes(r.Group("/api/v1"))
	return &testEnv{engine: e, mock: mock, router: r, token: tok}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, auth bool) (int, response.Response) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, rd)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+env.token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var resp response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestRoutes_WriteRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	status, resp := env.do(t, http.MethodPost, "/feed/like", gin.H{"post_id": "5"}, false)
	if status != http.StatusUnauthorized || resp.Code != response.CodeTokenInvalid {
		t.Fatalf("expected 401/%d, got %d/%d", response.CodeTokenInvalid, status, resp.Code)
	}
}

func TestHandleLike(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO `pf_post_like`").WillReturnResult(sqlmock.NewResult(11, 1))
	env.mock.ExpectExec("UPDATE `pf_post` SET `likes_cnt`").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	status, resp := env.do(t, http.MethodPost, "/feed/like", gin.H{"post_id": "5"}, true)
	if status != http.StatusOK || resp.Code != response.CodeSuccess {
		t.Fatalf("unexpected %d/%d %s", status, resp.Code, resp.Msg)
	}
	if err := env.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestHandleBookmarkDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectBegin()
	env.mock.ExpectExec("INSERT INTO `pf_bookmark`").
		WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"})
	env.mock.ExpectRollback()

	status, resp := env.do(t, http.MethodPost, "/feed/bookmark", gin.H{"post_id": "5"}, true)
	if status != http.StatusOK || resp.Code != response.CodeDuplicate {
		t.Fatalf("expected code %d, got %d/%d", response.CodeDuplicate, status, resp.Code)
	}
}

func TestHandleBadInput(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{"bad post id", "/feed/like", gin.H{"post_id": "abc"}, response.CodeParamError},
		{"empty prompt", "/feed/create", gin.H{"prompt": "   "}, response.CodeEmptyContent},
		{"too many images", "/feed/create", gin.H{"prompt": "p", "images": []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}}, response.CodeParamError},
		{"bad parent id", "/feed/comment", gin.H{"post_id": "5", "parent_id": "x", "content": "hi"}, response.CodeParamError},
	}
	for _, tc := range cases {
		status, resp := env.do(t, http.MethodPost, tc.path, tc.body, true)
		if status != http.StatusOK || resp.Code != tc.want {
			t.Errorf("%s: expected code %d, got %d/%d (%s)", tc.name, tc.want, status, resp.Code, resp.Msg)
		}
	}
	if err := env.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("validation failures must not hit the database: %v", err)
	}
}

func TestHandleListFeedAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT \\* FROM `pf_post`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, resp := env.do(t, http.MethodGet, "/feed/list?limit=5", nil, false)
	if status != http.StatusOK || resp.Code != response.CodeSuccess {
		t.Fatalf("unexpected %d/%d %s", status, resp.Code, resp.Msg)
	}
	// 空列表被 omitempty 省略
	if list, ok := resp.Data.([]any); resp.Data != nil && (!ok || len(list) != 0) {
		t.Fatalf("expected empty list, got %#v", resp.Data)
	}
}

func TestHandleLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, http.MethodPost, "/user/logout", nil, true)
	if status != http.StatusOK || resp.Code != response.CodeSuccess {
		t.Fatalf("logout: %d/%d %s", status, resp.Code, resp.Msg)
	}
	status, _ = env.do(t, http.MethodPost, "/user/logout", nil, true)
	if status != http.StatusUnauthorized {
		t.Fatalf("revoked token should be rejected, got %d", status)
	}
}

func TestHandleLogoutAllDevices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	second, err := env.engine.AuthService.Issue(ctx, 9)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	stranger, err := env.engine.AuthService.Issue(ctx, 10)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	status, resp := env.do(t, http.MethodPost, "/user/logout?all=true", nil, true)
	if status != http.StatusOK || resp.Code != response.CodeSuccess {
		t.Fatalf("logout all: %d/%d %s", status, resp.Code, resp.Msg)
	}
	if _, err := env.engine.AuthService.Authenticate(ctx, second); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("second device still logged in: %v", err)
	}
	if uid, err := env.engine.AuthService.Authenticate(ctx, stranger); err != nil || uid != 10 {
		t.Fatalf("other user logged out: %d, %v", uid, err)
	}
}

func TestIsValidTableName(t *testing.T) {
	cases := map[string]bool{
		"pf_user":               true,
		"":                      false,
		"pf_user; DROP x":       false,
		"pf`user":               false,
		strings.Repeat("a", 64): false,
	}
	for name, want := range cases {
		if got := isValidTableName(name); got != want {
			t.Errorf("isValidTableName(%q) = %v, want %v", name, got, want)
		}
	}
}
