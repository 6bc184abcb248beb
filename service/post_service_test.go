package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
)

var postCols = []string{"id", "user_id", "title", "description", "prompt", "images", "category", "tags", "ai_source", "video_url",
	"likes_cnt", "comments_cnt", "shares_cnt", "bookmarks_cnt", "created_at", "updated_at", "deleted_at"}

func TestPostService_CreatePostValidation(t *testing.T) {
	svc := NewPostService(&Service{})
	ctx := context.Background()

	if _, err := svc.CreatePost(ctx, 1, CreatePostReq{Prompt: "  "}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	tooMany := make([]string, maxPostImages+1)
	for i := range tooMany {
		tooMany[i] = "x.png"
	}
	if _, err := svc.CreatePost(ctx, 1, CreatePostReq{Prompt: "p", Images: tooMany}); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected image limit error")
	}
	if _, err := svc.CreatePost(ctx, 1, CreatePostReq{Prompt: "p", AISource: "dalle"}); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("expected unknown source error")
	}
}

func TestPostService_CreatePostPublishes(t *testing.T) {
	gormDB, mock, sqlDB := newMockDB(t)
	defer func() { _ = sqlDB.Close() }()

	pub := &recordingPublisher{}
	svc := NewPostService(&Service{DB: gormDB, Publisher: pub})

	now := time.Now()
	mock.ExpectExec("INSERT INTO `pf_post`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `pf_post` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow(7, 3, "", "", "a fox", `["a.png"]`, "animals", `["fox"]`, "midjourney", "", 0, 0, 0, 0, now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `pf_user`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "nickname", "avatar"}).AddRow(3, "ada", "Ada", "a.png"))

	row, err := svc.CreatePost(context.Background(), 3, CreatePostReq{Prompt: " a fox ", Images: []string{"a.png", " "}, AISource: "Midjourney"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if row.ID != "7" || row.UserID != "3" || row.AISource != "midjourney" || len(row.Images) != 1 {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Author == nil || row.Author.DisplayName != "Ada" || row.Author.ID != "3" {
		t.Fatalf("author not joined: %+v", row.Author)
	}

	evts := pub.Events()
	if len(evts) != 1 || evts[0].Table != cons.TablePosts || evts[0].EventType != cons.EventInsert {
		t.Fatalf("unexpected events %+v", evts)
	}
	var pushed message.PostRow
	if err := evts[0].Decode(&pushed); err != nil || pushed.Prompt != "a fox" {
		t.Fatalf("pushed row %+v, %v", pushed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestPostService_ListFeedViewerFlags(t *testing.T) {
	gormDB, mock, sqlDB := newMockDB(t)
	defer func() { _ = sqlDB.Close() }()

	svc := NewPostService(&Service{DB: gormDB})

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `pf_post`")).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow(2, 3, "", "", "second", `[]`, "", `[]`, "chatgpt", "", 4, 1, 0, 2, now, now, nil).
			AddRow(1, 4, "", "", "first", `[]`, "", `[]`, "grok", "", 0, 0, 0, 0, now, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `pf_user`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "nickname"}).AddRow(3, "ada", "Ada"))
	mock.ExpectQuery("SELECT `post_id` FROM `pf_post_like`").
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}).AddRow(2))
	mock.ExpectQuery("SELECT `post_id` FROM `pf_bookmark`").
		WillReturnRows(sqlmock.NewRows([]string{"post_id"}))

	rows, err := svc.ListFeed(9, "", 20, 0)
	if err != nil {
		t.Fatalf("ListFeed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].IsLiked || rows[0].IsBookmarked || rows[0].LikesCount != 4 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].IsLiked || rows[1].Author != nil {
		t.Fatalf("second row should be unliked with missing author: %+v", rows[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
