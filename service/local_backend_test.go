package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/message"
)

type fakeSubscriber struct {
	tables []string
}

func (f *fakeSubscriber) Subscribe(table string, _ *message.Filter, _ func(message.ChangeEvent)) (feedsync.Unsubscribe, error) {
	f.tables = append(f.tables, table)
	return func() {}, nil
}

func TestLocalBackend_WriteRequiresViewer(t *testing.T) {
	b := NewLocalBackend(&Service{}, nil)
	_, err := b.Write(context.Background(), feedsync.WriteOp{Kind: feedsync.MutationLike, PostID: "1"})
	if !errors.Is(err, feedsync.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestLocalBackend_WriteBadIDs(t *testing.T) {
	b := NewLocalBackend(&Service{}, nil)
	ctx := context.Background()

	if _, err := b.Write(ctx, feedsync.WriteOp{Kind: feedsync.MutationLike, ViewerID: "abc", PostID: "1"}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for viewer, got %v", err)
	}
	if _, err := b.Write(ctx, feedsync.WriteOp{Kind: feedsync.MutationBookmark, ViewerID: "1", PostID: "p1"}); !errors.Is(err, feedsync.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for post, got %v", err)
	}
	if _, err := b.Write(ctx, feedsync.WriteOp{Kind: "share", ViewerID: "1"}); err == nil {
		t.Fatalf("expected unsupported error")
	}
}

func TestLocalBackend_DuplicateBookmarkMapsToFeedError(t *testing.T) {
	gormDB, mock, sqlDB := newMockDB(t)
	defer func() { _ = sqlDB.Close() }()

	b := NewLocalBackend(&Service{DB: gormDB}, nil)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `pf_bookmark`").
		WillReturnError(&mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := b.Write(context.Background(), feedsync.WriteOp{Kind: feedsync.MutationBookmark, ViewerID: "9", PostID: "5"})
	if !errors.Is(err, feedsync.ErrDuplicate) {
		t.Fatalf("expected feedsync.ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestLocalBackend_LikeMissingPostMapsToNotFound(t *testing.T) {
	gormDB, mock, sqlDB := newMockDB(t)
	defer func() { _ = sqlDB.Close() }()

	b := NewLocalBackend(&Service{DB: gormDB}, nil)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `pf_post_like`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `pf_post`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := b.Write(context.Background(), feedsync.WriteOp{Kind: feedsync.MutationLike, ViewerID: "9", PostID: "404"})
	if !errors.Is(err, feedsync.ErrNotFound) {
		t.Fatalf("expected feedsync.ErrNotFound, got %v", err)
	}
}

func TestLocalBackend_EmptyCommentMapsToFeedError(t *testing.T) {
	b := NewLocalBackend(&Service{}, nil)
	_, err := b.Write(context.Background(), feedsync.WriteOp{Kind: feedsync.MutationComment, ViewerID: "1", PostID: "2", Content: " "})
	if !errors.Is(err, feedsync.ErrEmptyContent) {
		t.Fatalf("expected feedsync.ErrEmptyContent, got %v", err)
	}
}

func TestLocalBackend_Subscribe(t *testing.T) {
	if _, err := NewLocalBackend(&Service{}, nil).Subscribe("likes", nil, func(message.ChangeEvent) {}); err == nil {
		t.Fatalf("expected error without a bus")
	}

	sub := &fakeSubscriber{}
	b := NewLocalBackend(&Service{}, sub)
	unsub, err := b.Subscribe("likes", nil, func(message.ChangeEvent) {})
	if err != nil || unsub == nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(sub.tables) != 1 || sub.tables[0] != "likes" {
		t.Fatalf("subscriber not called: %v", sub.tables)
	}
}
