package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cydxin/prompt-feed-sdk/cons"
	"github.com/cydxin/prompt-feed-sdk/message"
	"github.com/cydxin/prompt-feed-sdk/models"
)

const maxPostImages = 9

var validAISources = map[string]bool{
	models.AISourceChatGPT:    true,
	models.AISourceGemini:     true,
	models.AISourceGrok:       true,
	models.AISourceMidjourney: true,
}

type PostService struct {
	*Service
	postDao *models.PostDAO
}

func NewPostService(s *Service) *PostService {
	return &PostService{Service: s, postDao: models.NewPostDAO(s.DB)}
}

// WithContext 返回一个查询绑定 ctx 的副本
func (s *PostService) WithContext(ctx context.Context) *PostService {
	return NewPostService(s.withContext(ctx))
}

// CreatePostReq 发布动态请求
type CreatePostReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Images      []string `json:"images"` // 最多9张，有序
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	AISource    string   `json:"ai_source"` // chatgpt/gemini/grok/midjourney，空则 chatgpt
	VideoURL    string   `json:"video_url"`
}

// UpdatePostReq 修改动态请求，nil 表示不改
type UpdatePostReq struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Prompt      *string   `json:"prompt"`
	Images      *[]string `json:"images"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	VideoURL    *string   `json:"video_url"`
}

// ToPostRow 转成推送 / 接口共用的行结构，viewer 相关的两个标记由调用方填
func ToPostRow(p *models.Post) message.PostRow {
	return message.PostRow{
		ID:             FormatID(p.ID),
		UserID:         FormatID(p.UserID),
		Title:          p.Title,
		Description:    p.Description,
		Prompt:         p.Prompt,
		Images:         p.ImageList(),
		Category:       p.Category,
		Tags:           p.TagList(),
		AISource:       p.AISource,
		VideoURL:       p.VideoURL,
		LikesCount:     int64(p.LikesCnt),
		CommentsCount:  int64(p.CommentsCnt),
		SharesCount:    int64(p.SharesCnt),
		BookmarksCount: int64(p.BookmarksCnt),
		CreatedAt:      p.CreatedAt,
		Author:         toAuthorRow(&p.User),
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CreatePost 发布动态
func (s *PostService) CreatePost(ctx context.Context, userID uint64, req CreatePostReq) (*message.PostRow, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyContent
	}
	images := cleanList(req.Images)
	if len(images) > maxPostImages {
		return nil, fmt.Errorf("%w: 最多%d张图片", ErrInvalidParam, maxPostImages)
	}
	source := strings.ToLower(strings.TrimSpace(req.AISource))
	if source == "" {
		source = models.AISourceChatGPT
	}
	if !validAISources[source] {
		return nil, fmt.Errorf("%w: 未知的 AI 来源 %q", ErrInvalidParam, source)
	}

	p := &models.Post{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Prompt:      prompt,
		Images:      models.EncodeStrings(images),
		Category:    strings.TrimSpace(req.Category),
		Tags:        models.EncodeStrings(cleanList(req.Tags)),
		AISource:    source,
		VideoURL:    strings.TrimSpace(req.VideoURL),
	}
	if err := s.postDao.Create(p); err != nil {
		return nil, err
	}

	// 重新读一遍，带上作者
	if full, err := s.postDao.FindByID(p.ID); err == nil {
		p = full
	}
	row := ToPostRow(p)
	s.publish(ctx, cons.TablePosts, cons.EventInsert, row, nil)
	return &row, nil
}

// UpdatePost 作者修改自己的动态
func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint64, req UpdatePostReq) (*message.PostRow, error) {
	p, err := s.postDao.FindByID(postID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}

	updates := make(map[string]any)
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Prompt != nil {
		prompt := strings.TrimSpace(*req.Prompt)
		if prompt == "" {
			return nil, ErrEmptyContent
		}
		updates["prompt"] = prompt
	}
	if req.Images != nil {
		images := cleanList(*req.Images)
		if len(images) > maxPostImages {
			return nil, fmt.Errorf("%w: 最多%d张图片", ErrInvalidParam, maxPostImages)
		}
		updates["images"] = models.EncodeStrings(images)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		updates["tags"] = models.EncodeStrings(cleanList(*req.Tags))
	}
	if req.VideoURL != nil {
		updates["video_url"] = strings.TrimSpace(*req.VideoURL)
	}
	if len(updates) == 0 {
		row := ToPostRow(p)
		return &row, nil
	}
	if err := s.postDao.UpdateContent(postID, updates); err != nil {
		return nil, err
	}

	fresh, err := s.postDao.FindByID(postID)
	if err != nil {
		return nil, err
	}
	row := ToPostRow(fresh)
	s.publish(ctx, cons.TablePosts, cons.EventUpdate, row, message.PostRow{ID: row.ID})
	return &row, nil
}

// DeletePost 作者删除自己的动态
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint64) error {
	p, err := s.postDao.FindByID(postID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrForbidden
	}
	if err := s.postDao.Delete(postID); err != nil {
		return err
	}
	s.publish(ctx, cons.TablePosts, cons.EventDelete, nil, message.PostRow{ID: FormatID(postID), UserID: FormatID(userID)})
	return nil
}

// ListFeed 时间倒序拉取动态，viewerID 为 0 表示匿名（标记全为 false）
func (s *PostService) ListFeed(viewerID uint64, category string, limit, offset int) ([]message.PostRow, error) {
	posts, err := s.postDao.ListFeed(category, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	liked, bookmarked, err := s.postDao.ViewerFlags(viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]message.PostRow, 0, len(posts))
	for i := range posts {
		row := ToPostRow(&posts[i])
		row.IsLiked = liked[posts[i].ID]
		row.IsBookmarked = bookmarked[posts[i].ID]
		out = append(out, row)
	}
	return out, nil
}

// GetPost 单条动态详情
func (s *PostService) GetPost(viewerID, postID uint64) (*message.PostRow, error) {
	p, err := s.postDao.FindByID(postID)
	if err != nil {
		return nil, err
	}
	liked, bookmarked, err := s.postDao.ViewerFlags(viewerID, []uint64{postID})
	if err != nil {
		return nil, err
	}
	row := ToPostRow(p)
	row.IsLiked = liked[postID]
	row.IsBookmarked = bookmarked[postID]
	return &row, nil
}
