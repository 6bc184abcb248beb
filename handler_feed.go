package feed_sdk

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cydxin/prompt-feed-sdk/middleware"
	"github.com/cydxin/prompt-feed-sdk/response"
	"github.com/cydxin/prompt-feed-sdk/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// -------------------- 动态（Feed）相关接口 --------------------

// PostIDReq 只带动态 ID 的请求（点赞 / 收藏 / 删除）
type PostIDReq struct {
	PostID string `json:"post_id" binding:"required" example:"42"`
}

// UpdatePostBody 修改动态
type UpdatePostBody struct {
	PostID string `json:"post_id" binding:"required" example:"42"`
	service.UpdatePostReq
}

// writeServiceError 按错误类型选业务码
func writeServiceError(ctx *gin.Context, err error) {
	code := response.CodeInternalError
	switch {
	case errors.Is(err, service.ErrDuplicate):
		code = response.CodeDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = response.CodeNotFound
	case errors.Is(err, service.ErrEmptyContent):
		code = response.CodeEmptyContent
	case errors.Is(err, service.ErrForbidden):
		code = response.CodePermissionDeny
	case errors.Is(err, service.ErrInvalidID), errors.Is(err, service.ErrInvalidParam), errors.Is(err, service.ErrParentMismatch):
		code = response.CodeParamError
	}
	ctx.JSON(http.StatusOK, response.Error(code, err.Error()))
}

func requireUser(ctx *gin.Context) (uint64, bool) {
	uid, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id not found"))
	}
	return uid, ok
}

func parseIDParam(ctx *gin.Context, name, raw string) (uint64, bool) {
	id, err := service.ParseID(raw)
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeParamError, "invalid "+name))
		return 0, false
	}
	return id, true
}

// GinHandleListFeed 动态列表
// @Summary 动态列表
// @Description 按时间倒序返回动态；带 token 时 is_liked / is_bookmarked 相对当前用户，否则恒为 false
// @Tags 动态
// @Produce json
// @Param category query string false "分类"
// @Param limit query int false "每页数量，默认 20，最大 100"
// @Param offset query int false "偏移量"
// @Success 200 {object} response.Response{data=[]message.PostRow} "动态列表"
// @Router /feed/list [get]
func (e *FeedEngine) GinHandleListFeed(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	offset, _ := strconv.Atoi(ctx.Query("offset"))
	viewer, _ := middleware.UserID(ctx)

	list, err := e.PostService.WithContext(ctx.Request.Context()).ListFeed(viewer, ctx.Query("category"), limit, offset)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(list))
}

// GinHandleGetPost 动态详情
// @Summary 动态详情
// @Tags 动态
// @Produce json
// @Param post_id query string true "动态ID"
// @Success 200 {object} response.Response{data=message.PostRow} "动态"
// @Router /feed/detail [get]
func (e *FeedEngine) GinHandleGetPost(ctx *gin.Context) {
	pid, ok := parseIDParam(ctx, "post_id", ctx.Query("post_id"))
	if !ok {
		return
	}
	viewer, _ := middleware.UserID(ctx)
	row, err := e.PostService.WithContext(ctx.Request.Context()).GetPost(viewer, pid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(row))
}

// GinHandleCreatePost 发布动态
// @Summary 发布动态
// @Description prompt 必填；images 最多 9 张；ai_source 为 chatgpt/gemini/grok/midjourney
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body service.CreatePostReq true "动态内容"
// @Success 200 {object} response.Response{data=message.PostRow} "创建成功"
// @Security BearerAuth
// @Router /feed/create [post]
func (e *FeedEngine) GinHandleCreatePost(ctx *gin.Context) {
	var req service.CreatePostReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := requireUser(ctx)
	if !ok {
		return
	}
	row, err := e.PostService.CreatePost(ctx.Request.Context(), uid, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(row))
}

// GinHandleUpdatePost 修改动态
// @Summary 修改动态
// @Description 只能修改自己的动态，计数字段不可修改
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body UpdatePostBody true "修改内容"
// @Success 200 {object} response.Response{data=message.PostRow} "修改后的动态"
// @Security BearerAuth
// @Router /feed/update [post]
func (e *FeedEngine) GinHandleUpdatePost(ctx *gin.Context) {
	var req UpdatePostBody
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := requireUser(ctx)
	if !ok {
		return
	}
	pid, ok := parseIDParam(ctx, "post_id", req.PostID)
	if !ok {
		return
	}
	row, err := e.PostService.UpdatePost(ctx.Request.Context(), uid, pid, req.UpdatePostReq)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(row))
}

// GinHandleDeletePost 删除动态
// @Summary 删除动态
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body PostIDReq true "动态ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/delete [post]
func (e *FeedEngine) GinHandleDeletePost(ctx *gin.Context) {
	e.withPost(ctx, e.PostService.DeletePost)
}

// GinHandleLike 点赞
// @Summary 点赞动态
// @Description 重复点赞返回 code=10006
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body PostIDReq true "动态ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/like [post]
func (e *FeedEngine) GinHandleLike(ctx *gin.Context) {
	e.withPost(ctx, e.InteractionService.Like)
}

// GinHandleUnlike 取消点赞
// @Summary 取消点赞
// @Description 没点过赞也返回成功
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body PostIDReq true "动态ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/unlike [post]
func (e *FeedEngine) GinHandleUnlike(ctx *gin.Context) {
	e.withPost(ctx, e.InteractionService.Unlike)
}

// GinHandleBookmark 收藏
// @Summary 收藏动态
// @Description 重复收藏返回 code=10006
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body PostIDReq true "动态ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/bookmark [post]
func (e *FeedEngine) GinHandleBookmark(ctx *gin.Context) {
	e.withPost(ctx, e.InteractionService.Bookmark)
}

// GinHandleUnbookmark 取消收藏
// @Summary 取消收藏
// @Tags 动态
// @Accept json
// @Produce json
// @Param req body PostIDReq true "动态ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/unbookmark [post]
func (e *FeedEngine) GinHandleUnbookmark(ctx *gin.Context) {
	e.withPost(ctx, e.InteractionService.Unbookmark)
}

// withPost 解析 PostIDReq 和当前用户后执行 fn
func (e *FeedEngine) withPost(ctx *gin.Context, fn func(context.Context, uint64, uint64) error) {
	var req PostIDReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := requireUser(ctx)
	if !ok {
		return
	}
	pid, ok := parseIDParam(ctx, "post_id", req.PostID)
	if !ok {
		return
	}
	if err := fn(ctx.Request.Context(), uid, pid); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(nil))
}
