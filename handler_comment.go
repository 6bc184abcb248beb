package feed_sdk

import (
	"context"
	"net/http"

	"github.com/cydxin/prompt-feed-sdk/middleware"
	"github.com/cydxin/prompt-feed-sdk/response"
	"github.com/gin-gonic/gin"
)

// -------------------- 评论相关接口 --------------------

// AddCommentReq 发表评论
type AddCommentReq struct {
	PostID   string `json:"post_id" binding:"required" example:"42"`
	ParentID string `json:"parent_id" example:""` // 空为顶级评论
	Content  string `json:"content" binding:"required" example:"太好看了"`
}

// CommentIDReq 只带评论 ID 的请求
type CommentIDReq struct {
	CommentID string `json:"comment_id" binding:"required" example:"7"`
}

// GinHandleAddComment 发表评论
// @Summary 发表评论
// @Description parent_id 必须属于同一条动态；内容为空返回 code=10008
// @Tags 评论
// @Accept json
// @Produce json
// @Param req body AddCommentReq true "评论内容"
// @Success 200 {object} response.Response{data=message.CommentRow} "新评论"
// @Security BearerAuth
// @Router /feed/comment [post]
func (e *FeedEngine) GinHandleAddComment(ctx *gin.Context) {
	var req AddCommentReq
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
	var parent *uint64
	if req.ParentID != "" {
		id, ok := parseIDParam(ctx, "parent_id", req.ParentID)
		if !ok {
			return
		}
		parent = &id
	}

	row, err := e.CommentService.AddComment(ctx.Request.Context(), uid, pid, parent, req.Content)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(row))
}

// GinHandleListComments 评论列表
// @Summary 评论列表
// @Description 平铺返回，按时间升序；客户端按 parent_id 组装成树
// @Tags 评论
// @Produce json
// @Param post_id query string true "动态ID"
// @Success 200 {object} response.Response{data=[]message.CommentRow} "评论"
// @Router /feed/comment/list [get]
func (e *FeedEngine) GinHandleListComments(ctx *gin.Context) {
	pid, ok := parseIDParam(ctx, "post_id", ctx.Query("post_id"))
	if !ok {
		return
	}
	viewer, _ := middleware.UserID(ctx)
	list, err := e.CommentService.WithContext(ctx.Request.Context()).ListComments(viewer, pid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(list))
}

// GinHandleLikeComment 评论点赞
// @Summary 评论点赞
// @Tags 评论
// @Accept json
// @Produce json
// @Param req body CommentIDReq true "评论ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/comment/like [post]
func (e *FeedEngine) GinHandleLikeComment(ctx *gin.Context) {
	e.withComment(ctx, e.InteractionService.LikeComment)
}

// GinHandleUnlikeComment 取消评论点赞
// @Summary 取消评论点赞
// @Tags 评论
// @Accept json
// @Produce json
// @Param req body CommentIDReq true "评论ID"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /feed/comment/unlike [post]
func (e *FeedEngine) GinHandleUnlikeComment(ctx *gin.Context) {
	e.withComment(ctx, e.InteractionService.UnlikeComment)
}

func (e *FeedEngine) withComment(ctx *gin.Context, fn func(context.Context, uint64, uint64) error) {
	var req CommentIDReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := requireUser(ctx)
	if !ok {
		return
	}
	cid, ok := parseIDParam(ctx, "comment_id", req.CommentID)
	if !ok {
		return
	}
	if err := fn(ctx.Request.Context(), uid, cid); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(nil))
}
