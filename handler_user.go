package feed_sdk

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cydxin/prompt-feed-sdk/middleware"
	"github.com/cydxin/prompt-feed-sdk/response"
	"github.com/cydxin/prompt-feed-sdk/service"
	"github.com/gin-gonic/gin"
)

// -------------------- 用户（User）相关接口 --------------------

// GinHandleGetUserInfo 获取用户信息 (Gin 版本)
// @Summary 获取用户信息
// @Description 根据 user_id 查询用户详情，如果不传 user_id 则查询当前登录用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param user_id query string false "用户ID (不传则查自己)"
// @Success 200 {object} response.Response{data=service.UserDTO} "查询成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 401 {object} response.Response "未登录"
// @Security BearerAuth
// @Router /user/info [get]
func (e *FeedEngine) GinHandleGetUserInfo(ctx *gin.Context) {
	var targetUserID uint64
	if s := ctx.Query("user_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, "invalid user_id"))
			return
		}
		targetUserID = id
	} else {
		// 查自己，需要配合 GinAuthMiddleware 使用
		uid, ok := middleware.UserID(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id not found in context"))
			return
		}
		targetUserID = uid
	}

	u, err := e.UserService.GetUser(targetUserID)
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeUserNotFound, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, response.Success(u))
}

// GinHandleUserRegister 用户注册
// @Summary 用户注册
// @Description 创建新用户账号：username + password，可选 email / nickname
// @Tags 用户
// @Accept json
// @Produce json
// @Param req body service.RegisterReq true "注册信息"
// @Success 200 {object} response.Response{data=service.UserDTO} "注册成功"
// @Failure 400 {object} response.Response "请求错误"
// @Router /user/register [post]
func (e *FeedEngine) GinHandleUserRegister(ctx *gin.Context) {
	var req service.RegisterReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	u, err := e.UserService.Register(ctx.Request.Context(), req)
	if err != nil {
		code := response.CodeParamError
		if strings.Contains(err.Error(), "已被注册") {
			code = response.CodeUserExists
		}
		ctx.JSON(http.StatusOK, response.Error(code, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, response.Success(u))
}

// GinHandleUserLogin 用户登录
// @Summary 用户登录
// @Description 用户登录并返回 token（account 支持 username/email）
// @Tags 用户
// @Accept json
// @Produce json
// @Param req body service.LoginReq true "登录信息"
// @Success 200 {object} response.Response{data=service.LoginResp} "登录响应（token + 用户信息）"
// @Failure 401 {object} response.Response "认证失败"
// @Router /user/login [post]
func (e *FeedEngine) GinHandleUserLogin(ctx *gin.Context) {
	var req service.LoginReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeParamError, err.Error()))
		return
	}

	resp, err := e.UserService.Login(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodePasswordError, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, response.Success(resp))
}

// GinHandleUpdateProfile 更新用户资料
// @Summary 更新用户资料
// @Description 更新当前用户昵称 / 头像 / 简介，字段不传表示不改
// @Tags 用户
// @Accept json
// @Produce json
// @Param req body service.UpdateProfileReq true "更新信息（可选字段）"
// @Success 200 {object} response.Response{data=service.UserDTO} "更新后的用户信息"
// @Failure 400 {object} response.Response "请求错误"
// @Security BearerAuth
// @Router /user/update [post]
func (e *FeedEngine) GinHandleUpdateProfile(ctx *gin.Context) {
	var req service.UpdateProfileReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeParamError, err.Error()))
		return
	}
	uid, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id not found"))
		return
	}

	u, err := e.UserService.UpdateProfile(uid, req)
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeInternalError, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, response.Success(u))
}

// GinHandleLogout 注销当前 token，all=true 时注销该用户全部 token
// @Summary 退出登录
// @Tags 用户
// @Produce json
// @Param all query bool false "全端退出"
// @Success 200 {object} response.Response "成功"
// @Security BearerAuth
// @Router /user/logout [post]
func (e *FeedEngine) GinHandleLogout(ctx *gin.Context) {
	var err error
	if all, _ := strconv.ParseBool(ctx.Query("all")); all {
		uid, _ := middleware.UserID(ctx)
		err = e.AuthService.RevokeAllTokensByUser(ctx.Request.Context(), uid)
	} else {
		err = e.AuthService.RevokeToken(ctx.Request.Context(), ctx.GetString(middleware.ContextTokenKey))
	}
	if err != nil {
		ctx.JSON(http.StatusOK, response.Error(response.CodeInternalError, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, response.Success(nil))
}
