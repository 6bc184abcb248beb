package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cydxin/prompt-feed-sdk/message"
	"github.com/cydxin/prompt-feed-sdk/models"
)

type UserService struct {
	*Service
	userDao *models.UserDAO
	auth    *AuthService
}

func NewUserService(s *Service) *UserService {
	return &UserService{
		Service: s,
		userDao: models.NewUserDAO(s.DB),
		auth:    NewAuthService(s.RDB),
	}
}

// --- types ---

type UserDTO struct {
	ID          uint64     `json:"id,string"`
	UID         string     `json:"uid"`
	Username    string     `json:"username"`
	Nickname    string     `json:"nickname"`
	Avatar      string     `json:"avatar"`
	Email       string     `json:"email"`
	Bio         string     `json:"bio"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"` // 可选
	Password string `json:"password"`
	Nickname string `json:"nickname"` // 可选，默认同 username
}

type LoginReq struct {
	Account  string `json:"account"` // username/email
	Password string `json:"password"`
}

type LoginResp struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UpdateProfileReq struct {
	Nickname *string `json:"nickname"`
	Avatar   *string `json:"avatar"`
	Bio      *string `json:"bio"`
}

func toUserDTO(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		UID:         u.UID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		Avatar:      u.Avatar,
		Email:       u.Email,
		Bio:         u.Bio,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// toAuthorRow join 出来的作者信息。未加载（ID 为 0）时返回 nil，由客户端按“已注销用户”展示。
func toAuthorRow(u *models.User) *message.AuthorRow {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &message.AuthorRow{
		ID:          FormatID(u.ID),
		DisplayName: u.Nickname,
		Username:    u.Username,
		Name:        u.Name,
		Avatar:      u.Avatar,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register 注册并返回用户信息
func (s *UserService) Register(ctx context.Context, req RegisterReq) (*UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("输入账号")
	}
	if strings.Contains(username, "@") {
		return nil, fmt.Errorf("账号不能包含 @")
	}
	password := strings.TrimSpace(req.Password)
	if len(password) < 6 {
		return nil, fmt.Errorf("密码至少 6 位")
	}
	email := normalizeEmail(req.Email)

	exists, err := s.userDao.ExistsByAccount(username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("账号或邮箱已被注册")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UID:      uuid.New().String(),
		Username: username,
		Nickname: strings.TrimSpace(req.Nickname),
		Password: string(hash),
		Email:    email,
	}
	if user.Nickname == "" {
		user.Nickname = user.Username
	}
	if err := s.userDao.Create(user); err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			return nil, fmt.Errorf("账号或邮箱已被注册")
		}
		return nil, err
	}
	s.logger().InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return toUserDTO(user), nil
}

// Login 校验密码并签发 token。没有 Redis 时只返回用户信息。
func (s *UserService) Login(ctx context.Context, req LoginReq) (*LoginResp, error) {
	acc := strings.TrimSpace(req.Account)
	if acc == "" {
		return nil, fmt.Errorf("需要账户")
	}
	password := strings.TrimSpace(req.Password)
	if password == "" {
		return nil, fmt.Errorf("需要密码")
	}

	u, err := s.userDao.FindByAccount(acc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("账户或密码无效")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("账户或密码无效")
	}

	now := time.Now()
	_ = s.userDao.UpdateFields(u.ID, map[string]any{"last_login_at": &now})
	u.LastLoginAt = &now

	resp := &LoginResp{User: *toUserDTO(u)}
	if s.RDB == nil {
		return resp, nil
	}
	token, err := s.auth.Issue(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	resp.Token = token
	return resp, nil
}

// GetUser 获取用户信息（脱敏）
func (s *UserService) GetUser(userID uint64) (*UserDTO, error) {
	u, err := s.userDao.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return toUserDTO(u), nil
}

// UpdateProfile 更新昵称 / 头像 / 简介
func (s *UserService) UpdateProfile(userID uint64, req UpdateProfileReq) (*UserDTO, error) {
	updates := make(map[string]any)
	if req.Nickname != nil {
		updates["nickname"] = strings.TrimSpace(*req.Nickname)
	}
	if req.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*req.Avatar)
	}
	if req.Bio != nil {
		updates["bio"] = strings.TrimSpace(*req.Bio)
	}
	if err := s.userDao.UpdateFields(userID, updates); err != nil {
		return nil, err
	}
	return s.GetUser(userID)
}
