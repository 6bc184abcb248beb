package models

import (
	"strings"

	"gorm.io/gorm"
)

// UserDAO 封装 User 相关的数据库操作
type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{db: db}
}

func (dao *UserDAO) Create(user *User) error {
	return dao.db.Create(user).Error
}

func (dao *UserDAO) FindByID(id uint64) (*User, error) {
	var u User
	if err := dao.db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (dao *UserDAO) FindByUsername(username string) (*User, error) {
	var u User
	if err := dao.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (dao *UserDAO) FindByEmail(email string) (*User, error) {
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var u User
	if err := dao.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (dao *UserDAO) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := dao.db.Model(&User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (dao *UserDAO) ExistsByEmail(email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	err := dao.db.Model(&User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (dao *UserDAO) UpdateFields(id uint64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dao.db.Model(&User{}).Where("id = ?", id).Updates(updates).Error
}

// FindByAccount 账号可以是用户名或邮箱
func (dao *UserDAO) FindByAccount(account string) (*User, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if strings.Contains(account, "@") {
		return dao.FindByEmail(strings.ToLower(account))
	}
	return dao.FindByUsername(account)
}

// ExistsByAccount 检查 username/email 任意一种是否存在（用于注册唯一性校验）。
func (dao *UserDAO) ExistsByAccount(username, email string) (bool, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username != "" {
		exists, err := dao.ExistsByUsername(username)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	if email != "" {
		exists, err := dao.ExistsByEmail(email)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}
