package models

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/datatypes"
)

// User 用户模型
type User struct {
	BaseModel
	Username     string         `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string         `json:"-" gorm:"not null;size:255"`
	Role         string         `json:"role" gorm:"not null;default:'subscriber';size:20;index"`
	FirstName    string         `json:"firstName" gorm:"size:100"`
	LastName     string         `json:"lastName" gorm:"size:100"`
	JSONLd       datatypes.JSON `json:"jsonLd,omitempty" gorm:"column:json_ld"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 旧版 PBKDF2 哈希参数（salt:hex）
const (
	legacyPBKDF2Iterations = 100000
	legacyPBKDF2KeyLen     = 32
)

// SetPassword 设置密码
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码，兼容旧版 PBKDF2-SHA256 哈希
func (u *User) CheckPassword(password string) bool {
	if u.IsLegacyHash() {
		return checkLegacyPassword(u.PasswordHash, password)
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsLegacyHash 是否为旧版哈希，登录成功后应重新哈希
func (u *User) IsLegacyHash() bool {
	return !strings.HasPrefix(u.PasswordHash, "$2") && strings.Contains(u.PasswordHash, ":")
}

func checkLegacyPassword(stored, password string) bool {
	salt, hashHex, ok := strings.Cut(stored, ":")
	if !ok || salt == "" {
		return false
	}
	expected, err := hex.DecodeString(hashHex)
	if err != nil || len(expected) == 0 {
		return false
	}
	derived := pbkdf2.Key([]byte(password), []byte(salt), legacyPBKDF2Iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// LegacyPasswordHash 生成旧版格式哈希，仅用于兼容性测试和数据导入
func LegacyPasswordHash(salt, password string) string {
	derived := pbkdf2.Key([]byte(password), []byte(salt), legacyPBKDF2Iterations, legacyPBKDF2KeyLen, sha256.New)
	return salt + ":" + hex.EncodeToString(derived)
}

// PublicUser 对外展示的用户信息（不含密码哈希）
type PublicUser struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	JSONLd    datatypes.JSON `json:"jsonLd,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

// Public 转为对外结构
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		JSONLd:    u.JSONLd,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Author 作者公开资料
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// AuthorProfile 转为作者公开资料
func (u *User) AuthorProfile() Author {
	return Author{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
