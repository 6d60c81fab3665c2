package services

import (
	"context"
	"strings"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/errors"
	"quill/pkg/pagination"

	"gorm.io/gorm"
)

// UserFields 用户列表可过滤/排序字段
var UserFields = FieldMap{
	"id":        "id",
	"username":  "username",
	"email":     "email",
	"role":      "role",
	"firstName": "first_name",
	"lastName":  "last_name",
	"createdAt": "created_at",
}

// AuthorFields 作者列表可过滤/排序字段（不含邮箱）
var AuthorFields = FieldMap{
	"id":        "id",
	"username":  "username",
	"role":      "role",
	"firstName": "first_name",
	"lastName":  "last_name",
	"createdAt": "created_at",
}

// AuthorRoles 可作为作者展示的角色
var AuthorRoles = []string{string(acl.RoleAdmin), string(acl.RoleEditor), string(acl.RoleAuthor)}

// UserService 用户服务
type UserService struct {
	db      *gorm.DB
	repo    *Repository[models.User]
	authors *Repository[models.User]
	events  EventPublisher
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, events EventPublisher) *UserService {
	if events == nil {
		events = NopPublisher{}
	}
	return &UserService{
		db:      db,
		repo:    NewRepository[models.User](db, UserFields, "username", "email", "first_name", "last_name"),
		authors: NewRepository[models.User](db, AuthorFields, "username", "first_name", "last_name"),
		events:  events,
	}
}

// List 用户列表
func (s *UserService) List(ctx context.Context, q pagination.ListQuery) ([]models.User, int64, error) {
	return s.repo.List(ctx, q)
}

// Get 根据ID获取用户
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// GetByLogin 根据用户名或邮箱获取用户
func (s *UserService) GetByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	var user models.User
	login := strings.TrimSpace(usernameOrEmail)
	err := s.db.WithContext(ctx).
		Where("username = ? OR LOWER(email) = LOWER(?)", login, login).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建用户，密码必填
func (s *UserService) Create(ctx context.Context, user *models.User, password string) error {
	if password == "" {
		return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "plainPassword", Issue: "password is required"})
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if user.Role == "" {
		user.Role = string(acl.RoleSubscriber)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if err := s.ensureUnique(ctx, user); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventCreated, Resource: acl.ResourceUsers, ID: user.ID})
	return nil
}

// Update 更新用户；password 为空时保留原密码
func (s *UserService) Update(ctx context.Context, user *models.User, password string) error {
	if password != "" {
		if err := user.SetPassword(password); err != nil {
			return err
		}
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	if err := s.ensureUnique(ctx, user); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceUsers, ID: user.ID})
	return nil
}

// Delete 删除用户
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventDeleted, Resource: acl.ResourceUsers, ID: id})
	return nil
}

// ListAuthors 作者列表
func (s *UserService) ListAuthors(ctx context.Context, q pagination.ListQuery) ([]models.User, int64, error) {
	return s.authors.List(ctx, q.WithFilter("role", AuthorRoles))
}

// GetAuthor 获取作者
func (s *UserService) GetAuthor(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND role IN ?", id, AuthorRoles).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ensureUnique(ctx context.Context, user *models.User) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("(username = ? OR LOWER(email) = LOWER(?))", user.Username, user.Email)
	if user.ID != "" {
		query = query.Where("id <> ?", user.ID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.Conflict("用户名或邮箱已存在")
	}
	return nil
}
