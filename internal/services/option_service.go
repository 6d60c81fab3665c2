package services

import (
	"context"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/errors"

	"gorm.io/gorm"
)

// OptionService 站点设置服务，表中只保留一行
type OptionService struct {
	db     *gorm.DB
	events EventPublisher
}

// NewOptionService 创建站点设置服务
func NewOptionService(db *gorm.DB, events EventPublisher) *OptionService {
	if events == nil {
		events = NopPublisher{}
	}
	return &OptionService{db: db, events: events}
}

// Get 获取站点设置；尚未保存时返回默认值
func (s *OptionService) Get(ctx context.Context) (*models.SiteSetting, error) {
	var setting models.SiteSetting
	err := s.db.WithContext(ctx).Order("created_at ASC").First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.SiteSetting{Type: models.SiteTypeOrganization}, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Save 保存站点设置
func (s *OptionService) Save(ctx context.Context, setting *models.SiteSetting) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SiteSetting
		err := tx.Order("created_at ASC").First(&existing).Error
		switch {
		case err == nil:
			setting.ID = existing.ID
			setting.CreatedAt = existing.CreatedAt
			return tx.Save(setting).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			setting.ID = ""
			return tx.Create(setting).Error
		default:
			return err
		}
	})
	if err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceOptions, ID: setting.ID})
	return nil
}
