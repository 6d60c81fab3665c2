package services

import (
	"context"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/pagination"

	"gorm.io/gorm"
)

var organizationFields = FieldMap{
	"id":        "id",
	"name":      "name",
	"url":       "url",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// OrganizationService 组织服务
type OrganizationService struct {
	repo   *Repository[models.Organization]
	events EventPublisher
}

// NewOrganizationService 创建组织服务
func NewOrganizationService(db *gorm.DB, events EventPublisher) *OrganizationService {
	if events == nil {
		events = NopPublisher{}
	}
	return &OrganizationService{
		repo:   NewRepository[models.Organization](db, organizationFields, "name"),
		events: events,
	}
}

// List 组织列表
func (s *OrganizationService) List(ctx context.Context, q pagination.ListQuery) ([]models.Organization, int64, error) {
	return s.repo.List(ctx, q)
}

// Get 获取组织
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	return s.repo.Get(ctx, id)
}

// Create 创建组织
func (s *OrganizationService) Create(ctx context.Context, org *models.Organization) error {
	if err := s.repo.Create(ctx, org); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventCreated, Resource: acl.ResourceOrganizations, ID: org.ID})
	return nil
}

// Update 更新组织
func (s *OrganizationService) Update(ctx context.Context, org *models.Organization) error {
	if err := s.repo.Save(ctx, org); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceOrganizations, ID: org.ID})
	return nil
}

// Delete 软删除组织
func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventDeleted, Resource: acl.ResourceOrganizations, ID: id})
	return nil
}
