package services

import (
	"context"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/errors"
	"quill/pkg/pagination"
	"quill/pkg/slug"

	"gorm.io/gorm"
)

var taxonomyFields = FieldMap{
	"id":        "id",
	"type":      "type",
	"name":      "name",
	"slug":      "slug",
	"parentId":  "parent_id",
	"createdAt": "created_at",
}

// TaxonomyService 分类与标签服务
type TaxonomyService struct {
	db     *gorm.DB
	repo   *Repository[models.Taxonomy]
	events EventPublisher
}

// NewTaxonomyService 创建分类服务
func NewTaxonomyService(db *gorm.DB, events EventPublisher) *TaxonomyService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaxonomyService{
		db:     db,
		repo:   NewRepository[models.Taxonomy](db, taxonomyFields, "name", "slug"),
		events: events,
	}
}

// List 分类列表
func (s *TaxonomyService) List(ctx context.Context, q pagination.ListQuery) ([]models.Taxonomy, int64, error) {
	return s.repo.List(ctx, q)
}

// Get 获取分类
func (s *TaxonomyService) Get(ctx context.Context, id string) (*models.Taxonomy, error) {
	return s.repo.Get(ctx, id)
}

// Create 创建分类，slug 默认由名称生成
func (s *TaxonomyService) Create(ctx context.Context, taxonomy *models.Taxonomy) error {
	if taxonomy.Slug == "" {
		taxonomy.Slug = slug.Make(taxonomy.Name)
	}
	if err := s.checkParent(ctx, taxonomy); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, taxonomy); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventCreated, Resource: acl.ResourceTaxonomies, ID: taxonomy.ID})
	return nil
}

// Update 更新分类
func (s *TaxonomyService) Update(ctx context.Context, taxonomy *models.Taxonomy) error {
	if taxonomy.Slug == "" {
		taxonomy.Slug = slug.Make(taxonomy.Name)
	}
	if err := s.checkParent(ctx, taxonomy); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, taxonomy); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceTaxonomies, ID: taxonomy.ID})
	return nil
}

// Delete 删除分类，子分类提升为顶级，内容关联一并移除
func (s *TaxonomyService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Taxonomy{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("taxonomy_id = ?", id).Delete(&models.ContentTaxonomy{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Taxonomy{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventDeleted, Resource: acl.ResourceTaxonomies, ID: id})
	return nil
}

func (s *TaxonomyService) checkParent(ctx context.Context, taxonomy *models.Taxonomy) error {
	if taxonomy.ParentID == nil || *taxonomy.ParentID == "" {
		taxonomy.ParentID = nil
		return nil
	}
	if *taxonomy.ParentID == taxonomy.ID {
		return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "parentId", Issue: "taxonomy cannot be its own parent"})
	}
	parent, err := s.repo.Get(ctx, *taxonomy.ParentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "parentId", Issue: "parent taxonomy does not exist"})
	}
	if err != nil {
		return err
	}
	if parent.Type != taxonomy.Type {
		return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "parentId", Issue: "parent must have the same type"})
	}
	return nil
}
