package services

import (
	"context"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/errors"
	"quill/pkg/pagination"

	"gorm.io/gorm"
)

var menuFields = FieldMap{
	"id":        "id",
	"name":      "name",
	"createdAt": "created_at",
}

// MenuService 菜单服务
type MenuService struct {
	db     *gorm.DB
	repo   *Repository[models.Menu]
	items  *Repository[models.MenuItem]
	events EventPublisher
}

// NewMenuService 创建菜单服务
func NewMenuService(db *gorm.DB, events EventPublisher) *MenuService {
	if events == nil {
		events = NopPublisher{}
	}
	return &MenuService{
		db:     db,
		repo:   NewRepository[models.Menu](db, menuFields, "name"),
		items:  NewRepository[models.MenuItem](db, FieldMap{"id": "id", "menuId": "menu_id", "position": "position"}),
		events: events,
	}
}

// List 菜单列表
func (s *MenuService) List(ctx context.Context, q pagination.ListQuery) ([]models.Menu, int64, error) {
	return s.repo.List(ctx, q)
}

// Get 获取菜单及其菜单项（按位置排序）
func (s *MenuService) Get(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// Create 创建菜单
func (s *MenuService) Create(ctx context.Context, menu *models.Menu) error {
	if err := s.repo.Create(ctx, menu); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventCreated, Resource: acl.ResourceMenus, ID: menu.ID})
	return nil
}

// Update 更新菜单
func (s *MenuService) Update(ctx context.Context, menu *models.Menu) error {
	if err := s.repo.Save(ctx, menu); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceMenus, ID: menu.ID})
	return nil
}

// Delete 删除菜单及全部菜单项
func (s *MenuService) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Menu{})
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
	s.events.Publish(Event{Type: EventDeleted, Resource: acl.ResourceMenus, ID: id})
	return nil
}

// GetItem 获取菜单项
func (s *MenuService) GetItem(ctx context.Context, menuID, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).Where("id = ? AND menu_id = ?", itemID, menuID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建菜单项
func (s *MenuService) CreateItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.checkItemParent(ctx, item); err != nil {
		return err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventCreated, Resource: acl.ResourceMenuItems, ID: item.ID})
	return nil
}

// UpdateItem 更新菜单项
func (s *MenuService) UpdateItem(ctx context.Context, item *models.MenuItem) error {
	if err := s.checkItemParent(ctx, item); err != nil {
		return err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceMenuItems, ID: item.ID})
	return nil
}

// DeleteItem 删除菜单项，子项提升一级
func (s *MenuService) DeleteItem(ctx context.Context, menuID, itemID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.Where("id = ? AND menu_id = ?", itemID, menuID).First(&item).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.MenuItem{}).Where("parent_id = ?", itemID).Update("parent_id", item.ParentID).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventDeleted, Resource: acl.ResourceMenuItems, ID: itemID})
	return nil
}

func (s *MenuService) checkItemParent(ctx context.Context, item *models.MenuItem) error {
	if item.ParentID == nil || *item.ParentID == "" {
		item.ParentID = nil
		return nil
	}
	if *item.ParentID == item.ID {
		return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "parentId", Issue: "menu item cannot be its own parent"})
	}
	if _, err := s.GetItem(ctx, item.MenuID, *item.ParentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "parentId", Issue: "parent item must belong to the same menu"})
		}
		return err
	}
	return nil
}
