package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/errors"
	"quill/pkg/pagination"
	"quill/pkg/slug"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentFields 内容列表可过滤/排序字段
var ContentFields = FieldMap{
	"id":          "id",
	"shortId":     "short_id",
	"type":        "type",
	"title":       "title",
	"slug":        "slug",
	"status":      "status",
	"authorId":    "author_id",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
}

var revisionFields = FieldMap{
	"id":        "id",
	"contentId": "content_id",
	"revisedBy": "revised_by",
	"createdAt": "created_at",
}

// ContentService 内容服务
type ContentService struct {
	db        *gorm.DB
	repo      *Repository[models.Content]
	revisions *Repository[models.Revision]
	events    EventPublisher
}

// NewContentService 创建内容服务
func NewContentService(db *gorm.DB, events EventPublisher) *ContentService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ContentService{
		db:        db,
		repo:      NewRepository[models.Content](db, ContentFields, "title", "content"),
		revisions: NewRepository[models.Revision](db, revisionFields),
		events:    events,
	}
}

// revisionSnapshot 修订快照中保存的字段
type revisionSnapshot struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	AuthorID    string     `json:"authorId"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// List 内容列表
func (s *ContentService) List(ctx context.Context, q pagination.ListQuery) ([]models.Content, int64, error) {
	return s.repo.List(ctx, q)
}

// Get 根据ID获取内容
func (s *ContentService) Get(ctx context.Context, id string) (*models.Content, error) {
	var content models.Content
	err := s.db.WithContext(ctx).Preload("Taxonomies").Where("id = ?", id).First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// Create 创建内容，生成短ID，未提供slug时由标题生成
func (s *ContentService) Create(ctx context.Context, content *models.Content) error {
	if content.Slug == "" {
		content.Slug = slug.Make(content.Title)
	}
	if content.Type == "" {
		content.Type = models.ContentTypePost
	}
	if content.Status == "" {
		content.Status = models.ContentStatusDraft
	}
	if content.Status == models.ContentStatusPublished && content.PublishedAt == nil {
		now := time.Now().UTC()
		content.PublishedAt = &now
	}

	shortID, err := slug.NewShortID(slug.ShortIDDefaultLen)
	if err != nil {
		return fmt.Errorf("生成短ID失败: %w", err)
	}
	content.ShortID = shortID

	if err := s.repo.Create(ctx, content); err != nil {
		return err
	}
	s.publish(EventCreated, content)
	return nil
}

// Update 更新内容，保存更新前的修订快照
func (s *ContentService) Update(ctx context.Context, content *models.Content, revisedBy string) error {
	if content.Slug == "" {
		content.Slug = slug.Make(content.Title)
	}
	if content.Status == models.ContentStatusPublished && content.PublishedAt == nil {
		now := time.Now().UTC()
		content.PublishedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous models.Content
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", content.ID).First(&previous).Error; err != nil {
			return err
		}
		if err := createRevision(tx, &previous, revisedBy); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(content).Error
	})
	if err != nil {
		return err
	}
	s.publish(EventUpdated, content)
	return nil
}

// Delete 软删除内容
func (s *ContentService) Delete(ctx context.Context, id string) error {
	content, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(EventDeleted, content)
	return nil
}

// SetTaxonomies 替换内容的分类/标签
func (s *ContentService) SetTaxonomies(ctx context.Context, contentID string, taxonomyIDs []string) ([]models.Taxonomy, error) {
	var taxonomies []models.Taxonomy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(taxonomyIDs) > 0 {
			if err := tx.Where("id IN ?", taxonomyIDs).Find(&taxonomies).Error; err != nil {
				return err
			}
			if len(taxonomies) != len(unique(taxonomyIDs)) {
				return errors.BadRequest("请求参数错误", errors.Detail{Parameter: "taxonomyIds", Issue: "unknown taxonomy id"})
			}
		}

		if err := tx.Where("content_id = ?", contentID).Delete(&models.ContentTaxonomy{}).Error; err != nil {
			return err
		}
		for _, t := range taxonomies {
			link := models.ContentTaxonomy{ContentID: contentID, TaxonomyID: t.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if taxonomies == nil {
		taxonomies = []models.Taxonomy{}
	}
	s.events.Publish(Event{Type: EventUpdated, Resource: acl.ResourceContent, ID: contentID})
	return taxonomies, nil
}

// ListRevisions 内容的修订列表
func (s *ContentService) ListRevisions(ctx context.Context, contentID string, q pagination.ListQuery) ([]models.Revision, int64, error) {
	return s.revisions.List(ctx, q.WithFilter("contentId", contentID))
}

// GetRevision 获取修订
func (s *ContentService) GetRevision(ctx context.Context, id string) (*models.Revision, error) {
	return s.revisions.Get(ctx, id)
}

// RestoreRevision 将内容恢复到修订快照，当前版本会先保存为新修订
func (s *ContentService) RestoreRevision(ctx context.Context, content *models.Content, revision *models.Revision, revisedBy string) (*models.Content, error) {
	if revision.ContentID != content.ID {
		return nil, errors.BadRequest("修订不属于该内容")
	}

	var snapshot revisionSnapshot
	if err := json.Unmarshal(revision.RevisionContent, &snapshot); err != nil {
		return nil, fmt.Errorf("解析修订快照失败: %w", err)
	}

	restored := *content
	restored.Type = snapshot.Type
	restored.Title = snapshot.Title
	restored.Slug = snapshot.Slug
	restored.Body = snapshot.Content
	restored.Status = snapshot.Status
	restored.PublishedAt = snapshot.PublishedAt
	restored.Taxonomies = nil

	if err := s.Update(ctx, &restored, revisedBy); err != nil {
		return nil, err
	}
	return &restored, nil
}

// DeleteRevision 删除修订
func (s *ContentService) DeleteRevision(ctx context.Context, id string) error {
	return s.revisions.Delete(ctx, id)
}

// GetSEO 获取内容的SEO元数据
func (s *ContentService) GetSEO(ctx context.Context, contentID string) (*models.SEO, error) {
	var seo models.SEO
	if err := s.db.WithContext(ctx).Where("content_id = ?", contentID).First(&seo).Error; err != nil {
		return nil, err
	}
	return &seo, nil
}

// SaveSEO 按 content_id 插入或更新SEO元数据
func (s *ContentService) SaveSEO(ctx context.Context, seo *models.SEO) error {
	var existing models.SEO
	err := s.db.WithContext(ctx).Where("content_id = ?", seo.ContentID).First(&existing).Error
	switch {
	case err == nil:
		seo.ID = existing.ID
		seo.CreatedAt = existing.CreatedAt
		return s.db.WithContext(ctx).Save(seo).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(seo).Error
	default:
		return err
	}
}

// PublishDue 发布计划时间已到的草稿
func (s *ContentService) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	var due []models.Content
	err := s.db.WithContext(ctx).
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?", models.ContentStatusDraft, now).
		Find(&due).Error
	if err != nil || len(due) == 0 {
		return 0, err
	}

	ids := make([]string, 0, len(due))
	for _, c := range due {
		ids = append(ids, c.ID)
	}
	result := s.db.WithContext(ctx).Model(&models.Content{}).
		Where("id IN ? AND status = ?", ids, models.ContentStatusDraft).
		Update("status", models.ContentStatusPublished)
	if result.Error != nil {
		return 0, result.Error
	}

	for i := range due {
		due[i].Status = models.ContentStatusPublished
		s.publish(EventPublished, &due[i])
	}
	return result.RowsAffected, nil
}

// PurgeDeleted 永久删除早于 before 的软删除内容及其附属数据
func (s *ContentService) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Unscoped().Model(&models.Content{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", before).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		for _, related := range []interface{}{&models.Revision{}, &models.SEO{}, &models.ContentTaxonomy{}} {
			if err := tx.Where("content_id IN ?", ids).Delete(related).Error; err != nil {
				return err
			}
		}
		result := tx.Unscoped().Where("id IN ?", ids).Delete(&models.Content{})
		if result.Error != nil {
			return result.Error
		}
		purged = result.RowsAffected
		return nil
	})
	return purged, err
}

func (s *ContentService) publish(eventType string, content *models.Content) {
	s.events.Publish(Event{
		Type:     eventType,
		Resource: acl.ResourceContent,
		ID:       content.ID,
		OwnerID:  content.AuthorID,
		Status:   content.Status,
	})
}

func createRevision(tx *gorm.DB, previous *models.Content, revisedBy string) error {
	snapshot, err := json.Marshal(revisionSnapshot{
		Type:        previous.Type,
		Title:       previous.Title,
		Slug:        previous.Slug,
		Content:     previous.Body,
		Status:      previous.Status,
		AuthorID:    previous.AuthorID,
		PublishedAt: previous.PublishedAt,
	})
	if err != nil {
		return err
	}
	return tx.Create(&models.Revision{
		ContentID:       previous.ID,
		RevisionContent: datatypes.JSON(snapshot),
		RevisedBy:       revisedBy,
	}).Error
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
