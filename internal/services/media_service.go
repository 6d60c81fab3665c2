package services

import (
	"context"
	"path"
	"strings"
	"time"

	"quill/internal/acl"
	"quill/internal/models"
	"quill/pkg/logger"
	"quill/pkg/pagination"
	"quill/pkg/slug"
	"quill/pkg/storage"

	"gorm.io/gorm"
)

var mediaFields = FieldMap{
	"id":        "id",
	"mimeType":  "mime_type",
	"createdBy": "created_by",
	"createdAt": "created_at",
	"size":      "size",
}

// MediaService 媒体服务，文件存入对象存储
type MediaService struct {
	repo   *Repository[models.Media]
	store  storage.ObjectStore
	events EventPublisher
	now    func() time.Time
}

// NewMediaService 创建媒体服务
func NewMediaService(db *gorm.DB, store storage.ObjectStore, events EventPublisher) *MediaService {
	if events == nil {
		events = NopPublisher{}
	}
	return &MediaService{
		repo:   NewRepository[models.Media](db, mediaFields, "file_path", "alt_text"),
		store:  store,
		events: events,
		now:    time.Now,
	}
}

// List 媒体列表
func (s *MediaService) List(ctx context.Context, q pagination.ListQuery) ([]models.Media, int64, error) {
	return s.repo.List(ctx, q)
}

// Get 获取媒体
func (s *MediaService) Get(ctx context.Context, id string) (*models.Media, error) {
	return s.repo.Get(ctx, id)
}

// Upload 上传文件并登记媒体记录；登记失败时删除已上传对象
func (s *MediaService) Upload(ctx context.Context, input UploadInput, ownerID string) (*models.Media, error) {
	key, err := s.objectKey(input.Filename)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, input.ContentType, input.Data); err != nil {
		return nil, err
	}

	media := &models.Media{
		FilePath:  key,
		URL:       s.store.URL(key),
		MimeType:  input.ContentType,
		AltText:   input.AltText,
		Width:     input.Width,
		Height:    input.Height,
		Size:      int64(len(input.Data)),
		CreatedBy: ownerID,
	}
	if err := s.repo.Create(ctx, media); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.GetLogger().Errorf("Failed to remove orphan object %s: %v", key, delErr)
		}
		return nil, err
	}

	s.events.Publish(Event{Type: EventCreated, Resource: acl.ResourceMedia, ID: media.ID, OwnerID: ownerID})
	return media, nil
}

// Delete 删除媒体记录及对象
func (s *MediaService) Delete(ctx context.Context, media *models.Media) error {
	if err := s.repo.Delete(ctx, media.ID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, media.FilePath); err != nil {
		logger.GetLogger().Errorf("Failed to delete object %s: %v", media.FilePath, err)
	}
	s.events.Publish(Event{Type: EventDeleted, Resource: acl.ResourceMedia, ID: media.ID, OwnerID: media.CreatedBy})
	return nil
}

// objectKey 生成对象键：uploads/2026/01/<shortid>-<name>.<ext>
func (s *MediaService) objectKey(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "file"
	}
	prefix, err := slug.NewShortID(slug.ShortIDMaxLen)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	return path.Join("uploads", now.Format("2006"), now.Format("01"), prefix+"-"+base+ext), nil
}
