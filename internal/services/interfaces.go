package services

//go:generate mockgen -destination=mocks/mock_services.go -package=mocks quill/internal/services UserStore,ContentStore,TaxonomyStore,MediaStore,MenuStore,OrganizationStore,OptionStore

import (
	"context"
	"time"

	"quill/internal/models"
	"quill/pkg/pagination"
)

// UserStore 用户数据访问
type UserStore interface {
	List(ctx context.Context, q pagination.ListQuery) ([]models.User, int64, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error)
	Create(ctx context.Context, user *models.User, password string) error
	Update(ctx context.Context, user *models.User, password string) error
	Delete(ctx context.Context, id string) error
	ListAuthors(ctx context.Context, q pagination.ListQuery) ([]models.User, int64, error)
	GetAuthor(ctx context.Context, id string) (*models.User, error)
}

// ContentStore 内容、修订、SEO与分类关联
type ContentStore interface {
	List(ctx context.Context, q pagination.ListQuery) ([]models.Content, int64, error)
	Get(ctx context.Context, id string) (*models.Content, error)
	Create(ctx context.Context, content *models.Content) error
	Update(ctx context.Context, content *models.Content, revisedBy string) error
	Delete(ctx context.Context, id string) error

	SetTaxonomies(ctx context.Context, contentID string, taxonomyIDs []string) ([]models.Taxonomy, error)

	ListRevisions(ctx context.Context, contentID string, q pagination.ListQuery) ([]models.Revision, int64, error)
	GetRevision(ctx context.Context, id string) (*models.Revision, error)
	RestoreRevision(ctx context.Context, content *models.Content, revision *models.Revision, revisedBy string) (*models.Content, error)
	DeleteRevision(ctx context.Context, id string) error

	GetSEO(ctx context.Context, contentID string) (*models.SEO, error)
	SaveSEO(ctx context.Context, seo *models.SEO) error
}

// ContentMaintainer 定时任务使用的内容维护操作
type ContentMaintainer interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// TaxonomyStore 分类与标签
type TaxonomyStore interface {
	List(ctx context.Context, q pagination.ListQuery) ([]models.Taxonomy, int64, error)
	Get(ctx context.Context, id string) (*models.Taxonomy, error)
	Create(ctx context.Context, taxonomy *models.Taxonomy) error
	Update(ctx context.Context, taxonomy *models.Taxonomy) error
	Delete(ctx context.Context, id string) error
}

// UploadInput 媒体上传参数
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	AltText     *string
	Width       *int
	Height      *int
}

// MediaStore 媒体文件
type MediaStore interface {
	List(ctx context.Context, q pagination.ListQuery) ([]models.Media, int64, error)
	Get(ctx context.Context, id string) (*models.Media, error)
	Upload(ctx context.Context, input UploadInput, ownerID string) (*models.Media, error)
	Delete(ctx context.Context, media *models.Media) error
}

// MenuStore 菜单与菜单项
type MenuStore interface {
	List(ctx context.Context, q pagination.ListQuery) ([]models.Menu, int64, error)
	Get(ctx context.Context, id string) (*models.Menu, error)
	Create(ctx context.Context, menu *models.Menu) error
	Update(ctx context.Context, menu *models.Menu) error
	Delete(ctx context.Context, id string) error

	GetItem(ctx context.Context, menuID, itemID string) (*models.MenuItem, error)
	CreateItem(ctx context.Context, item *models.MenuItem) error
	UpdateItem(ctx context.Context, item *models.MenuItem) error
	DeleteItem(ctx context.Context, menuID, itemID string) error
}

// OrganizationStore 组织
type OrganizationStore interface {
	List(ctx context.Context, q pagination.ListQuery) ([]models.Organization, int64, error)
	Get(ctx context.Context, id string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id string) error
}

// OptionStore 站点设置
type OptionStore interface {
	Get(ctx context.Context) (*models.SiteSetting, error)
	Save(ctx context.Context, setting *models.SiteSetting) error
}
