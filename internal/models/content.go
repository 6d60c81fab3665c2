package models

import (
	"time"

	"gorm.io/gorm"
)

// 内容类型
const (
	ContentTypePost = "post"
	ContentTypePage = "page"
)

// 内容状态
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
	ContentStatusPrivate   = "private"
)

// Content 文章/页面，作者为所有者
type Content struct {
	BaseModel
	ShortID     string         `json:"shortId" gorm:"uniqueIndex;not null;size:8"`
	Type        string         `json:"type" gorm:"not null;default:'post';size:10"`
	Title       string         `json:"title" gorm:"not null;size:255"`
	Slug        string         `json:"slug" gorm:"not null;size:255;index"`
	Body        string         `json:"content" gorm:"column:content;type:text"`
	Status      string         `json:"status" gorm:"not null;default:'draft';size:20;index"`
	AuthorID    string         `json:"authorId" gorm:"size:36;index"`
	PublishedAt *time.Time     `json:"publishedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Taxonomies []Taxonomy `json:"taxonomies,omitempty" gorm:"many2many:content_taxonomies;"`
}

// TableName 表名
func (c *Content) TableName() string {
	return "content"
}

// OwnerID 所有者
func (c *Content) OwnerID() string {
	return c.AuthorID
}

// IsPublished 是否已发布
func (c *Content) IsPublished() bool {
	return c.Status == ContentStatusPublished
}

// IsPrivate 是否私有
func (c *Content) IsPrivate() bool {
	return c.Status == ContentStatusPrivate
}

// ContentTaxonomy 内容与分类/标签的关联
type ContentTaxonomy struct {
	ContentID  string `json:"contentId" gorm:"primaryKey;size:36"`
	TaxonomyID string `json:"taxonomyId" gorm:"primaryKey;size:36"`
}

// TableName 表名
func (ct *ContentTaxonomy) TableName() string {
	return "content_taxonomies"
}
