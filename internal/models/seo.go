package models

import "gorm.io/datatypes"

// Twitter 卡片类型
const (
	TwitterCardSummary      = "summary"
	TwitterCardSummaryLarge = "summary_large_image"
)

// SEO 内容的SEO元数据，每个内容一条
type SEO struct {
	BaseModel
	ContentID         string         `json:"contentId" gorm:"uniqueIndex;not null;size:36"`
	MetaTitle         *string        `json:"metaTitle" gorm:"size:255"`
	MetaDescription   *string        `json:"metaDescription" gorm:"size:500"`
	CanonicalURL      *string        `json:"canonicalUrl" gorm:"size:500"`
	MetaKeywords      *string        `json:"metaKeywords" gorm:"size:500"`
	OGTitle           *string        `json:"ogTitle" gorm:"size:255"`
	OGDescription     *string        `json:"ogDescription" gorm:"size:500"`
	OGImage           *string        `json:"ogImage" gorm:"size:500"`
	TwitterCard       *string        `json:"twitterCard" gorm:"size:30"`
	SchemaType        *string        `json:"schemaType" gorm:"size:100"`
	SchemaHeadline    *string        `json:"schemaHeadline" gorm:"size:255"`
	SchemaDescription *string        `json:"schemaDescription" gorm:"size:500"`
	SchemaImage       *string        `json:"schemaImage" gorm:"size:500"`
	OverrideJSONLd    datatypes.JSON `json:"overrideJsonLd,omitempty" gorm:"column:override_json_ld"`
}

// TableName 表名
func (s *SEO) TableName() string {
	return "seo"
}
