package models

// 分类法类型
const (
	TaxonomyTypeCategory = "category"
	TaxonomyTypeTag      = "tag"
)

// Taxonomy 分类或标签，分类可嵌套
type Taxonomy struct {
	BaseModel
	Type     string  `json:"type" gorm:"not null;size:20;index"`
	Name     string  `json:"name" gorm:"not null;size:100"`
	Slug     string  `json:"slug" gorm:"uniqueIndex;not null;size:120"`
	ParentID *string `json:"parentId" gorm:"size:36;index"`
}

// TableName 表名
func (t *Taxonomy) TableName() string {
	return "taxonomies"
}

// IsCategory 是否为分类
func (t *Taxonomy) IsCategory() bool {
	return t.Type == TaxonomyTypeCategory
}
