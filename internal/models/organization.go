package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Organization 站点所属组织信息
type Organization struct {
	BaseModel
	Name         string         `json:"name" gorm:"not null;size:200"`
	Logo         *string        `json:"logo" gorm:"size:500"`
	URL          string         `json:"url" gorm:"not null;size:500"`
	ContactEmail *string        `json:"contactEmail" gorm:"size:100"`
	ContactPhone *string        `json:"contactPhone" gorm:"size:50"`
	Address      *string        `json:"address" gorm:"size:500"`
	SocialLinks  datatypes.JSON `json:"socialLinks,omitempty"`
	JSONLd       datatypes.JSON `json:"jsonLd,omitempty" gorm:"column:json_ld"`
	DeletedAt    gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName 表名
func (o *Organization) TableName() string {
	return "organizations"
}

// 站点主体类型
const (
	SiteTypeOrganization = "Organization"
	SiteTypePerson       = "Person"
)

// SiteSetting 站点设置（单例）
type SiteSetting struct {
	BaseModel
	SiteName       string         `json:"siteName" gorm:"not null;size:200"`
	SiteURL        string         `json:"siteUrl" gorm:"not null;size:500"`
	SiteLogo       *string        `json:"siteLogo" gorm:"size:500"`
	Type           string         `json:"type" gorm:"default:'Organization';size:20"`
	OrganizationID *string        `json:"organizationId" gorm:"size:36"`
	JSONLd         datatypes.JSON `json:"jsonLd,omitempty" gorm:"column:json_ld"`
}

// TableName 表名
func (s *SiteSetting) TableName() string {
	return "site_settings"
}
