package models

import "gorm.io/datatypes"

// Revision 内容修订快照
type Revision struct {
	BaseModel
	ContentID       string         `json:"contentId" gorm:"not null;size:36;index"`
	RevisionContent datatypes.JSON `json:"revisionContent" gorm:"not null"`
	RevisedBy       string         `json:"revisedBy" gorm:"size:36"`
}

// TableName 表名
func (r *Revision) TableName() string {
	return "revisions"
}

// OwnerID 修订人
func (r *Revision) OwnerID() string {
	return r.RevisedBy
}
