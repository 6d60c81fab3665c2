package models

// Media 媒体文件，上传者为所有者
type Media struct {
	BaseModel
	FilePath  string  `json:"filePath" gorm:"not null;size:500"`
	URL       string  `json:"url" gorm:"size:1000"`
	MimeType  string  `json:"mimeType" gorm:"not null;size:100"`
	AltText   *string `json:"altText" gorm:"size:255"`
	Width     *int    `json:"width"`
	Height    *int    `json:"height"`
	Size      int64   `json:"size"`
	CreatedBy string  `json:"createdBy" gorm:"size:36;index"`
}

// TableName 表名
func (m *Media) TableName() string {
	return "media"
}

// OwnerID 所有者
func (m *Media) OwnerID() string {
	return m.CreatedBy
}
