package models

// Menu 导航菜单
type Menu struct {
	BaseModel
	Name  string     `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Items []MenuItem `json:"items,omitempty" gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (m *Menu) TableName() string {
	return "menus"
}

// MenuItem 菜单项，可嵌套
type MenuItem struct {
	BaseModel
	MenuID   string  `json:"menuId" gorm:"not null;size:36;index"`
	Label    string  `json:"label" gorm:"not null;size:100"`
	URL      *string `json:"url" gorm:"size:500"`
	ParentID *string `json:"parentId" gorm:"size:36"`
	Position int     `json:"position" gorm:"default:0"`
}

// TableName 表名
func (mi *MenuItem) TableName() string {
	return "menu_items"
}
