package acl

// 角色，按权限从低到高
const (
	RoleGuest      Role = "guest"
	RoleSubscriber Role = "subscriber"
	RoleAuthor     Role = "author"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
)

// 操作
const (
	ActionList         Action = "list"
	ActionShow         Action = "show"
	ActionCreate       Action = "create"
	ActionEdit         Action = "edit"
	ActionDelete       Action = "delete"
	ActionAssign       Action = "assign"
	ActionPromote      Action = "promote"
	ActionListOthers   Action = "listOthers"
	ActionShowOthers   Action = "showOthers"
	ActionEditOthers   Action = "editOthers"
	ActionDeleteOthers Action = "deleteOthers"
	ActionPublish      Action = "publish"
	ActionReadPrivate  Action = "readPrivate"
	ActionUpload       Action = "upload"
	ActionDeleteAny    Action = "deleteAny"
	ActionDeleteOwn    Action = "deleteOwn"
	ActionManage       Action = "manage"
	ActionLogin        Action = "login"
	ActionRegister     Action = "register"
)

// 资源
const (
	ResourceACLs          Resource = "acls"
	ResourceUsers         Resource = "users"
	ResourceAuthors       Resource = "authors"
	ResourceContent       Resource = "content"
	ResourceTaxonomies    Resource = "taxonomies"
	ResourceRevisions     Resource = "revisions"
	ResourceMedia         Resource = "media"
	ResourceMediaLibrary  Resource = "media_library"
	ResourceMenus         Resource = "menus"
	ResourceMenuItems     Resource = "menu_items"
	ResourceSEO           Resource = "seo"
	ResourceCategories    Resource = "categories"
	ResourceOrganizations Resource = "organizations"
	ResourceOptions       Resource = "options"
	ResourceAuth          Resource = "auth"
)

var (
	// Roles 全部角色，guest 为兜底角色
	Roles = []Role{RoleGuest, RoleSubscriber, RoleAuthor, RoleEditor, RoleAdmin}

	// Actions 全部操作
	Actions = []Action{
		ActionList, ActionShow, ActionCreate, ActionEdit, ActionDelete, ActionAssign, ActionPromote,
		ActionListOthers, ActionShowOthers, ActionEditOthers, ActionDeleteOthers, ActionPublish,
		ActionReadPrivate, ActionUpload, ActionDeleteAny, ActionDeleteOwn, ActionManage,
		ActionLogin, ActionRegister,
	}

	// Resources 全部资源
	Resources = []Resource{
		ResourceACLs, ResourceUsers, ResourceAuthors, ResourceContent, ResourceTaxonomies,
		ResourceRevisions, ResourceMedia, ResourceMediaLibrary, ResourceMenus, ResourceMenuItems,
		ResourceSEO, ResourceCategories, ResourceOrganizations, ResourceOptions, ResourceAuth,
	}
)

var subscriberPermissions = []Permission{
	P(ActionList, ResourceACLs),

	P(ActionList, ResourceAuthors),
	P(ActionShow, ResourceAuthors),

	P(ActionReadPrivate, ResourceContent),
}

var authorPermissions = []Permission{
	P(ActionList, ResourceACLs),

	P(ActionList, ResourceAuthors),
	P(ActionShow, ResourceAuthors),

	// Content
	P(ActionCreate, ResourceContent),
	P(ActionList, ResourceContent),
	P(ActionShow, ResourceContent),
	P(ActionEdit, ResourceContent),
	P(ActionDelete, ResourceContent),
	P(ActionPublish, ResourceContent),
	P(ActionReadPrivate, ResourceContent),

	// Media
	P(ActionUpload, ResourceMedia),
	P(ActionDeleteOwn, ResourceMedia),

	P(ActionAssign, ResourceCategories),
}

var editorPermissions = []Permission{
	P(ActionList, ResourceACLs),

	P(ActionList, ResourceAuthors),
	P(ActionShow, ResourceAuthors),

	// Content
	P(ActionCreate, ResourceContent),
	P(ActionList, ResourceContent),
	P(ActionShow, ResourceContent),
	P(ActionListOthers, ResourceContent),
	P(ActionShowOthers, ResourceContent),
	P(ActionEdit, ResourceContent),
	P(ActionEditOthers, ResourceContent),
	P(ActionDelete, ResourceContent),
	P(ActionDeleteOthers, ResourceContent),
	P(ActionPublish, ResourceContent),
	P(ActionReadPrivate, ResourceContent),

	// Revisions
	P(ActionEdit, ResourceRevisions),
	P(ActionDelete, ResourceRevisions),

	// Media
	P(ActionUpload, ResourceMedia),
	P(ActionDeleteOwn, ResourceMedia),

	// Menus
	P(ActionEdit, ResourceMenuItems),
	P(ActionDelete, ResourceMenuItems),

	P(ActionEdit, ResourceSEO),

	// Categories
	P(ActionManage, ResourceCategories),
	P(ActionEdit, ResourceCategories),
	P(ActionDelete, ResourceCategories),
	P(ActionAssign, ResourceCategories),
}

var adminPermissions = []Permission{
	P(ActionList, ResourceACLs),

	// Users
	P(ActionList, ResourceUsers),
	P(ActionShow, ResourceUsers),
	P(ActionCreate, ResourceUsers),
	P(ActionEdit, ResourceUsers),
	P(ActionDelete, ResourceUsers),
	P(ActionPromote, ResourceUsers),
	P(ActionList, ResourceAuthors),
	P(ActionShow, ResourceAuthors),

	// Content
	P(ActionCreate, ResourceContent),
	P(ActionList, ResourceContent),
	P(ActionShow, ResourceContent),
	P(ActionListOthers, ResourceContent),
	P(ActionShowOthers, ResourceContent),
	P(ActionEdit, ResourceContent),
	P(ActionEditOthers, ResourceContent),
	P(ActionDelete, ResourceContent),
	P(ActionDeleteOthers, ResourceContent),
	P(ActionPublish, ResourceContent),
	P(ActionReadPrivate, ResourceContent),

	// Taxonomies
	P(ActionCreate, ResourceTaxonomies),
	P(ActionList, ResourceTaxonomies),
	P(ActionShow, ResourceTaxonomies),
	P(ActionEdit, ResourceTaxonomies),
	P(ActionDelete, ResourceTaxonomies),

	// Revisions
	P(ActionEdit, ResourceRevisions),
	P(ActionDelete, ResourceRevisions),

	// Media
	P(ActionUpload, ResourceMedia),
	P(ActionDeleteAny, ResourceMedia),
	P(ActionDeleteOwn, ResourceMedia),
	P(ActionManage, ResourceMediaLibrary),

	// Menus
	P(ActionEdit, ResourceMenus),
	P(ActionDelete, ResourceMenus),
	P(ActionEdit, ResourceMenuItems),
	P(ActionDelete, ResourceMenuItems),

	P(ActionEdit, ResourceSEO),

	// Categories
	P(ActionManage, ResourceCategories),
	P(ActionEdit, ResourceCategories),
	P(ActionDelete, ResourceCategories),
	P(ActionAssign, ResourceCategories),

	// Organizations
	P(ActionEdit, ResourceOrganizations),
	P(ActionManage, ResourceOrganizations),

	P(ActionManage, ResourceOptions),
}

var guestPermissions = []Permission{
	P(ActionList, ResourceAuthors),
	P(ActionShow, ResourceAuthors),

	P(ActionLogin, ResourceAuth),
	P(ActionRegister, ResourceAuth),
}

// Default 进程级权限目录
var Default = MustNewCatalog(Roles, Actions, Resources, map[Role][]Permission{
	RoleGuest:      guestPermissions,
	RoleSubscriber: subscriberPermissions,
	RoleAuthor:     authorPermissions,
	RoleEditor:     editorPermissions,
	RoleAdmin:      adminPermissions,
})

// HasPermission 使用默认目录判断
func HasPermission(role Role, p Permission) bool {
	return Default.HasPermission(role, p)
}
