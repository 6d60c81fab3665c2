package acl

// Can 请求级能力函数：当前角色能否对 resource 执行 action
type Can func(resource Resource, action Action) bool

// NewCapability 将角色绑定到目录，生成能力函数。纯函数，无I/O
func NewCapability(catalog *Catalog, role Role) Can {
	return func(resource Resource, action Action) bool {
		return catalog.HasPermission(role, Permission{Action: action, Resource: resource})
	}
}

// Deny 拒绝一切的能力函数，上下文中缺失能力时使用
func Deny(Resource, Action) bool {
	return false
}
