// Package acl 权限目录、能力函数与所有权校验
package acl

import (
	"fmt"
)

// Role 角色
type Role string

// Action 操作
type Action string

// Resource 资源
type Resource string

// Permission 授权项 {action, resource}
type Permission struct {
	Action   Action   `json:"action"`
	Resource Resource `json:"resource"`
}

// P 构造 Permission
func P(action Action, resource Resource) Permission {
	return Permission{Action: action, Resource: resource}
}

func (p Permission) String() string {
	return string(p.Action) + ":" + string(p.Resource)
}

// Catalog 只读的角色权限目录，构造后不再修改，可并发读取
type Catalog struct {
	roles  []Role
	lowest Role
	grants map[Role]map[Permission]struct{}
	table  map[Role][]Permission
}

// NewCatalog 校验并构建目录。roles 按权限从低到高排列，roles[0] 为兜底角色。
// 每个角色都必须在 table 中有显式条目（可以为空）。
func NewCatalog(roles []Role, actions []Action, resources []Resource, table map[Role][]Permission) (*Catalog, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("acl: no roles defined")
	}

	knownRoles := make(map[Role]bool, len(roles))
	for _, role := range roles {
		if role == "" {
			return nil, fmt.Errorf("acl: empty role name")
		}
		if knownRoles[role] {
			return nil, fmt.Errorf("acl: duplicate role %q", role)
		}
		knownRoles[role] = true
	}

	knownActions := make(map[Action]bool, len(actions))
	for _, action := range actions {
		knownActions[action] = true
	}
	knownResources := make(map[Resource]bool, len(resources))
	for _, resource := range resources {
		knownResources[resource] = true
	}

	for role := range table {
		if !knownRoles[role] {
			return nil, fmt.Errorf("acl: permissions defined for unknown role %q", role)
		}
	}

	c := &Catalog{
		roles:  append([]Role(nil), roles...),
		lowest: roles[0],
		grants: make(map[Role]map[Permission]struct{}, len(roles)),
		table:  make(map[Role][]Permission, len(roles)),
	}

	for _, role := range roles {
		perms, ok := table[role]
		if !ok {
			return nil, fmt.Errorf("acl: role %q has no permission entry", role)
		}
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			if !knownActions[p.Action] {
				return nil, fmt.Errorf("acl: role %q uses unknown action %q", role, p.Action)
			}
			if !knownResources[p.Resource] {
				return nil, fmt.Errorf("acl: role %q uses unknown resource %q", role, p.Resource)
			}
			if _, dup := set[p]; dup {
				return nil, fmt.Errorf("acl: role %q grants %s twice", role, p)
			}
			set[p] = struct{}{}
		}
		c.grants[role] = set
		c.table[role] = append([]Permission{}, perms...)
	}

	return c, nil
}

// MustNewCatalog 构建失败直接panic，用于包初始化
func MustNewCatalog(roles []Role, actions []Action, resources []Resource, table map[Role][]Permission) *Catalog {
	c, err := NewCatalog(roles, actions, resources, table)
	if err != nil {
		panic(err)
	}
	return c
}

// HasPermission 角色是否拥有权限；未知角色一律返回 false
func (c *Catalog) HasPermission(role Role, p Permission) bool {
	set, ok := c.grants[role]
	if !ok {
		return false
	}
	_, granted := set[p]
	return granted
}

// ParseRole 将字符串解析为已知角色
func (c *Catalog) ParseRole(s string) (Role, bool) {
	role := Role(s)
	if _, ok := c.grants[role]; ok {
		return role, true
	}
	return "", false
}

// Lowest 最低权限角色
func (c *Catalog) Lowest() Role {
	return c.lowest
}

// Roles 全部角色（低到高）
func (c *Catalog) Roles() []Role {
	return append([]Role(nil), c.roles...)
}

// Permissions 某角色的权限列表副本
func (c *Catalog) Permissions(role Role) []Permission {
	return append([]Permission{}, c.table[role]...)
}

// Table 完整的角色→权限映射副本，用于 ACL 查询接口
func (c *Catalog) Table() map[Role][]Permission {
	out := make(map[Role][]Permission, len(c.table))
	for role, perms := range c.table {
		out[role] = append([]Permission{}, perms...)
	}
	return out
}
