package acl

// Decision 授权结果
type Decision int

const (
	Allow Decision = iota
	DenyPermission
	DenyOwnership
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyPermission:
		return "deny_permission"
	case DenyOwnership:
		return "deny_ownership"
	default:
		return "unknown"
	}
}

// Allowed 是否放行
func (d Decision) Allowed() bool {
	return d == Allow
}

// Coarse 粗粒度检查：任一 action 成立即通过
func Coarse(can Can, resource Resource, actions ...Action) bool {
	for _, action := range actions {
		if can(resource, action) {
			return true
		}
	}
	return false
}

// AuthorizeScoped 带所有权的授权判断。
// 持有 othersAction 直接放行；仅持有 ownAction 时要求记录属于调用者。
// callerID 为空（匿名）时永远不可能匹配所有者。
func AuthorizeScoped(can Can, resource Resource, ownAction, othersAction Action, ownerID, callerID string) Decision {
	if can(resource, othersAction) {
		return Allow
	}
	if !can(resource, ownAction) {
		return DenyPermission
	}
	if callerID == "" || ownerID != callerID {
		return DenyOwnership
	}
	return Allow
}

// ListScope 列表查询的所有权范围。
// 返回 ok=false 表示无权列出；ownerFilter 非空时查询必须限定为该所有者。
func ListScope(can Can, resource Resource, ownAction, othersAction Action, callerID string) (ownerFilter string, ok bool) {
	if can(resource, othersAction) {
		return "", true
	}
	if can(resource, ownAction) && callerID != "" {
		return callerID, true
	}
	return "", false
}
