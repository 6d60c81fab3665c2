package handlers

import (
	"quill/internal/acl"
	"quill/internal/middleware"
	"quill/pkg/metrics"
	"quill/pkg/pagination"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
)

const forbiddenMessage = "权限不足"

// allow 粗粒度检查，任一 action 成立即通过，否则写入 403
func allow(c *gin.Context, resource acl.Resource, actions ...acl.Action) bool {
	ok := acl.Coarse(middleware.Capability(c), resource, actions...)
	decision := acl.Allow
	if !ok {
		decision = acl.DenyPermission
	}
	record(c, resource, actions[0], decision)
	if !ok {
		response.Forbidden(c, forbiddenMessage)
	}
	return ok
}

// precheck 读取记录前的粗粒度检查；仅拒绝时记录并写入 403，
// 通过时由随后的记录级检查记录结果。无权限的调用者看不到记录是否存在
func precheck(c *gin.Context, granted bool, resource acl.Resource, action acl.Action) bool {
	if granted {
		return true
	}
	record(c, resource, action, acl.DenyPermission)
	response.Forbidden(c, forbiddenMessage)
	return false
}

// allowScoped 记录级授权：othersAction 放行任意记录，ownAction 仅放行调用者自己的记录
func allowScoped(c *gin.Context, resource acl.Resource, ownAction, othersAction acl.Action, ownerID string) bool {
	decision := acl.AuthorizeScoped(middleware.Capability(c), resource, ownAction, othersAction, ownerID, middleware.CallerID(c))
	record(c, resource, ownAction, decision)
	if !decision.Allowed() {
		response.Forbidden(c, forbiddenMessage)
		return false
	}
	return true
}

// listScope 解析列表的所有权范围，并把所有者过滤条件合并进查询
func listScope(c *gin.Context, resource acl.Resource, ownAction, othersAction acl.Action, ownerField string, q pagination.ListQuery) (pagination.ListQuery, bool) {
	owner, ok := acl.ListScope(middleware.Capability(c), resource, ownAction, othersAction, middleware.CallerID(c))
	if !ok {
		record(c, resource, ownAction, acl.DenyPermission)
		response.Forbidden(c, forbiddenMessage)
		return q, false
	}
	record(c, resource, ownAction, acl.Allow)
	if owner != "" {
		q = q.WithFilter(ownerField, owner)
	}
	return q, true
}

func record(c *gin.Context, resource acl.Resource, action acl.Action, decision acl.Decision) {
	metrics.RecordAuthzDecision(string(middleware.CurrentRole(c)), string(resource), string(action), decision.String())
}

// parseListQuery 解析列表参数，失败时写入 400
func parseListQuery(c *gin.Context) (pagination.ListQuery, bool) {
	q, err := pagination.ParseListQuery(c)
	if err != nil {
		response.Fail(c, err)
		return q, false
	}
	return q, true
}

// respondList 输出列表并设置 Content-Range
func respondList(c *gin.Context, resource acl.Resource, q pagination.ListQuery, items interface{}, total int64) {
	response.SuccessWithRange(c, string(resource), items, q.Range, total)
}
