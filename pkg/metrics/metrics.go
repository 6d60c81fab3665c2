// Package metrics 授权与认证相关的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisionsTotal 授权判定次数
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "resource", "action", "decision"},
	)

	// AuthzDeniedTotal 拒绝次数，用于告警
	AuthzDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_authz_denied_total",
			Help: "Total number of authorization denials",
		},
		[]string{"role", "resource", "action"},
	)

	// AuthRoleDowngradesTotal 令牌角色无效被降级为最低角色的次数
	AuthRoleDowngradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quill_auth_role_downgrades_total",
			Help: "Total number of verified tokens whose role claim was missing or unknown",
		},
	)

	// AuthFailuresTotal 令牌校验失败次数
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_auth_failures_total",
			Help: "Total number of rejected bearer tokens",
		},
		[]string{"reason"},
	)

	// ScheduledPublishTotal 定时发布的内容数
	ScheduledPublishTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quill_content_scheduled_published_total",
			Help: "Total number of content records published by the scheduler",
		},
	)

	// PurgedRecordsTotal 清理的软删除记录数
	PurgedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_purged_records_total",
			Help: "Total number of soft-deleted records permanently removed",
		},
		[]string{"table"},
	)

	// EventSubscribers 当前事件流订阅数
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quill_event_subscribers",
			Help: "Number of connected event stream subscribers",
		},
	)
)

// RecordAuthzDecision 记录一次授权判定
func RecordAuthzDecision(role, resource, action, decision string) {
	AuthzDecisionsTotal.WithLabelValues(role, resource, action, decision).Inc()
	if decision != "allow" {
		AuthzDeniedTotal.WithLabelValues(role, resource, action).Inc()
	}
}

// RecordRoleDowngrade 记录角色降级
func RecordRoleDowngrade() {
	AuthRoleDowngradesTotal.Inc()
}

// RecordAuthFailure 记录令牌校验失败
func RecordAuthFailure(reason string) {
	AuthFailuresTotal.WithLabelValues(reason).Inc()
}
