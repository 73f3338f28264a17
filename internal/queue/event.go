// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit event kinds published by the access-control subsystem.
const (
	EventUserRegistered  = "user.registered"
	EventLoginSucceeded  = "user.login"
	EventLoginFailed     = "user.login_failed"
	EventQuotaExceeded   = "quota.exceeded"
	EventMemberChanged   = "workspace.member_changed"
	EventAccountDisabled = "user.disabled"
)

// AuditEvent is published whenever something security-relevant happens:
// registrations, logins, failed logins, quota trips. Downstream consumers
// can alert or archive without querying the primary database.
type AuditEvent struct {
	Kind   string `json:"kind"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	IP     string `json:"ip,omitempty"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"` // RFC 3339 UTC, filled by the publisher
}
