package model

import "time"

// AuditAction values match audit_logs.action_type.
type AuditAction string

const (
	AuditCreate        AuditAction = "Create"
	AuditUpdate        AuditAction = "Update"
	AuditDelete        AuditAction = "Delete"
	AuditLogin         AuditAction = "Login"
	AuditFailedLogin   AuditAction = "Failed Login"
	AuditLogout        AuditAction = "Logout"
	AuditPasswordReset AuditAction = "Password Reset"
)

type AuditEntry struct {
	ID         int64       `json:"id"`
	UserID     *int64      `json:"user_id,omitempty"`
	Action     AuditAction `json:"action_type"`
	TableName  string      `json:"table_name"`
	RecordID   int64       `json:"record_id"`
	OldValue   any         `json:"old_value,omitempty"`
	NewValue   any         `json:"new_value,omitempty"`
	IPAddress  string      `json:"ip_address,omitempty"`
	OccurredAt time.Time   `json:"created_at"`
}

type AuditQuery struct {
	ListQuery
	Action string
	UserID *int64
	Table  string
	From   *time.Time
	To     *time.Time
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}
