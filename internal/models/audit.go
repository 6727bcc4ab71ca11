package models

import (
	"encoding/json"
	"time"
)

// AuditLog records a successful mutation for traceability.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     *string         `db:"user_id" json:"user_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	UserAgent  string          `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// DashboardSummary is the role-shaped set of counts backing each dashboard.
type DashboardSummary struct {
	Role   Role           `json:"role"`
	Counts map[string]int `json:"counts"`
}
