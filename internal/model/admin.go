// Package model はドメインモデルを定義する。
package model

import "time"

// UsageStats は管理者向けの利用統計を表す。
type UsageStats struct {
	TotalUsers           int            `json:"total_users"`
	TotalProjects        int            `json:"total_projects"`
	CompletedProjects    int            `json:"completed_projects"`
	ProjectsByStatus     map[string]int `json:"projects_by_status"`
	RecentProjects30d    int            `json:"recent_projects_30d"`
	ProjectsByDifficulty map[string]int `json:"projects_by_difficulty"`
}

// AuditLog は監査ログの1件を表す。
type AuditLog struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
