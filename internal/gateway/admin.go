package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hitoshi/projman/internal/model"
)

// GetUsageStats は管理者向けの利用統計を取得する。
// GET /api/admin/usage
// 管理者ロール以外ではリモートが403を返す。
func (c *Client) GetUsageStats(ctx context.Context) (*model.UsageStats, error) {
	var stats model.UsageStats
	if err := c.send(ctx, http.MethodGet, "/api/admin/usage", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetAuditLogs は監査ログを新しい順に取得する。
// GET /api/admin/audit-logs?limit=
// limitが0以下の場合はリモートのデフォルト件数に任せる。
func (c *Client) GetAuditLogs(ctx context.Context, limit int) ([]model.AuditLog, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var logs []model.AuditLog
	if err := c.send(ctx, http.MethodGet, "/api/admin/audit-logs", nil, params, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
