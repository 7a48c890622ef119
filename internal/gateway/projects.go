package gateway

import (
	"context"
	"net/http"

	"github.com/hitoshi/projman/internal/model"
)

// Generate は生成ジョブを送信する。
// POST /api/projects/generate
// クレジット不足の場合、リモートは402を返す（クライアント側キャッシュより
// リモートが常に正）。
func (c *Client) Generate(ctx context.Context, req model.GenerateRequest) (*model.GenerateResponse, error) {
	var resp model.GenerateResponse
	if err := c.send(ctx, http.MethodPost, "/api/projects/generate", req, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus はジョブのサーバー側状態を取得する。
// GET /api/projects/{jobId}/status
func (c *Client) GetStatus(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	if err := c.send(ctx, http.MethodGet, "/api/projects/"+jobID+"/status", nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetPreview は生成済みプロジェクトのプレビューを取得する。
// GET /api/projects/{jobId}/preview
// ジョブがcompletedに達する前は400が返る。
func (c *Client) GetPreview(ctx context.Context, jobID string) (*model.Preview, error) {
	var preview model.Preview
	if err := c.send(ctx, http.MethodGet, "/api/projects/"+jobID+"/preview", nil, nil, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// GetDownload は完成物ZIPの取得先を取得する。
// GET /api/projects/{jobId}/download
func (c *Client) GetDownload(ctx context.Context, jobID string) (*model.DownloadReference, error) {
	var ref model.DownloadReference
	if err := c.send(ctx, http.MethodGet, "/api/projects/"+jobID+"/download", nil, nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// GetHistory は現在のユーザーのジョブ履歴を取得する。
// GET /api/projects/history
func (c *Client) GetHistory(ctx context.Context) ([]model.HistoryItem, error) {
	var items []model.HistoryItem
	if err := c.send(ctx, http.MethodGet, "/api/projects/history", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
