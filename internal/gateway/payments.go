package gateway

import (
	"context"
	"net/http"

	"github.com/hitoshi/projman/internal/model"
)

// GetPlans は利用可能なサブスクリプションプランの一覧を取得する。
// GET /api/payments/plans
// レスポンスはプランキー（free/pro/enterprise）をキーとするマップ。
func (c *Client) GetPlans(ctx context.Context) (map[string]model.Plan, error) {
	var plans map[string]model.Plan
	if err := c.send(ctx, http.MethodGet, "/api/payments/plans", nil, nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetSubscription は現在のユーザーのサブスクリプション状態を取得する。
// GET /api/payments/subscription
func (c *Client) GetSubscription(ctx context.Context) (*model.SubscriptionStatus, error) {
	var status model.SubscriptionStatus
	if err := c.send(ctx, http.MethodGet, "/api/payments/subscription", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateOrder は決済オーダーを作成する。
// POST /api/payments/create-order
func (c *Client) CreateOrder(ctx context.Context, plan string) (*model.Order, error) {
	var order model.Order
	err := c.send(ctx, http.MethodPost, "/api/payments/create-order",
		model.CreateOrderRequest{Plan: plan}, nil, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyPayment は決済完了を検証し、サブスクリプションを更新する。
// POST /api/payments/verify
// 決済ゲートウェイ自体は外部コラボレーターであり、このクライアントは
// オーダー作成と検証の2呼び出しのみを扱う。
func (c *Client) VerifyPayment(ctx context.Context, req model.VerifyPaymentRequest) (*model.VerifyPaymentResponse, error) {
	var resp model.VerifyPaymentResponse
	if err := c.send(ctx, http.MethodPost, "/api/payments/verify", req, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPaymentHistory は決済履歴を取得する。
// GET /api/payments/history
func (c *Client) GetPaymentHistory(ctx context.Context) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	if err := c.send(ctx, http.MethodGet, "/api/payments/history", nil, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
