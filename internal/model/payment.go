// Package model はドメインモデルを定義する。
package model

import "time"

// Plan はサブスクリプションプランを表す。
// Priceがnilの場合は個別見積もり（enterprise）を意味する。
type Plan struct {
	Name     string   `json:"name"`
	Price    *int     `json:"price"`
	Credits  int      `json:"credits"`
	Features []string `json:"features"`
}

// SubscriptionStatus は現在のユーザーのサブスクリプション状態を表す。
type SubscriptionStatus struct {
	UserID           string   `json:"user_id"`
	Email            string   `json:"email"`
	SubscriptionTier string   `json:"subscription_tier"`
	Credits          int      `json:"credits"`
	PlanName         string   `json:"plan_name"`
	PlanFeatures     []string `json:"plan_features"`
}

// CreateOrderRequest は決済オーダー作成の送信ボディを表す。
type CreateOrderRequest struct {
	Plan string `json:"plan"`
}

// Order は決済プロバイダーのチェックアウトに必要なオーダー情報を表す。
// Amountはpaise単位（INR×100）。
type Order struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	Plan      string `json:"plan"`
	PlanName  string `json:"plan_name"`
	Credits   int    `json:"credits"`
	KeyID     string `json:"key_id"`
}

// VerifyPaymentRequest は決済完了検証の送信ボディを表す。
type VerifyPaymentRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty"`
	Plan              string `json:"plan"`
}

// VerifyPaymentResponse は決済検証の結果を表す。
type VerifyPaymentResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	SubscriptionTier string `json:"subscription_tier"`
	Credits          int    `json:"credits"`
	PaymentID        string `json:"payment_id"`
}

// PaymentRecord は決済履歴の1件を表す。
type PaymentRecord struct {
	ID           string     `json:"id"`
	Amount       int        `json:"amount"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	CreditsAdded int        `json:"credits_added"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
