package gateway

import (
	"context"
	"net/http"

	"github.com/hitoshi/projman/internal/model"
)

// registerRequest はユーザー登録の送信ボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインの送信ボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleAuthRequest はGoogle認証の送信ボディ。credentialはGoogleのIDトークン。
type googleAuthRequest struct {
	Credential string `json:"credential"`
}

// onboardResponse はオンボーディング完了のレスポンス。
type onboardResponse struct {
	Message string `json:"message"`
}

// Register は新規ユーザーを登録し、トークンペアを取得する。
// POST /api/auth/register
func (c *Client) Register(ctx context.Context, email, password string) (*model.TokenPair, error) {
	var tokens model.TokenPair
	err := c.send(ctx, http.MethodPost, "/api/auth/register",
		registerRequest{Email: email, Password: password}, nil, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Login はメールアドレスとパスワードでログインし、トークンペアを取得する。
// POST /api/auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	var tokens model.TokenPair
	err := c.send(ctx, http.MethodPost, "/api/auth/login",
		loginRequest{Email: email, Password: password}, nil, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// GoogleAuth はGoogleのIDトークンを認証交換し、トークンペアを取得する。
// POST /api/auth/google
func (c *Client) GoogleAuth(ctx context.Context, credential string) (*model.TokenPair, error) {
	var tokens model.TokenPair
	err := c.send(ctx, http.MethodPost, "/api/auth/google",
		googleAuthRequest{Credential: credential}, nil, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Onboard はオンボーディングでプロフィール項目を更新する。
// POST /api/auth/onboard
func (c *Client) Onboard(ctx context.Context, req model.OnboardRequest) (string, error) {
	var resp onboardResponse
	if err := c.send(ctx, http.MethodPost, "/api/auth/onboard", req, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
