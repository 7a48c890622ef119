package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestLoginURL_ContainsRequiredParams(t *testing.T) {
	p := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:    "client-123",
		RedirectURL: "http://127.0.0.1:8910/callback",
	})

	loginURL := p.LoginURL("state-abc")

	parsed, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("認可URLがパースできない: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client-123" {
		t.Errorf("client_id = %q, want client-123", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://127.0.0.1:8910/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q, want code", q.Get("response_type"))
	}
	if q.Get("state") != "state-abc" {
		t.Errorf("state = %q, want state-abc", q.Get("state"))
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Errorf("scopeにemailが含まれていない: %q", q.Get("scope"))
	}
}

func TestExchangeCredential_ReturnsIDToken(t *testing.T) {
	var gotGrantType, gotCode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("フォームのパースに失敗: %v", err)
		}
		gotGrantType = r.FormValue("grant_type")
		gotCode = r.FormValue("code")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     "idtoken-456",
		})
	}))
	defer server.Close()

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:     "client-123",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8910/callback",
		TokenURL:     server.URL,
	})

	credential, err := p.ExchangeCredential(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCredentialがエラーを返した: %v", err)
	}
	if credential != "idtoken-456" {
		t.Errorf("credential = %q, want idtoken-456", credential)
	}
	if gotGrantType != "authorization_code" {
		t.Errorf("grant_type = %q, want authorization_code", gotGrantType)
	}
	if gotCode != "auth-code" {
		t.Errorf("code = %q, want auth-code", gotCode)
	}
}

func TestExchangeCredential_MissingIDToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-123"})
	}))
	defer server.Close()

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{TokenURL: server.URL})

	if _, err := p.ExchangeCredential(context.Background(), "auth-code"); err == nil {
		t.Fatal("id_tokenが無いレスポンスはエラーを返すべき")
	}
}

func TestExchangeCredential_TokenEndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	p := NewGoogleOAuthProvider(GoogleOAuthConfig{TokenURL: server.URL})

	if _, err := p.ExchangeCredential(context.Background(), "expired-code"); err == nil {
		t.Fatal("トークンエンドポイントのエラーはエラーを返すべき")
	}
}
