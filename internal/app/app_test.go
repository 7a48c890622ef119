package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hitoshi/projman/internal/model"
	"github.com/hitoshi/projman/internal/session"
)

// setupEnv はRunに必要な環境変数をテスト用に設定し、セッションファイルのパスを返す。
func setupEnv(t *testing.T, baseURL string) string {
	t.Helper()
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("API_BASE_URL", baseURL)
	t.Setenv("SESSION_FILE", sessionFile)
	t.Setenv("DOWNLOAD_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	return sessionFile
}

// seedSession は認証済みセッションをファイルに書き込む。
func seedSession(t *testing.T, path string, credits int) {
	t.Helper()
	repo := session.NewFileRepository(path)
	err := repo.Save(&session.Record{
		User:            &model.User{Email: "student@example.com", Role: model.RoleStudent, Credits: credits},
		AccessToken:     "access-token",
		RefreshToken:    "refresh-token",
		IsAuthenticated: true,
	})
	if err != nil {
		t.Fatalf("セッションの準備に失敗: %v", err)
	}
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	if err := Run(&out, nil); err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "projman") {
		t.Error("使い方が表示されていない")
	}
	if !strings.Contains(out.String(), "generate") {
		t.Error("使い方にgenerateコマンドが含まれていない")
	}
}

func TestRun_Login_PersistsCanonicalSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(model.TokenPair{
				AccessToken: "at-1", RefreshToken: "rt-1", TokenType: "bearer",
			})
		case "/api/payments/subscription":
			json.NewEncoder(w).Encode(model.SubscriptionStatus{
				Email: "student@example.com", SubscriptionTier: "free", Credits: 2, PlanName: "Free",
			})
		default:
			t.Errorf("予期しないパス: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	sessionFile := setupEnv(t, server.URL)

	var out bytes.Buffer
	err := Run(&out, []string{"login", "-email", "student@example.com", "-password", "password123"})
	if err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}

	if !strings.Contains(out.String(), "ログインしました") {
		t.Errorf("ログイン成功メッセージが表示されていない: %q", out.String())
	}

	// 単一の正規レコードとして永続化されていること
	data, err := os.ReadFile(sessionFile)
	if err != nil {
		t.Fatalf("セッションファイルが読めない: %v", err)
	}
	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("セッションレコードのパースに失敗: %v", err)
	}
	if rec.AccessToken != "at-1" || rec.RefreshToken != "rt-1" {
		t.Error("トークンが永続化されていない")
	}
	if rec.User == nil || rec.User.Email != "student@example.com" {
		t.Error("ユーザーが永続化されていない")
	}
	if !rec.IsAuthenticated {
		t.Error("is_authenticatedがtrueであるべき")
	}
}

func TestRun_Login_RejectsInvalidEmailWithoutNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	setupEnv(t, server.URL)

	var out bytes.Buffer
	err := Run(&out, []string{"login", "-email", "not-an-email", "-password", "password123"})

	assertRunErrorCode(t, err, model.ErrCodeInvalidEmail)
	if calls.Load() != 0 {
		t.Error("検証エラー時はネットワーク呼び出しを行うべきではない")
	}
}

func TestRun_Generate_InsufficientCreditsBlocksBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	sessionFile := setupEnv(t, server.URL)
	seedSession(t, sessionFile, 0)

	var out bytes.Buffer
	err := Run(&out, []string{"generate", "-subject", "Databases", "-semester", "5"})

	assertRunErrorCode(t, err, model.ErrCodeInsufficientCredits)
	if calls.Load() != 0 {
		t.Errorf("クレジット不足時はネットワーク呼び出しを行うべきではない: calls=%d", calls.Load())
	}
}

func TestRun_Generate_NoWaitSubmitsJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/generate":
			json.NewEncoder(w).Encode(model.GenerateResponse{
				JobID: "job-77", Status: model.JobStatusPending, Message: "Project generation started",
			})
		case "/api/payments/subscription":
			json.NewEncoder(w).Encode(model.SubscriptionStatus{
				Email: "student@example.com", Credits: 1,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	sessionFile := setupEnv(t, server.URL)
	seedSession(t, sessionFile, 2)

	var out bytes.Buffer
	err := Run(&out, []string{"generate", "-subject", "Databases", "-semester", "5", "-no-wait"})
	if err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "job-77") {
		t.Errorf("ジョブIDが表示されていない: %q", out.String())
	}
}

func TestRun_Generate_RequiresLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	setupEnv(t, server.URL)

	var out bytes.Buffer
	err := Run(&out, []string{"generate", "-subject", "Databases", "-semester", "5"})
	assertRunErrorCode(t, err, model.ErrCodeNotAuthenticated)
}

func TestRun_Status_ShowsCompletedJob(t *testing.T) {
	score := 0.95
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects/job-9/status" {
			t.Errorf("予期しないパス: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.Job{
			JobID: "job-9", Status: model.JobStatusCompleted,
			Title: "Library Management System", PlagiarismScore: &score,
		})
	}))
	defer server.Close()

	sessionFile := setupEnv(t, server.URL)
	seedSession(t, sessionFile, 2)

	var out bytes.Buffer
	if err := Run(&out, []string{"status", "-job", "job-9"}); err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "completed") {
		t.Errorf("ステータスが表示されていない: %q", got)
	}
	if !strings.Contains(got, "100%") {
		t.Errorf("進捗が表示されていない: %q", got)
	}
	// 類似度スコア0.95は警告閾値0.8を超える
	if !strings.Contains(got, "警告") {
		t.Errorf("類似度の警告が表示されていない: %q", got)
	}
}

func TestRun_Logout_ClearsSessionFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	sessionFile := setupEnv(t, server.URL)
	seedSession(t, sessionFile, 2)

	var out bytes.Buffer
	if err := Run(&out, []string{"logout"}); err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}

	if _, err := os.Stat(sessionFile); !errors.Is(err, os.ErrNotExist) {
		t.Error("ログアウト後はセッションファイルが削除されているべき")
	}
}

func TestRun_Whoami_NotLoggedIn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	setupEnv(t, server.URL)

	var out bytes.Buffer
	if err := Run(&out, []string{"whoami"}); err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}
	if !strings.Contains(out.String(), "ログインしていません") {
		t.Errorf("未ログインの表示がない: %q", out.String())
	}
}

func TestRun_Plans_DisplaysAllPlans(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"free": {"name": "Free", "price": 0, "credits": 2, "features": ["2 projects per month"]},
			"pro": {"name": "Pro", "price": 299, "credits": 20, "features": ["20 projects per month"]},
			"enterprise": {"name": "Enterprise", "price": null, "credits": -1, "features": ["Unlimited projects"]}
		}`))
	}))
	defer server.Close()

	setupEnv(t, server.URL)

	var out bytes.Buffer
	if err := Run(&out, []string{"plans"}); err != nil {
		t.Fatalf("Runがエラーを返した: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "₹299") {
		t.Errorf("proプランの価格が表示されていない: %q", got)
	}
	if !strings.Contains(got, "個別見積もり") {
		t.Errorf("enterpriseの個別見積もりが表示されていない: %q", got)
	}
	// free -> pro -> enterprise の順で表示される
	if strings.Index(got, "Free") > strings.Index(got, "Pro") {
		t.Error("プランの表示順が不正")
	}
}

func TestRun_MissingBaseURLFails(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	var out bytes.Buffer
	if err := Run(&out, []string{"whoami"}); err == nil {
		t.Fatal("API_BASE_URL未設定はエラーを返すべき")
	}
}

func assertRunErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatal("エラーを返すべき")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: got %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}
