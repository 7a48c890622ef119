package download

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hitoshi/projman/internal/model"
)

// fakeValidator はURLValidatorのテスト用実装。
// safeurlのクライアントはループバックをブロックするため、
// httptestサーバーに対するテストでは標準クライアントと組み合わせて使用する。
type fakeValidator struct {
	err error
}

func (f *fakeValidator) ValidateURL(string) error { return f.err }

func newTestDownloader(t *testing.T, maxSize int64, validator URLValidator) *Downloader {
	t.Helper()
	var buf bytes.Buffer
	return &Downloader{
		validator:  validator,
		httpClient: http.DefaultClient,
		maxSize:    maxSize,
		dir:        t.TempDir(),
		logger:     slog.New(slog.NewJSONHandler(&buf, nil)),
	}
}

func TestDownloader_Fetch_SavesZip(t *testing.T) {
	content := []byte("PK\x03\x04fake zip content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	d := newTestDownloader(t, 1024, &fakeValidator{})
	ref := &model.DownloadReference{JobID: "job-1", ZipURL: server.URL + "/bundle.zip", ExpiresIn: 604800}

	path, err := d.Fetch(context.Background(), ref, "Library Management System")
	if err != nil {
		t.Fatalf("Fetchがエラーを返した: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("保存されたファイルが読めない: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("保存された内容がレスポンスボディと一致しない")
	}
	if filepath.Base(path) != "library-management-system.zip" {
		t.Errorf("ファイル名 = %q, want library-management-system.zip", filepath.Base(path))
	}
}

func TestDownloader_Fetch_BlockedURLReturnsSSRFError(t *testing.T) {
	d := newTestDownloader(t, 1024, &fakeValidator{err: errors.New("blocked IP address: 169.254.169.254")})
	ref := &model.DownloadReference{JobID: "job-1", ZipURL: "https://169.254.169.254/bundle.zip"}

	_, err := d.Fetch(context.Background(), ref, "title")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: got %v", err)
	}
	if apiErr.Code != model.ErrCodeSSRFBlocked {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeSSRFBlocked)
	}
}

func TestDownloader_Fetch_NilReferenceReturnsNotReady(t *testing.T) {
	d := newTestDownloader(t, 1024, &fakeValidator{})

	_, err := d.Fetch(context.Background(), nil, "title")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: got %v", err)
	}
	if apiErr.Code != model.ErrCodeDownloadNotReady {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDownloadNotReady)
	}
}

func TestDownloader_Fetch_OversizedResponseAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 2048))
	}))
	defer server.Close()

	d := newTestDownloader(t, 1024, &fakeValidator{})
	ref := &model.DownloadReference{JobID: "job-1", ZipURL: server.URL + "/big.zip"}

	_, err := d.Fetch(context.Background(), ref, "title")
	if err == nil {
		t.Fatal("サイズ超過はエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "上限") {
		t.Errorf("サイズ超過エラーのメッセージが不正: %v", err)
	}

	// 部分的なファイルが残っていないこと
	entries, readErr := os.ReadDir(d.dir)
	if readErr != nil {
		t.Fatalf("ディレクトリが読めない: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("中断後にファイルが残っている: %v", entries)
	}
}

func TestDownloader_Fetch_Non200ReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 署名付きURLの期限切れを想定
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	d := newTestDownloader(t, 1024, &fakeValidator{})
	ref := &model.DownloadReference{JobID: "job-1", ZipURL: server.URL + "/expired.zip"}

	if _, err := d.Fetch(context.Background(), ref, "title"); err == nil {
		t.Fatal("200以外のステータスはエラーを返すべき")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		jobID string
		want  string
	}{
		{"英語タイトル", "Library Management System", "j1", "library-management-system.zip"},
		{"記号を含むタイトル", "E-Commerce (v2)!", "j1", "e-commerce-v2.zip"},
		{"空タイトルはジョブIDへフォールバック", "", "job-42", "project-job-42.zip"},
		{"記号のみのタイトルもフォールバック", "!!!", "job-42", "project-job-42.zip"},
		{"非ASCII文字はハイフンに置換", "図書館管理システム v1", "j1", "v1.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.title, tt.jobID); got != tt.want {
				t.Errorf("FileName(%q, %q) = %q, want %q", tt.title, tt.jobID, got, tt.want)
			}
		})
	}
}
