// Package download は完成したプロジェクトバンドル（zip）の取得と保存を提供する。
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/hitoshi/projman/internal/model"
	"github.com/hitoshi/projman/internal/security"
)

// URLValidator はダウンロードURLの事前検証のインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Downloader はダウンロード参照からzipファイルを取得してローカルに保存する。
// リモートサービスが返すzip_urlは信頼境界の外にあるため、
// 取得前の静的検証とDialerレベルのIP検証の両方を通す。
type Downloader struct {
	validator  URLValidator
	httpClient *http.Client
	maxSize    int64
	dir        string
	logger     *slog.Logger
}

// NewDownloader はDownloaderの新しいインスタンスを生成する。
// HTTPクライアントはguardが生成するSSRF防止付きクライアントを使用する。
func NewDownloader(guard security.URLGuardService, timeout time.Duration, maxSize int64, dir string, logger *slog.Logger) *Downloader {
	return &Downloader{
		validator:  guard,
		httpClient: guard.NewSafeClient(timeout),
		maxSize:    maxSize,
		dir:        dir,
		logger:     logger,
	}
}

// Fetch はダウンロード参照のzip_urlからファイルを取得し、保存先のパスを返す。
// レスポンスサイズがmaxSizeを超えた場合は中断してエラーを返す。
// 一時ファイルへ書き込んでからリネームするため、部分的なファイルは残らない。
func (d *Downloader) Fetch(ctx context.Context, ref *model.DownloadReference, title string) (string, error) {
	if ref == nil || ref.ZipURL == "" {
		jobID := ""
		if ref != nil {
			jobID = ref.JobID
		}
		return "", model.NewDownloadNotReadyError(jobID)
	}

	if err := d.validator.ValidateURL(ref.ZipURL); err != nil {
		d.logger.Warn("ダウンロードURLの検証に失敗しました",
			slog.String("job_id", ref.JobID),
			slog.String("error", err.Error()),
		)
		return "", model.NewSSRFBlockedError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.ZipURL, nil)
	if err != nil {
		return "", fmt.Errorf("リクエストの生成に失敗: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", model.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ダウンロードに失敗: ステータスコード %d", resp.StatusCode)
	}

	dest := filepath.Join(d.dir, FileName(title, ref.JobID))

	tmp, err := os.CreateTemp(d.dir, ".projman-download-*")
	if err != nil {
		return "", fmt.Errorf("一時ファイルの作成に失敗: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	// maxSize+1バイトまで読み、超過を検出する
	written, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("ファイルの書き込みに失敗: %w", err)
	}
	if written > d.maxSize {
		return "", fmt.Errorf("ダウンロードサイズが上限(%dバイト)を超えています", d.maxSize)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("ファイルの保存に失敗: %w", err)
	}

	d.logger.Info("プロジェクトバンドルを保存しました",
		slog.String("job_id", ref.JobID),
		slog.String("path", dest),
		slog.Int64("bytes", written),
	)
	return dest, nil
}

// FileName はジョブのタイトルから保存用ファイル名を導出する。
// 英数字以外はハイフンに置き換え、タイトルが空または記号のみの場合は
// ジョブIDベースの名前にフォールバックする。
func FileName(title, jobID string) string {
	slug := slugify(title)
	if slug == "" {
		slug = "project-" + jobID
	}
	return slug + ".zip"
}

// slugify はタイトルをファイル名に安全な形式へ変換する。
func slugify(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
