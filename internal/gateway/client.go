// Package gateway はリモートサービスへの単一の送信境界を提供する。
// 全ての外向きリクエストはここを経由し、Bearerトークンの付与と
// 認可失敗（401）の一元処理を行う。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/projman/internal/model"
)

// TokenSource はセッションストアのうちゲートウェイが必要とする操作のインターフェース。
// ゲートウェイはセッションを読むだけで、変更は401時のLogoutのみ。
type TokenSource interface {
	// AccessToken は現在のアクセストークンを返す。未ログイン時は空文字列。
	AccessToken() string
	// Logout はセッションを破棄する。
	Logout()
}

// MetricsRecorder はリクエストメトリクス収集のインターフェース。
type MetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordTransportFailure()
}

// Client はリモートサービスのHTTP APIクライアント。
// タイムアウトは注入されたhttp.Clientの設定をそのまま継承する。
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	metrics    MetricsRecorder
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// limiterとmetricsはnilを許容する（レート制限・計測なしで動作する）。
func NewClient(
	baseURL string,
	httpClient *http.Client,
	tokens TokenSource,
	limiter *rate.Limiter,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
	}
}

// remoteErrorBody はリモートサービスのエラーレスポンスボディ。
// detailは文字列以外の構造が入る場合もある。
type remoteErrorBody struct {
	Detail any `json:"detail"`
}

// send はリクエストを1回送信し、成功時はoutへレスポンスJSONを復号する。
// トークンがあればBearerヘッダーを付与し、無ければ未認証のまま送信する。
// 401を受けた場合はセッションを破棄して認可エラーを返す。
// トークンリフレッシュは将来の拡張ポイントであり、現状は常にログアウトする。
// 401以外のリトライは行わない（ポーリング系のリトライは呼び出し元の責務）。
func (c *Client) send(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.NewTransportError(err)
		}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Projman/1.0 CLI")
	req.Header.Set("X-Request-ID", uuid.New().String())

	if token := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordTransportFailure()
		}
		c.logger.Error("HTTPリクエストに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return model.NewTransportError(err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordHTTPStatus(resp.StatusCode)
		c.metrics.RecordRequestLatency(time.Since(start))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("認可エラーを受信したためセッションを破棄します",
			slog.String("method", method),
			slog.String("path", path),
		)
		c.tokens.Logout()
		return model.NewSessionExpiredError()
	}

	if resp.StatusCode >= 400 {
		detail := decodeErrorDetail(resp.Body)
		c.logger.Warn("リモートサービスがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("detail", detail),
		)
		return model.NewRemoteError(resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
		}
	}
	return nil
}

// decodeErrorDetail はエラーレスポンスのdetailフィールドを文字列として取り出す。
// ボディが読めない、またはdetailが無い場合は空文字列を返す。
func decodeErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return ""
	}

	var body remoteErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	switch d := body.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		// バリデーションエラー等で構造化detailが返る場合はJSONのまま表示する
		raw, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
