package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// callbackResult はコールバックで受け取った結果。
type callbackResult struct {
	code string
	err  error
}

// CallbackServer はGoogle OAuthのリダイレクトを受けるループバックHTTPサーバー。
// 127.0.0.1でのみ待ち受け、stateパラメータの一致を検証する。
// stateが一致しないリクエストは拒否して待ち受けを継続する。
type CallbackServer struct {
	state   string
	logger  *slog.Logger
	results chan callbackResult
	srv     *http.Server
	addr    string
}

// NewCallbackServer はCallbackServerを生成する。
// stateはCSRF対策としてリクエストごとにランダムに生成される。
func NewCallbackServer(logger *slog.Logger) *CallbackServer {
	return &CallbackServer{
		state:   uuid.NewString(),
		logger:  logger,
		results: make(chan callbackResult, 1),
	}
}

// State は認可URLに埋め込むstateパラメータを返す。
func (s *CallbackServer) State() string {
	return s.state
}

// RedirectURL はコールバックのリダイレクトURLを返す。Startの後に呼ぶこと。
func (s *CallbackServer) RedirectURL() string {
	return fmt.Sprintf("http://%s/callback", s.addr)
}

// Start は指定ポートでループバックサーバーを起動する。
// portが空または"0"の場合はエフェメラルポートを使用する。
func (s *CallbackServer) Start(port string) error {
	if port == "" {
		port = "0"
	}
	ln, err := net.Listen("tcp", "127.0.0.1:"+port)
	if err != nil {
		return fmt.Errorf("コールバックサーバーの起動に失敗: %w", err)
	}
	s.addr = ln.Addr().String()

	r := chi.NewRouter()
	r.Get("/callback", s.handleCallback)

	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("コールバックサーバーが異常終了しました", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("コールバックサーバーを起動しました", slog.String("addr", s.addr))
	return nil
}

// handleCallback はGoogleからのリダイレクトを処理する。
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		s.deliver(callbackResult{err: fmt.Errorf("認可が拒否されました: %s", errParam)})
		http.Error(w, "authorization denied", http.StatusBadRequest)
		return
	}

	if q.Get("state") != s.state {
		// stateの不一致は攻撃の可能性があるため、結果を確定せずに待ち受けを継続する
		s.logger.Warn("stateパラメータが一致しないコールバックを拒否しました",
			slog.String("remote_addr", r.RemoteAddr),
		)
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: fmt.Errorf("認可コードが含まれていません")})
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	s.deliver(callbackResult{code: code})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><p>認証が完了しました。このタブを閉じてターミナルに戻ってください。</p></body></html>")
}

// deliver は最初の確定結果のみを通知する。
func (s *CallbackServer) deliver(res callbackResult) {
	select {
	case s.results <- res:
	default:
	}
}

// WaitForCode はコールバックの到着を待ち、認可コードを返す。
// コンテキストのキャンセルまたはタイムアウトで中断する。
func (s *CallbackServer) WaitForCode(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("認可コードの待機が中断されました: %w", ctx.Err())
	case res := <-s.results:
		if res.err != nil {
			return "", res.err
		}
		return res.code, nil
	}
}

// Shutdown はサーバーを停止する。
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
