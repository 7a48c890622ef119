// Package app はCLIのエントリーポイントと依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/projman/internal/config"
	"github.com/hitoshi/projman/internal/download"
	"github.com/hitoshi/projman/internal/gateway"
	"github.com/hitoshi/projman/internal/job"
	"github.com/hitoshi/projman/internal/logger"
	"github.com/hitoshi/projman/internal/metrics"
	"github.com/hitoshi/projman/internal/security"
	"github.com/hitoshi/projman/internal/session"
)

// App は全コマンドが共有する依存関係を保持する。
type App struct {
	cfg        *config.Config
	store      *session.Store
	client     *gateway.Client
	collector  *metrics.Collector
	registry   *prometheus.Registry
	downloader *download.Downloader
	sanitizer  security.PreviewSanitizerService
	out        io.Writer
}

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// ログはコマンド出力と混ざらないようstderrへ出力する。
func Init() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(os.Stderr, cfg.LogLevel)

	return cfg, nil
}

// newApp は依存関係をワイヤリングしてAppを生成する。
func newApp(cfg *config.Config, out io.Writer) *App {
	// 1. セッションストア（単一の正規レコード）
	repo := session.NewFileRepository(cfg.SessionFile)
	store := session.NewStore(repo, slog.Default())

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. APIゲートウェイ（送信レート制限付き）
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMin)/60.0), cfg.RateLimitBurst)
	client := gateway.NewClient(
		cfg.APIBaseURL,
		&http.Client{Timeout: cfg.HTTPTimeout},
		store,
		limiter,
		collector,
		slog.Default(),
	)

	// 4. ダウンローダー（SSRF防止付き）
	guard := security.NewURLGuard()
	downloader := download.NewDownloader(guard, cfg.HTTPTimeout, cfg.DownloadMaxSize, cfg.DownloadDir, slog.Default())

	return &App{
		cfg:        cfg,
		store:      store,
		client:     client,
		collector:  collector,
		registry:   registry,
		downloader: downloader,
		sanitizer:  security.NewPreviewSanitizer(),
		out:        out,
	}
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応する処理を実行する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// help は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHelp {
		printUsage(w)
		return nil
	}

	cfg, err := Init()
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Debug("starting command",
		slog.String("command", string(cmd)),
		slog.String("base_url", cfg.APIBaseURL),
	)

	a := newApp(cfg, w)

	// 認可判断の前に必ず永続化レコードを読み込む
	a.store.Hydrate()

	// SIGINT/SIGTERMでポーリング等の長時間処理を中断できるようにする
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rest := args[1:]

	switch cmd {
	case CommandRegister:
		return a.runRegister(ctx, rest)
	case CommandLogin:
		return a.runLogin(ctx, rest)
	case CommandGoogleLogin:
		return a.runGoogleLogin(ctx, rest)
	case CommandOnboard:
		return a.runOnboard(ctx, rest)
	case CommandLogout:
		return a.runLogout(ctx, rest)
	case CommandWhoami:
		return a.runWhoami(ctx, rest)
	case CommandGenerate:
		return a.runGenerate(ctx, rest)
	case CommandStatus:
		return a.runStatus(ctx, rest)
	case CommandWatch:
		return a.runWatch(ctx, rest)
	case CommandPreview:
		return a.runPreview(ctx, rest)
	case CommandDownload:
		return a.runDownload(ctx, rest)
	case CommandHistory:
		return a.runHistory(ctx, rest)
	case CommandPlans:
		return a.runPlans(ctx, rest)
	case CommandSubscription:
		return a.runSubscription(ctx, rest)
	case CommandUpgrade:
		return a.runUpgrade(ctx, rest)
	case CommandPayments:
		return a.runPayments(ctx, rest)
	case CommandUsage:
		return a.runUsage(ctx, rest)
	case CommandAuditLogs:
		return a.runAuditLogs(ctx, rest)
	default:
		printUsage(w)
		return nil
	}
}

// pollPolicy は設定からポーリングポリシーを組み立てる。
func (a *App) pollPolicy() job.PollPolicy {
	return job.PollPolicy{
		Interval:               a.cfg.PollInterval,
		MaxAttempts:            a.cfg.PollMaxAttempts,
		MaxElapsed:             a.cfg.PollMaxElapsed,
		MaxConsecutiveFailures: a.cfg.PollMaxFailures,
	}
}

// serveMetrics はMETRICS_ADDRが設定されている場合にPrometheusエンドポイントを起動する。
// watchやgenerateなどの長時間実行コマンドでのみ使用する。
func (a *App) serveMetrics(ctx context.Context) {
	if a.cfg.MetricsAddr == "" {
		return
	}

	srv := &http.Server{
		Addr:    a.cfg.MetricsAddr,
		Handler: metrics.SetupMetricsRoute(a.registry),
	}

	go func() {
		slog.Info("メトリクスエンドポイントを起動します", slog.String("addr", a.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("メトリクスエンドポイントが終了しました", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
}

// printUsage は使い方を表示する。
func printUsage(w io.Writer) {
	fmt.Fprint(w, `projman - AIプロジェクト生成サービスのCLIクライアント

使い方:
  projman <コマンド> [オプション]

認証:
  register       -email -password           新規登録
  login          -email -password           ログイン
  google-login                              Googleアカウントでログイン
  onboard        -college -semester -subjects -language
                                            プロフィール設定
  logout                                    ログアウト
  whoami                                    ログイン状態の表示

プロジェクト:
  generate       -subject -semester [-difficulty] [-requirements] [-no-wait]
                                            生成ジョブの送信と完了待ち
  status         -job <id>                  ステータスの取得（1回）
  watch          -job <id>                  完了までポーリング
  preview        -job <id>                  プレビューの表示
  download       -job <id>                  zipのダウンロード
  history                                   ジョブ履歴の表示

プラン・決済:
  plans                                     プラン一覧
  subscription                              サブスクリプション状態
  upgrade        -plan <name> [-payment-id <id>]
                                            アップグレード（オーダー作成／決済検証）
  payments                                  決済履歴

管理者:
  usage                                     利用統計
  audit-logs     [-limit <n>]               監査ログ

環境変数 API_BASE_URL が必須。その他の設定は .env でも指定できる。
`)
}
