package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/projman/internal/model"
)

// ProjectAPI はコントローラーが必要とするリモート操作のインターフェース。
type ProjectAPI interface {
	// Generate は生成ジョブを送信する。
	Generate(ctx context.Context, req model.GenerateRequest) (*model.GenerateResponse, error)
	// GetStatus はジョブのサーバー側状態を取得する。
	GetStatus(ctx context.Context, jobID string) (*model.Job, error)
	// GetDownload は完成物の取得先を取得する。
	GetDownload(ctx context.Context, jobID string) (*model.DownloadReference, error)
}

// MetricsRecorder はポーリングメトリクス収集のインターフェース。
type MetricsRecorder interface {
	RecordPollAttempt()
	RecordPollFailure()
	RecordJobOutcome(status string)
}

// pollResult は1回のポーリングの結果を世代タグ付きで保持する。
type pollResult struct {
	gen uint64
	job *model.Job
	err error
}

// applyOutcome はポーリング結果適用の分類。
type applyOutcome int

const (
	// applyDiscarded は古い世代・停止後の結果を捨てたことを示す。
	applyDiscarded applyOutcome = iota
	// applyFailure はトランスポート失敗を記録したことを示す。
	applyFailure
	// applyProgress は非終端ステータスを適用したことを示す。
	applyProgress
	// applyTerminal は終端ステータスを適用したことを示す。
	applyTerminal
)

// Controller は単一ジョブのライフサイクルを駆動する。
//
//	SUBMITTING -> POLLING -> COMPLETED -> DOWNLOAD_READY
//	                      \-> FAILED
//	SUBMITTING -> SUBMIT_FAILED
//
// サーバー側ステータスが正であり、コントローラーはそれを再取得して
// クライアント側の状態遷移に写すのみ。終端ステータスは吸収状態であり、
// 観測した時点でポーリングを停止する。
type Controller struct {
	api     ProjectAPI
	policy  PollPolicy
	metrics MetricsRecorder
	logger  *slog.Logger

	mu                  sync.Mutex
	phase               Phase
	jobID               string
	job                 *model.Job
	download            *model.DownloadReference
	downloadFetched     bool
	latestGen           uint64
	consecutiveFailures int
}

// NewController はControllerの新しいインスタンスを生成する。
// policy.Intervalが0以下の場合はデフォルトポリシーの間隔を使用する。
// metricsはnilを許容する。
func NewController(api ProjectAPI, policy PollPolicy, metrics MetricsRecorder, logger *slog.Logger) *Controller {
	if policy.Interval <= 0 {
		policy.Interval = DefaultPollPolicy().Interval
	}
	return &Controller{
		api:     api,
		policy:  policy,
		metrics: metrics,
		logger:  logger,
		phase:   PhaseIdle,
	}
}

// Submit は生成ジョブを送信し、受理されたジョブIDを返す。
// クレジットの事前チェックは呼び出し元（プレゼンテーション層）の責務であり、
// 最終的な拒否判断はリモートサービスが行う。
func (c *Controller) Submit(ctx context.Context, req model.GenerateRequest) (string, error) {
	c.mu.Lock()
	c.phase = PhaseSubmitting
	c.mu.Unlock()

	resp, err := c.api.Generate(ctx, req)
	if err != nil {
		c.mu.Lock()
		c.phase = PhaseSubmitFailed
		c.mu.Unlock()
		c.logger.Error("ジョブの送信に失敗しました",
			slog.String("subject", req.Subject),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	c.mu.Lock()
	c.jobID = resp.JobID
	c.phase = PhasePolling
	c.mu.Unlock()

	c.logger.Info("ジョブを送信しました",
		slog.String("job_id", resp.JobID),
		slog.String("subject", req.Subject),
	)
	return resp.JobID, nil
}

// Attach は既存ジョブをポーリング対象として設定する。
// 別プロセスで送信済みのジョブを監視する場合に使用する。
func (c *Controller) Attach(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobID = jobID
	c.phase = PhasePolling
}

// Watch は終端ステータスを観測するまでポーリングを継続し、最終スナップショットを返す。
// コンテキストのキャンセルで停止する（消費側のティアダウンに相当）。
// 停止後に到着した応答は状態を変更しない。
// completedを観測した場合はダウンロード参照を1回だけ取得する。
func (c *Controller) Watch(ctx context.Context) (*model.Job, error) {
	c.mu.Lock()
	if c.jobID == "" {
		c.mu.Unlock()
		return nil, fmt.Errorf("ポーリング対象のジョブが設定されていません")
	}
	// 既に終端に達している場合はポーリングを再開しない（終端は吸収状態）
	if c.phase == PhaseCompleted || c.phase == PhaseFailed || c.phase == PhaseDownloadReady {
		job := c.job
		c.mu.Unlock()
		return job, nil
	}
	c.phase = PhasePolling
	jobID := c.jobID
	c.mu.Unlock()

	start := time.Now()
	attempts := 0
	// 停止後に到着した応答が送信側でブロックしないようバッファを持たせる
	results := make(chan pollResult, 16)

	for {
		if c.policy.MaxAttempts > 0 && attempts >= c.policy.MaxAttempts {
			c.logger.Warn("ポーリングが最大試行回数に達しました",
				slog.String("job_id", jobID),
				slog.Int("attempts", attempts),
			)
			return c.Job(), model.NewPollTimeoutError(jobID)
		}
		if c.policy.MaxElapsed > 0 && time.Since(start) >= c.policy.MaxElapsed {
			c.logger.Warn("ポーリングが経過時間上限に達しました",
				slog.String("job_id", jobID),
				slog.Duration("elapsed", time.Since(start)),
			)
			return c.Job(), model.NewPollTimeoutError(jobID)
		}

		attempts++
		c.issuePoll(ctx, jobID, results)

		// 連続失敗時は指数バックオフで次のティックを遅らせる
		delay := CalculateBackoff(c.policy.Interval, c.failures())
		timer := time.NewTimer(delay)

	waiting:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return c.Job(), ctx.Err()

			case res := <-results:
				switch c.apply(res) {
				case applyTerminal:
					timer.Stop()
					job := c.Job()
					if job.Status == model.JobStatusCompleted {
						if _, err := c.fetchDownload(ctx); err != nil {
							c.logger.Error("ダウンロード参照の取得に失敗しました",
								slog.String("job_id", jobID),
								slog.String("error", err.Error()),
							)
						}
					}
					return job, nil

				case applyFailure:
					if c.policy.MaxConsecutiveFailures > 0 && c.failures() >= c.policy.MaxConsecutiveFailures {
						timer.Stop()
						c.logger.Error("連続トランスポート失敗が上限に達したためポーリングを打ち切ります",
							slog.String("job_id", jobID),
							slog.Int("consecutive_failures", c.failures()),
						)
						return c.Job(), model.NewPollTimeoutError(jobID)
					}
					// 次のティックで再試行する（一時的な失敗では諦めない）

				default:
					// 非終端の適用、または古い世代の破棄。次のティックを待つ
				}

			case <-timer.C:
				break waiting
			}
		}
	}
}

// issuePoll は世代タグを発行して非同期に1回のステータス取得を行う。
func (c *Controller) issuePoll(ctx context.Context, jobID string, results chan<- pollResult) {
	c.mu.Lock()
	c.latestGen++
	gen := c.latestGen
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordPollAttempt()
	}

	go func() {
		job, err := c.api.GetStatus(ctx, jobID)
		select {
		case results <- pollResult{gen: gen, job: job, err: err}:
		default:
			// 消費側が停止済みの場合は応答を捨てる
		}
	}()
}

// apply はポーリング結果をコントローラー状態へ適用する。
// 最新世代以外の結果（追い越された要求の応答）と終端観測後の結果は破棄し、
// 表示ステータスが新しい観測から古い観測へ逆行しないことを保証する。
func (c *Controller) apply(res pollResult) applyOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhasePolling {
		return applyDiscarded
	}
	if res.gen != c.latestGen {
		c.logger.Debug("古い世代のポーリング応答を破棄します",
			slog.Uint64("gen", res.gen),
			slog.Uint64("latest_gen", c.latestGen),
		)
		return applyDiscarded
	}

	if res.err != nil {
		// 一時的な失敗は握りつぶして継続する（回数はWatch側で上限判定）
		c.consecutiveFailures++
		if c.metrics != nil {
			c.metrics.RecordPollFailure()
		}
		c.logger.Warn("ステータス取得に失敗しました。次のティックで再試行します",
			slog.String("job_id", c.jobID),
			slog.Int("consecutive_failures", c.consecutiveFailures),
			slog.String("error", res.err.Error()),
		)
		return applyFailure
	}

	c.consecutiveFailures = 0
	c.job = res.job

	if res.job.Status.IsTerminal() {
		if res.job.Status == model.JobStatusCompleted {
			c.phase = PhaseCompleted
		} else {
			c.phase = PhaseFailed
		}
		if c.metrics != nil {
			c.metrics.RecordJobOutcome(string(res.job.Status))
		}
		c.logger.Info("ジョブが終端ステータスに達しました",
			slog.String("job_id", c.jobID),
			slog.String("status", string(res.job.Status)),
		)
		return applyTerminal
	}
	return applyProgress
}

// fetchDownload はダウンロード参照をコントローラーの生存期間中1回だけ取得する。
// 2回目以降の呼び出しはキャッシュを返す。
func (c *Controller) fetchDownload(ctx context.Context) (*model.DownloadReference, error) {
	c.mu.Lock()
	if c.downloadFetched {
		ref := c.download
		c.mu.Unlock()
		return ref, nil
	}
	c.downloadFetched = true
	jobID := c.jobID
	c.mu.Unlock()

	ref, err := c.api.GetDownload(ctx, jobID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.download = ref
	c.phase = PhaseDownloadReady
	c.mu.Unlock()

	c.logger.Info("ダウンロード参照を取得しました",
		slog.String("job_id", jobID),
	)
	return ref, nil
}

// Phase は現在のクライアント側状態を返す。
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Job は最後に適用されたジョブスナップショットを返す。未観測の場合はnil。
func (c *Controller) Job() *model.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// Download は取得済みのダウンロード参照を返す。未取得の場合はnil。
func (c *Controller) Download() *model.DownloadReference {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.download
}

// Progress は現在の進捗値（0-100）を返す。
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return 0
	}
	return Progress(c.job.Status)
}

// failures は現在の連続失敗回数を返す。
func (c *Controller) failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutiveFailures
}
