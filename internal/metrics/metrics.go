// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// APIゲートウェイのリクエスト結果とジョブポーリングの進行を記録する。
// gateway.MetricsRecorderとjob.MetricsRecorderの両方を満たす。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	transportFail  prometheus.Counter
	pollAttempts   prometheus.Counter
	pollFailures   prometheus.Counter
	jobOutcomes    *prometheus.CounterVec
	downloadBytes  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "projman_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		transportFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projman_transport_fail_total",
			Help: "トランスポートレベルの失敗の合計数",
		}),
		pollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projman_poll_attempts_total",
			Help: "ステータスポーリング試行の合計数",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projman_poll_failures_total",
			Help: "ステータスポーリング失敗の合計数",
		}),
		jobOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projman_job_outcomes_total",
			Help: "終端ステータス別のジョブ数",
		}, []string{"status"}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projman_download_bytes_total",
			Help: "ダウンロードしたバンドルの合計バイト数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.transportFail,
		c.pollAttempts,
		c.pollFailures,
		c.jobOutcomes,
		c.downloadBytes,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordTransportFailure はトランスポートレベルの失敗を記録する。
func (c *Collector) RecordTransportFailure() {
	c.transportFail.Inc()
}

// RecordPollAttempt はポーリング試行を記録する。
func (c *Collector) RecordPollAttempt() {
	c.pollAttempts.Inc()
}

// RecordPollFailure はポーリング失敗を記録する。
func (c *Collector) RecordPollFailure() {
	c.pollFailures.Inc()
}

// RecordJobOutcome は終端ステータス到達を記録する。
func (c *Collector) RecordJobOutcome(status string) {
	c.jobOutcomes.WithLabelValues(status).Inc()
}

// RecordDownloadBytes はダウンロードしたバイト数を記録する。
func (c *Collector) RecordDownloadBytes(n int64) {
	c.downloadBytes.Add(float64(n))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// watchコマンドの長時間実行時にPrometheusスクレイプへ対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
