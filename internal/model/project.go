// Package model はドメインモデルを定義する。
package model

import "time"

// JobStatus は生成ジョブのステータスを表す。
// リモートサービスが正であり、クライアントはポーリングで再取得するのみ。
type JobStatus string

const (
	// JobStatusPending はキュー待ち状態。
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing は生成処理中状態。
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted は生成完了状態（終端）。
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed は生成失敗状態（終端）。
	JobStatusFailed JobStatus = "failed"
)

// IsTerminal はステータスが終端（completed/failed）かどうかを返す。
// 終端ステータスは吸収状態であり、以降の遷移は発生しない。
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// 生成難易度
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// PlagiarismWarnThreshold はこの値を超える類似度スコアで警告を表示する閾値。
const PlagiarismWarnThreshold = 0.8

// GenerateRequest はプロジェクト生成の送信ボディを表す。
type GenerateRequest struct {
	Subject                string `json:"subject"`
	Semester               int    `json:"semester"`
	Difficulty             string `json:"difficulty"`
	AdditionalRequirements string `json:"additional_requirements,omitempty"`
}

// GenerateResponse は生成ジョブ受理時のレスポンスを表す。
type GenerateResponse struct {
	JobID   string    `json:"job_id"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// Job は生成ジョブのサーバー側状態のスナップショットを表す。
// completed_atは終端ステータスでのみ、error_messageはfailedでのみ、
// plagiarism_score/warningsはcompletedでのみ設定される。
type Job struct {
	JobID              string         `json:"job_id"`
	Status             JobStatus      `json:"status"`
	Title              string         `json:"title,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	PlagiarismScore    *float64       `json:"plagiarism_score,omitempty"`
	PlagiarismWarnings map[string]any `json:"plagiarism_warnings,omitempty"`
}

// HasPlagiarismWarning は警告閾値を超える類似度スコアを持つかどうかを返す。
func (j *Job) HasPlagiarismWarning() bool {
	return j.Status == JobStatusCompleted &&
		j.PlagiarismScore != nil &&
		*j.PlagiarismScore > PlagiarismWarnThreshold
}

// Preview は生成済みプロジェクトのプレビューを表す。
// abstractやモジュール説明はモデル生成テキストのためHTMLが混入しうる。
// 表示前にサニタイズすること。
type Preview struct {
	JobID        string           `json:"job_id"`
	Title        string           `json:"title"`
	Abstract     string           `json:"abstract"`
	Keywords     []string         `json:"keywords"`
	Modules      []map[string]any `json:"modules"`
	Difficulty   string           `json:"difficulty"`
	TimelineDays int              `json:"timeline_days"`
}

// DownloadReference は完成物ZIPの取得先を表す。
// zip_urlはジョブがcompletedに達した後にのみ有効。
type DownloadReference struct {
	JobID     string `json:"job_id"`
	ZipURL    string `json:"zip_url"`
	ExpiresIn int    `json:"expires_in"`
}

// HistoryItem はジョブ履歴の1件を表す。
type HistoryItem struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	Title       string     `json:"title,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
