// Package job は生成ジョブの送信からポーリング、ダウンロード準備までの
// ライフサイクル制御を提供する。
package job

import "github.com/hitoshi/projman/internal/model"

// Phase はコントローラーのクライアント側状態を表す。
// サーバー側のジョブステータスとは別に、送信・ポーリング・終端の遷移を追跡する。
type Phase string

const (
	// PhaseIdle は送信前の初期状態。
	PhaseIdle Phase = "idle"
	// PhaseSubmitting は送信リクエストの実行中状態。
	PhaseSubmitting Phase = "submitting"
	// PhaseSubmitFailed は送信失敗の終端状態。
	PhaseSubmitFailed Phase = "submit_failed"
	// PhasePolling はステータスポーリング中状態。
	PhasePolling Phase = "polling"
	// PhaseCompleted はcompletedを観測した終端状態。
	PhaseCompleted Phase = "completed"
	// PhaseDownloadReady はダウンロード参照の取得まで完了した状態。
	PhaseDownloadReady Phase = "download_ready"
	// PhaseFailed はfailedを観測した終端状態。
	PhaseFailed Phase = "failed"
)

// Progress はジョブステータスをプレゼンテーション層向けの進捗値に変換する。
func Progress(status model.JobStatus) int {
	switch status {
	case model.JobStatusPending:
		return 10
	case model.JobStatusProcessing:
		return 50
	case model.JobStatusCompleted:
		return 100
	default:
		return 0
	}
}

// StatusMessage はジョブステータスをユーザー向けメッセージに変換する。
func StatusMessage(status model.JobStatus) string {
	switch status {
	case model.JobStatusPending:
		return "ジョブはキューで待機中です..."
	case model.JobStatusProcessing:
		return "AIがプロジェクトを生成しています..."
	case model.JobStatusCompleted:
		return "プロジェクトの生成が完了しました！"
	case model.JobStatusFailed:
		return "プロジェクトの生成に失敗しました"
	default:
		return "処理中..."
	}
}
