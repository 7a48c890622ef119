package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusProcessing, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestJob_HasPlagiarismWarning(t *testing.T) {
	high := 0.85
	low := 0.3

	j := &Job{Status: JobStatusCompleted, PlagiarismScore: &high}
	if !j.HasPlagiarismWarning() {
		t.Error("スコア0.85は警告対象のはず")
	}

	j = &Job{Status: JobStatusCompleted, PlagiarismScore: &low}
	if j.HasPlagiarismWarning() {
		t.Error("スコア0.3は警告対象ではないはず")
	}

	j = &Job{Status: JobStatusCompleted}
	if j.HasPlagiarismWarning() {
		t.Error("スコア未設定は警告対象ではないはず")
	}

	// completed以外ではスコアがあっても警告しない
	j = &Job{Status: JobStatusProcessing, PlagiarismScore: &high}
	if j.HasPlagiarismWarning() {
		t.Error("completed以外のステータスでは警告対象ではないはず")
	}
}

func TestJob_DecodesRemoteStatusResponse(t *testing.T) {
	// バックエンドのProjectStatusResponseと同じフィールド名で復号できること
	raw := `{
		"job_id": "abc-123",
		"status": "failed",
		"error_message": "model timeout",
		"created_at": "2024-01-01T00:00:00Z"
	}`

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("Jobの復号に失敗した: %v", err)
	}

	if job.JobID != "abc-123" {
		t.Errorf("JobID = %q, want %q", job.JobID, "abc-123")
	}
	if job.Status != JobStatusFailed {
		t.Errorf("Status = %q, want %q", job.Status, JobStatusFailed)
	}
	if job.ErrorMessage != "model timeout" {
		t.Errorf("ErrorMessage = %q, want %q", job.ErrorMessage, "model timeout")
	}
	if job.CompletedAt != nil {
		t.Error("completed_at未設定の場合はnilであるべき")
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !job.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", job.CreatedAt, want)
	}
}
