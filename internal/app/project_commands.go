package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hitoshi/projman/internal/job"
	"github.com/hitoshi/projman/internal/model"
)

// runGenerate はプロジェクト生成ジョブを送信し、既定では完了までポーリングする。
func (a *App) runGenerate(ctx context.Context, args []string) error {
	fs := newFlagSet("generate", a.out)
	subject := fs.String("subject", "", "科目")
	semester := fs.Int("semester", 0, "学期（1-8、未指定時はプロフィールの値）")
	difficulty := fs.String("difficulty", model.DifficultyIntermediate, "難易度（Beginner/Intermediate/Advanced）")
	requirements := fs.String("requirements", "", "追加要件")
	noWait := fs.Bool("no-wait", false, "送信のみ行い、完了を待たない")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	req := model.GenerateRequest{
		Subject:                strings.TrimSpace(*subject),
		Semester:               *semester,
		Difficulty:             *difficulty,
		AdditionalRequirements: *requirements,
	}

	user := a.store.User()
	if req.Semester == 0 && user != nil && user.Semester > 0 {
		req.Semester = user.Semester
	}

	if err := validateGenerateRequest(req); err != nil {
		return err
	}

	// ローカルキャッシュのクレジットが尽きている場合はネットワーク呼び出しを行わない。
	// キャッシュが古い可能性はあるが、最終判断はリモートサービスの402が行う。
	if user != nil && user.Credits <= 0 {
		return model.NewInsufficientCreditsError()
	}

	controller := job.NewController(a.client, a.pollPolicy(), a.collector, slog.Default())

	jobID, err := controller.Submit(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ジョブを送信しました: %s\n", jobID)

	// サーバー側でクレジットが消費されたため残高を再取得する
	a.refreshUserFromSubscription(ctx)

	if *noWait {
		fmt.Fprintf(a.out, "projman watch -job %s で進捗を確認できます。\n", jobID)
		return nil
	}

	a.serveMetrics(ctx)
	return a.watchJob(ctx, controller)
}

// runStatus はジョブのステータスを1回取得して表示する。
func (a *App) runStatus(ctx context.Context, args []string) error {
	fs := newFlagSet("status", a.out)
	jobID := fs.String("job", "", "ジョブID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID == "" {
		return fmt.Errorf("-job でジョブIDを指定してください")
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	j, err := a.client.GetStatus(ctx, *jobID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ジョブ:       %s\n", j.JobID)
	fmt.Fprintf(a.out, "ステータス:   %s（%d%%）\n", j.Status, job.Progress(j.Status))
	fmt.Fprintf(a.out, "メッセージ:   %s\n", job.StatusMessage(j.Status))
	if j.Title != "" {
		fmt.Fprintf(a.out, "タイトル:     %s\n", j.Title)
	}
	if j.Status == model.JobStatusFailed && j.ErrorMessage != "" {
		fmt.Fprintf(a.out, "エラー:       %s\n", j.ErrorMessage)
	}
	if j.Status == model.JobStatusCompleted {
		a.printPlagiarism(j)
		fmt.Fprintf(a.out, "projman download -job %s でダウンロードできます。\n", j.JobID)
	}
	return nil
}

// runWatch は既存ジョブを終端ステータスまでポーリングする。
func (a *App) runWatch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch", a.out)
	jobID := fs.String("job", "", "ジョブID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID == "" {
		return fmt.Errorf("-job でジョブIDを指定してください")
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	controller := job.NewController(a.client, a.pollPolicy(), a.collector, slog.Default())
	controller.Attach(*jobID)

	a.serveMetrics(ctx)
	return a.watchJob(ctx, controller)
}

// watchJob はポーリングの進捗を表示しながら終端ステータスを待つ。
func (a *App) watchJob(ctx context.Context, controller *job.Controller) error {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(a.cfg.PollInterval)
		defer ticker.Stop()
		last := -1
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				snapshot := controller.Job()
				if snapshot == nil {
					continue
				}
				if p := job.Progress(snapshot.Status); p != last {
					last = p
					fmt.Fprintf(a.out, "[%3d%%] %s\n", p, job.StatusMessage(snapshot.Status))
				}
			}
		}
	}()

	j, err := controller.Watch(ctx)
	close(done)
	if err != nil {
		return err
	}

	switch j.Status {
	case model.JobStatusCompleted:
		fmt.Fprintf(a.out, "[100%%] %s\n", job.StatusMessage(j.Status))
		a.printPlagiarism(j)
		if ref := controller.Download(); ref != nil {
			fmt.Fprintf(a.out, "projman download -job %s でダウンロードできます（URLの有効期限: %s）。\n",
				j.JobID, formatExpiry(ref.ExpiresIn))
		} else {
			fmt.Fprintf(a.out, "projman download -job %s でダウンロードできます。\n", j.JobID)
		}
	case model.JobStatusFailed:
		fmt.Fprintf(a.out, "プロジェクトの生成に失敗しました: %s\n", j.ErrorMessage)
	}
	return nil
}

// printPlagiarism は類似度スコアと警告を表示する。
func (a *App) printPlagiarism(j *model.Job) {
	if j.PlagiarismScore == nil {
		return
	}
	fmt.Fprintf(a.out, "類似度スコア: %.2f\n", *j.PlagiarismScore)
	if j.HasPlagiarismWarning() {
		fmt.Fprintln(a.out, "警告: 既存プロジェクトとの類似度が高いため、提出前に内容を確認してください。")
	}
}

// runPreview は完成したプロジェクトのプレビューを表示する。
func (a *App) runPreview(ctx context.Context, args []string) error {
	fs := newFlagSet("preview", a.out)
	jobID := fs.String("job", "", "ジョブID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID == "" {
		return fmt.Errorf("-job でジョブIDを指定してください")
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	preview, err := a.client.GetPreview(ctx, *jobID)
	if err != nil {
		return err
	}

	// モデル生成テキストにはHTMLが混入しうるため表示前にサニタイズする
	fmt.Fprintf(a.out, "タイトル: %s\n", preview.Title)
	fmt.Fprintf(a.out, "難易度:   %s\n", preview.Difficulty)
	if preview.TimelineDays > 0 {
		fmt.Fprintf(a.out, "想定期間: %d日\n", preview.TimelineDays)
	}
	if len(preview.Keywords) > 0 {
		fmt.Fprintf(a.out, "キーワード: %s\n", strings.Join(preview.Keywords, ", "))
	}
	fmt.Fprintf(a.out, "\n概要:\n%s\n", a.sanitizer.Sanitize(preview.Abstract))

	if len(preview.Modules) > 0 {
		fmt.Fprintln(a.out, "\nモジュール:")
		for i, m := range preview.Modules {
			name, _ := m["name"].(string)
			desc, _ := m["description"].(string)
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, name)
			if desc != "" {
				fmt.Fprintf(a.out, "     %s\n", a.sanitizer.Sanitize(desc))
			}
		}
	}
	return nil
}

// runDownload は完成物のzipをダウンロードして保存する。
func (a *App) runDownload(ctx context.Context, args []string) error {
	fs := newFlagSet("download", a.out)
	jobID := fs.String("job", "", "ジョブID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID == "" {
		return fmt.Errorf("-job でジョブIDを指定してください")
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	// タイトルは保存ファイル名の導出に使用する
	j, err := a.client.GetStatus(ctx, *jobID)
	if err != nil {
		return err
	}
	if !j.Status.IsTerminal() {
		return model.NewDownloadNotReadyError(*jobID)
	}

	ref, err := a.client.GetDownload(ctx, *jobID)
	if err != nil {
		return err
	}

	path, err := a.downloader.Fetch(ctx, ref, j.Title)
	if err != nil {
		return err
	}

	if info, statErr := os.Stat(path); statErr == nil {
		a.collector.RecordDownloadBytes(info.Size())
	}

	fmt.Fprintf(a.out, "保存しました: %s\n", path)
	return nil
}

// runHistory はジョブ履歴を表示する。
func (a *App) runHistory(ctx context.Context, args []string) error {
	fs := newFlagSet("history", a.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	items, err := a.client.GetHistory(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "ジョブ履歴はありません。")
		return nil
	}

	for _, item := range items {
		title := item.Title
		if title == "" {
			title = item.Subject
		}
		fmt.Fprintf(a.out, "%s  %-10s  %s  %s\n",
			item.JobID, item.Status, item.CreatedAt.Format("2006-01-02 15:04"), title)
	}
	return nil
}

// formatExpiry は有効期限の秒数を読みやすい形式に変換する。
func formatExpiry(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= 24*time.Hour {
		return fmt.Sprintf("%d日", int(d.Hours()/24))
	}
	if d >= time.Hour {
		return fmt.Sprintf("%d時間", int(d.Hours()))
	}
	return fmt.Sprintf("%d分", int(d.Minutes()))
}
