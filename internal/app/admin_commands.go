package app

import (
	"context"
	"fmt"
	"sort"
)

// runUsage は利用統計を表示する。管理者ロールが必要（リモート側で検証される）。
func (a *App) runUsage(ctx context.Context, args []string) error {
	fs := newFlagSet("usage", a.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	stats, err := a.client.GetUsageStats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ユーザー数:         %d\n", stats.TotalUsers)
	fmt.Fprintf(a.out, "プロジェクト数:     %d\n", stats.TotalProjects)
	fmt.Fprintf(a.out, "完了プロジェクト:   %d\n", stats.CompletedProjects)
	fmt.Fprintf(a.out, "直近30日の生成:     %d\n", stats.RecentProjects30d)

	if len(stats.ProjectsByStatus) > 0 {
		fmt.Fprintln(a.out, "ステータス別:")
		for _, k := range sortedKeys(stats.ProjectsByStatus) {
			fmt.Fprintf(a.out, "  %-12s %d\n", k, stats.ProjectsByStatus[k])
		}
	}
	if len(stats.ProjectsByDifficulty) > 0 {
		fmt.Fprintln(a.out, "難易度別:")
		for _, k := range sortedKeys(stats.ProjectsByDifficulty) {
			fmt.Fprintf(a.out, "  %-12s %d\n", k, stats.ProjectsByDifficulty[k])
		}
	}
	return nil
}

// runAuditLogs は監査ログを表示する。管理者ロールが必要（リモート側で検証される）。
func (a *App) runAuditLogs(ctx context.Context, args []string) error {
	fs := newFlagSet("audit-logs", a.out)
	limit := fs.Int("limit", 100, "取得件数")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	logs, err := a.client.GetAuditLogs(ctx, *limit)
	if err != nil {
		return err
	}

	if len(logs) == 0 {
		fmt.Fprintln(a.out, "監査ログはありません。")
		return nil
	}

	for _, entry := range logs {
		fmt.Fprintf(a.out, "%s  %-20s  %s/%s  user=%s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Action, entry.ResourceType, entry.ResourceID, entry.UserID)
	}
	return nil
}

// sortedKeys はマップのキーをソートして返す。
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
