package app

// Command はCLIのサブコマンドを表す。
type Command string

const (
	// CommandRegister はメールアドレスとパスワードで新規登録する。
	CommandRegister Command = "register"
	// CommandLogin はメールアドレスとパスワードでログインする。
	CommandLogin Command = "login"
	// CommandGoogleLogin はGoogleアカウントでログインする。
	CommandGoogleLogin Command = "google-login"
	// CommandOnboard はプロフィール（大学・学期・科目）を設定する。
	CommandOnboard Command = "onboard"
	// CommandLogout はセッションを破棄する。
	CommandLogout Command = "logout"
	// CommandWhoami は現在のログイン状態を表示する。
	CommandWhoami Command = "whoami"

	// CommandGenerate はプロジェクト生成ジョブを送信する。
	CommandGenerate Command = "generate"
	// CommandStatus はジョブの現在のステータスを1回取得する。
	CommandStatus Command = "status"
	// CommandWatch はジョブを終端ステータスまでポーリングする。
	CommandWatch Command = "watch"
	// CommandPreview は完成したプロジェクトのプレビューを表示する。
	CommandPreview Command = "preview"
	// CommandDownload は完成物のzipをダウンロードする。
	CommandDownload Command = "download"
	// CommandHistory はジョブ履歴を表示する。
	CommandHistory Command = "history"

	// CommandPlans は利用可能なプランを表示する。
	CommandPlans Command = "plans"
	// CommandSubscription は現在のサブスクリプション状態を表示する。
	CommandSubscription Command = "subscription"
	// CommandUpgrade はプランのアップグレード（決済オーダー作成・検証）を行う。
	CommandUpgrade Command = "upgrade"
	// CommandPayments は決済履歴を表示する。
	CommandPayments Command = "payments"

	// CommandUsage は利用統計を表示する（管理者向け）。
	CommandUsage Command = "usage"
	// CommandAuditLogs は監査ログを表示する（管理者向け）。
	CommandAuditLogs Command = "audit-logs"

	// CommandHelp は使い方を表示する。
	CommandHelp Command = "help"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandHelpを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandHelp
	}

	switch args[0] {
	case "register":
		return CommandRegister
	case "login":
		return CommandLogin
	case "google-login":
		return CommandGoogleLogin
	case "onboard":
		return CommandOnboard
	case "logout":
		return CommandLogout
	case "whoami":
		return CommandWhoami
	case "generate":
		return CommandGenerate
	case "status":
		return CommandStatus
	case "watch":
		return CommandWatch
	case "preview":
		return CommandPreview
	case "download":
		return CommandDownload
	case "history":
		return CommandHistory
	case "plans":
		return CommandPlans
	case "subscription":
		return CommandSubscription
	case "upgrade":
		return CommandUpgrade
	case "payments":
		return CommandPayments
	case "usage":
		return CommandUsage
	case "audit-logs":
		return CommandAuditLogs
	default:
		return CommandHelp
	}
}
