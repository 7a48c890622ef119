// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// CLIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, project, payment, system
	Action   string // ユーザー向け対処方法
	Status   int    // リモート由来の場合のHTTPステータス（クライアント検証では0）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotAuthenticated    = "NOT_AUTHENTICATED"
	ErrCodeSessionExpired      = "SESSION_EXPIRED"
	ErrCodeInvalidEmail        = "INVALID_EMAIL"
	ErrCodePasswordTooShort    = "PASSWORD_TOO_SHORT"
	ErrCodeEmptySubject        = "EMPTY_SUBJECT"
	ErrCodeInvalidSemester     = "INVALID_SEMESTER"
	ErrCodeInvalidDifficulty   = "INVALID_DIFFICULTY"
	ErrCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrCodeJobNotFound         = "JOB_NOT_FOUND"
	ErrCodeDownloadNotReady    = "DOWNLOAD_NOT_READY"
	ErrCodePollTimeout         = "POLL_TIMEOUT"
	ErrCodeInvalidPlan         = "INVALID_PLAN"
	ErrCodeSSRFBlocked         = "SSRF_BLOCKED"
	ErrCodeRemote              = "REMOTE_ERROR"
	ErrCodeTransport           = "TRANSPORT_ERROR"
)

// NewNotAuthenticatedError は未ログイン状態での認証必須操作エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "projman login または projman register でログインしてください。",
	}
}

// NewSessionExpiredError は認可失敗（401）によるセッション破棄エラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "セッションの有効期限が切れたため、ログアウトしました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
		Status:   401,
	}
}

// NewInvalidEmailError は不正なメールアドレスエラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: "validation",
		Action:   "正しい形式のメールアドレスを入力してください。",
	}
}

// NewPasswordTooShortError はパスワード長不足エラーを生成する。
func NewPasswordTooShortError(minLen int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("パスワードが短すぎます（%d文字以上必要）。", minLen),
		Category: "validation",
		Action:   fmt.Sprintf("%d文字以上のパスワードを指定してください。", minLen),
	}
}

// NewEmptySubjectError は科目未指定エラーを生成する。
func NewEmptySubjectError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptySubject,
		Message:  "科目が指定されていません。",
		Category: "validation",
		Action:   "-subject で生成対象の科目を指定してください。",
	}
}

// NewInvalidSemesterError は学期の範囲外エラーを生成する。
func NewInvalidSemesterError(semester int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSemester,
		Message:  fmt.Sprintf("無効な学期です: %d", semester),
		Category: "validation",
		Action:   "学期は1から8の範囲で指定してください。",
	}
}

// NewInvalidDifficultyError は難易度の不正値エラーを生成する。
func NewInvalidDifficultyError(difficulty string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDifficulty,
		Message:  fmt.Sprintf("無効な難易度です: %s", difficulty),
		Category: "validation",
		Action:   "難易度には Beginner、Intermediate、Advanced のいずれかを指定してください。",
	}
}

// NewInsufficientCreditsError はクレジット不足エラーを生成する。
// ローカルキャッシュのクレジットが0以下の場合、ネットワーク呼び出し前に返す。
func NewInsufficientCreditsError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientCredits,
		Message:  "クレジットが不足しています。",
		Category: "payment",
		Action:   "projman upgrade でプランをアップグレードしてクレジットを購入してください。",
	}
}

// NewDownloadNotReadyError はジョブ未完了時のダウンロード要求エラーを生成する。
func NewDownloadNotReadyError(jobID string) *APIError {
	return &APIError{
		Code:     ErrCodeDownloadNotReady,
		Message:  fmt.Sprintf("ジョブはまだ完了していません: %s", jobID),
		Category: "project",
		Action:   "projman status でジョブの完了を確認してからダウンロードしてください。",
	}
}

// NewPollTimeoutError はポーリングの上限到達エラーを生成する。
func NewPollTimeoutError(jobID string) *APIError {
	return &APIError{
		Code:     ErrCodePollTimeout,
		Message:  fmt.Sprintf("ジョブの完了待ちが上限に達しました: %s", jobID),
		Category: "project",
		Action:   "projman status で後ほど状態を確認してください。生成はサーバー側で継続しています。",
	}
}

// NewInvalidPlanError は不正なプラン指定エラーを生成する。
func NewInvalidPlanError(plan string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPlan,
		Message:  fmt.Sprintf("無効なプランです: %s", plan),
		Category: "payment",
		Action:   "projman plans で利用可能なプランを確認してください。",
	}
}

// NewSSRFBlockedError はダウンロードURLのSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "system",
		Action:   "サーバーが返したダウンロードURLが不正です。サポートに連絡してください。",
	}
}

// NewRemoteError はリモートサービスのエラーレスポンスからエラーを生成する。
// detailが空の場合は汎用メッセージにフォールバックする。
func NewRemoteError(status int, detail string) *APIError {
	if detail == "" {
		detail = "リモートサービスがエラーを返しました。"
	}
	category := "system"
	switch {
	case status == 402:
		category = "payment"
	case status == 400 || status == 422:
		category = "validation"
	case status == 403:
		category = "auth"
	case status == 404:
		category = "project"
	}
	return &APIError{
		Code:     ErrCodeRemote,
		Message:  detail,
		Category: category,
		Action:   "内容を確認し、しばらく待ってから再度お試しください。",
		Status:   status,
	}
}

// NewTransportError はネットワーク層の失敗からエラーを生成する。
func NewTransportError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeTransport,
		Message:  fmt.Sprintf("リモートサービスへの接続に失敗しました: %s", err.Error()),
		Category: "system",
		Action:   "ネットワーク接続とAPI_BASE_URLの設定を確認してください。",
	}
}
