package app

import (
	"regexp"
	"strings"

	"github.com/hitoshi/projman/internal/model"
)

// minPasswordLen はパスワードの最小文字数。リモートサービスの要件に合わせる。
const minPasswordLen = 8

// emailPattern はメールアドレスの形式チェック。
// 厳密なRFC準拠ではなく、明らかな入力ミスの早期検出が目的。
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateEmail はメールアドレスの形式を検証する。
func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return model.NewInvalidEmailError(email)
	}
	return nil
}

// validatePassword はパスワードの長さを検証する。
func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return model.NewPasswordTooShortError(minPasswordLen)
	}
	return nil
}

// validateGenerateRequest は生成リクエストをネットワーク呼び出し前に検証する。
// ここを通過しても最終判断はリモートサービスが行う。
func validateGenerateRequest(req model.GenerateRequest) error {
	if strings.TrimSpace(req.Subject) == "" {
		return model.NewEmptySubjectError()
	}
	if req.Semester < 1 || req.Semester > 8 {
		return model.NewInvalidSemesterError(req.Semester)
	}
	switch req.Difficulty {
	case model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced:
	default:
		return model.NewInvalidDifficultyError(req.Difficulty)
	}
	return nil
}

// knownPlans はアップグレード可能なプラン名。
var knownPlans = map[string]bool{
	"free":       true,
	"pro":        true,
	"enterprise": true,
}

// validatePlan はプラン名を検証する。
func validatePlan(plan string) error {
	if !knownPlans[plan] {
		return model.NewInvalidPlanError(plan)
	}
	return nil
}
