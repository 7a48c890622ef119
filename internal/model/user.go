// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// リモートサービスが認証時に返すアイデンティティのクライアント側キャッシュであり、
// creditsを含めてリモート側が常に正となる。
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Credits  int      `json:"credits"`
	Semester int      `json:"semester,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
	Language string   `json:"language,omitempty"`
}

// ユーザーロール
const (
	RoleStudent       = "student"
	RoleCollegeAdmin  = "college_admin"
	RolePlatformAdmin = "platform_admin"
)

// TokenPair は認証交換で発行されるトークンの組を表す。
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// OnboardRequest はオンボーディングで更新するプロフィール項目を表す。
type OnboardRequest struct {
	CollegeName string   `json:"college_name,omitempty"`
	Semester    int      `json:"semester,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	Language    string   `json:"language,omitempty"`
}
