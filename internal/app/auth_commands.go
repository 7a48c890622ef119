package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/projman/internal/auth"
	"github.com/hitoshi/projman/internal/model"
	"github.com/hitoshi/projman/internal/session"
)

// googleLoginTimeout はブラウザでの認可完了を待つ上限。
const googleLoginTimeout = 5 * time.Minute

// newFlagSet はサブコマンド用のFlagSetを生成する。
func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// requireAuth は認証必須コマンドの事前チェックを行う。
func (a *App) requireAuth() error {
	if !a.store.IsAuthenticated() {
		return model.NewNotAuthenticatedError()
	}
	return nil
}

// placeholderUser は認証交換直後のユーザーを組み立てる。
// トークンレスポンスにはユーザー情報が含まれないため、
// サブスクリプション取得で正確な値に置き換わるまでの仮の値を設定する。
func placeholderUser(email string) *model.User {
	return &model.User{
		ID:      "",
		Email:   email,
		Role:    model.RoleStudent,
		Credits: 2,
	}
}

// refreshUserFromSubscription はサブスクリプション状態からユーザー情報を更新する。
// creditsはリモート側が常に正のため、取得できた場合は必ず上書きする。
// 失敗してもログのみで処理は継続する（仮の値のまま動作する）。
func (a *App) refreshUserFromSubscription(ctx context.Context) {
	sub, err := a.client.GetSubscription(ctx)
	if err != nil {
		slog.Debug("サブスクリプション状態の取得に失敗しました", slog.String("error", err.Error()))
		return
	}

	patch := session.UserPatch{Credits: &sub.Credits}
	if sub.Email != "" {
		patch.Email = &sub.Email
	}
	a.store.UpdateUser(patch)
}

// runRegister はメールアドレスとパスワードで新規登録する。
func (a *App) runRegister(ctx context.Context, args []string) error {
	fs := newFlagSet("register", a.out)
	email := fs.String("email", "", "メールアドレス")
	password := fs.String("password", "", "パスワード")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validateEmail(*email); err != nil {
		return err
	}
	if err := validatePassword(*password); err != nil {
		return err
	}

	tokens, err := a.client.Register(ctx, *email, *password)
	if err != nil {
		return err
	}

	a.store.SetAuth(placeholderUser(*email), tokens.AccessToken, tokens.RefreshToken)
	a.refreshUserFromSubscription(ctx)

	fmt.Fprintf(a.out, "登録が完了しました: %s\n", *email)
	fmt.Fprintln(a.out, "projman onboard でプロフィールを設定してください。")
	return nil
}

// runLogin はメールアドレスとパスワードでログインする。
func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login", a.out)
	email := fs.String("email", "", "メールアドレス")
	password := fs.String("password", "", "パスワード")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := validateEmail(*email); err != nil {
		return err
	}
	if err := validatePassword(*password); err != nil {
		return err
	}

	tokens, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	a.store.SetAuth(placeholderUser(*email), tokens.AccessToken, tokens.RefreshToken)
	a.refreshUserFromSubscription(ctx)

	user := a.store.User()
	fmt.Fprintf(a.out, "ログインしました: %s（残りクレジット: %d）\n", user.Email, user.Credits)
	return nil
}

// runGoogleLogin はGoogleアカウントでログインする。
// ループバックサーバーで認可コードを受け取り、IDトークンを認証交換する。
func (a *App) runGoogleLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("google-login", a.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.cfg.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_IDが設定されていません")
	}

	server := auth.NewCallbackServer(slog.Default())
	if err := server.Start(a.cfg.OAuthCallbackPort); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	provider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     a.cfg.GoogleClientID,
		ClientSecret: a.cfg.GoogleClientSecret,
		RedirectURL:  server.RedirectURL(),
	})

	fmt.Fprintln(a.out, "ブラウザで以下のURLを開いて認証してください:")
	fmt.Fprintln(a.out, provider.LoginURL(server.State()))

	waitCtx, cancel := context.WithTimeout(ctx, googleLoginTimeout)
	defer cancel()

	code, err := server.WaitForCode(waitCtx)
	if err != nil {
		return err
	}

	credential, err := provider.ExchangeCredential(ctx, code)
	if err != nil {
		return err
	}

	tokens, err := a.client.GoogleAuth(ctx, credential)
	if err != nil {
		return err
	}

	// メールアドレスはサブスクリプション取得で補完される
	a.store.SetAuth(placeholderUser(""), tokens.AccessToken, tokens.RefreshToken)
	a.refreshUserFromSubscription(ctx)

	user := a.store.User()
	if user.Email != "" {
		fmt.Fprintf(a.out, "Googleアカウントでログインしました: %s\n", user.Email)
	} else {
		fmt.Fprintln(a.out, "Googleアカウントでログインしました。")
	}
	return nil
}

// runOnboard はプロフィール（大学・学期・科目・言語）を設定する。
func (a *App) runOnboard(ctx context.Context, args []string) error {
	fs := newFlagSet("onboard", a.out)
	college := fs.String("college", "", "大学名")
	semester := fs.Int("semester", 0, "学期（1-8）")
	subjects := fs.String("subjects", "", "科目（カンマ区切り）")
	language := fs.String("language", "", "希望言語")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	if *semester != 0 && (*semester < 1 || *semester > 8) {
		return model.NewInvalidSemesterError(*semester)
	}

	req := model.OnboardRequest{
		CollegeName: *college,
		Semester:    *semester,
		Language:    *language,
	}
	if *subjects != "" {
		for _, s := range strings.Split(*subjects, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				req.Subjects = append(req.Subjects, trimmed)
			}
		}
	}

	message, err := a.client.Onboard(ctx, req)
	if err != nil {
		return err
	}

	patch := session.UserPatch{}
	if *semester != 0 {
		patch.Semester = semester
	}
	if req.Subjects != nil {
		patch.Subjects = &req.Subjects
	}
	if *language != "" {
		patch.Language = language
	}
	a.store.UpdateUser(patch)

	if message == "" {
		message = "プロフィールを更新しました。"
	}
	fmt.Fprintln(a.out, message)
	return nil
}

// runLogout はセッションを破棄する。
func (a *App) runLogout(ctx context.Context, args []string) error {
	a.store.Logout()
	fmt.Fprintln(a.out, "ログアウトしました。")
	return nil
}

// runWhoami は現在のログイン状態を表示する。
func (a *App) runWhoami(ctx context.Context, args []string) error {
	if !a.store.IsAuthenticated() {
		fmt.Fprintln(a.out, "ログインしていません。")
		return nil
	}

	// 表示前に最新のクレジット残高を取得する
	a.refreshUserFromSubscription(ctx)

	user := a.store.User()
	if user == nil {
		fmt.Fprintln(a.out, "ログイン中（ユーザー情報は未取得）")
		return nil
	}

	fmt.Fprintf(a.out, "メールアドレス: %s\n", user.Email)
	fmt.Fprintf(a.out, "ロール:         %s\n", user.Role)
	fmt.Fprintf(a.out, "クレジット:     %d\n", user.Credits)
	if user.Semester > 0 {
		fmt.Fprintf(a.out, "学期:           %d\n", user.Semester)
	}
	if len(user.Subjects) > 0 {
		fmt.Fprintf(a.out, "科目:           %s\n", strings.Join(user.Subjects, ", "))
	}
	return nil
}
