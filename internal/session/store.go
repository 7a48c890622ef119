// Package session は認証済みアイデンティティとトークンの唯一の保持場所を提供する。
// メモリ上の状態が正であり、永続化はベストエフォートで行う。
package session

import (
	"log/slog"
	"sync"

	"github.com/hitoshi/projman/internal/model"
)

// Record は永続化される単一の正規セッションレコードを表す。
// トークンを別キーに複製せず、このレコードのみを読み書きする。
type Record struct {
	User            *model.User `json:"user"`
	AccessToken     string      `json:"access_token"`
	RefreshToken    string      `json:"refresh_token"`
	IsAuthenticated bool        `json:"is_authenticated"`
}

// Repository はセッションレコードの永続化インターフェース。
type Repository interface {
	// Load は保存済みレコードを読み込む。未保存の場合は(nil, nil)を返す。
	Load() (*Record, error)
	// Save はレコードを保存する。
	Save(rec *Record) error
	// Clear は保存済みレコードを削除する。未保存でもエラーにしない。
	Clear() error
}

// UserPatch はユーザー情報の部分更新を表す。
// nilのフィールドは更新されない。
type UserPatch struct {
	Email    *string
	Role     *string
	Credits  *int
	Semester *int
	Subjects *[]string
	Language *string
}

// Store はログイン中のユーザーとトークンを保持するセッションストア。
// 全ての変更はここで定義された操作を経由する。ゴルーチンセーフ。
type Store struct {
	mu           sync.RWMutex
	user         *model.User
	accessToken  string
	refreshToken string
	hydrated     bool

	repo   Repository
	logger *slog.Logger
}

// NewStore はStoreを生成する。プロセス起動時は空の状態で始まり、
// Hydrateで永続化済みレコードが読み込まれるまでhasHydratedはfalseのまま。
func NewStore(repo Repository, logger *slog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger,
	}
}

// Hydrate は永続化レコードをメモリに読み込み、ハイドレーション完了を記録する。
// 読み込み失敗時も完了フラグは立てる（未ログイン状態として続行する）。
// 2回目以降の呼び出しは何もしない。
func (s *Store) Hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return
	}

	rec, err := s.repo.Load()
	if err != nil {
		s.logger.Warn("セッションレコードの読み込みに失敗しました",
			slog.String("error", err.Error()),
		)
	} else if rec != nil {
		s.user = rec.User
		s.accessToken = rec.AccessToken
		s.refreshToken = rec.RefreshToken
	}

	s.hydrated = true
}

// HasHydrated は永続化レコードの読み込みが完了しているかどうかを返す。
// 認可判断はこのフラグがtrueになるまで行ってはならない。
func (s *Store) HasHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// SetAuth は認証交換に成功したユーザーとトークンを設定し、永続化する。
// トークンの形式検証は行わない（呼び出し元が認証交換の成功を保証する）。
func (s *Store) SetAuth(user *model.User, accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.persistLocked()
}

// Logout はメモリと永続化レコードの両方からセッションを破棄する。冪等。
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""

	if err := s.repo.Clear(); err != nil {
		s.logger.Warn("セッションレコードの削除に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// UpdateUser は現在のユーザーへ部分更新をマージする。
// ユーザーが未設定の場合は何もしない（エラーにもしない）。
func (s *Store) UpdateUser(patch UserPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return
	}

	if patch.Email != nil {
		s.user.Email = *patch.Email
	}
	if patch.Role != nil {
		s.user.Role = *patch.Role
	}
	if patch.Credits != nil {
		s.user.Credits = *patch.Credits
	}
	if patch.Semester != nil {
		s.user.Semester = *patch.Semester
	}
	if patch.Subjects != nil {
		s.user.Subjects = *patch.Subjects
	}
	if patch.Language != nil {
		s.user.Language = *patch.Language
	}

	s.persistLocked()
}

// IsAuthenticated は両方のトークンが空でない場合にのみtrueを返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != "" && s.refreshToken != ""
}

// AccessToken は現在のアクセストークンを返す。未ログイン時は空文字列。
// ゲートウェイクライアントがリクエスト毎に同期的に参照する。
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken は現在のリフレッシュトークンを返す。
// トークンリフレッシュは未実装のため現状は参照のみ（将来の拡張ポイント）。
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// User は現在のユーザーのコピーを返す。未ログイン時はnil。
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	if s.user.Subjects != nil {
		u.Subjects = append([]string(nil), s.user.Subjects...)
	}
	return &u
}

// persistLocked は現在の状態を永続化する。書き込み失敗はログのみで呼び出し元へ返さない。
// 呼び出し元はmuのロックを保持していること。
func (s *Store) persistLocked() {
	rec := &Record{
		User:            s.user,
		AccessToken:     s.accessToken,
		RefreshToken:    s.refreshToken,
		IsAuthenticated: s.accessToken != "" && s.refreshToken != "",
	}
	if err := s.repo.Save(rec); err != nil {
		s.logger.Warn("セッションレコードの保存に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}
