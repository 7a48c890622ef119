package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileRepository はセッションレコードを単一のJSONファイルに保存するRepository実装。
// トークンを含むためファイルは0600で作成する。
type FileRepository struct {
	path string
}

// NewFileRepository はFileRepositoryを生成する。
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load は保存済みレコードを読み込む。ファイルが存在しない場合は(nil, nil)を返す。
func (r *FileRepository) Load() (*Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("セッションファイルの読み込みに失敗しました: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("セッションファイルのパースに失敗しました: %w", err)
	}
	return &rec, nil
}

// Save はレコードをJSONとして書き込む。親ディレクトリが無ければ作成する。
func (r *FileRepository) Save(rec *Record) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("セッションディレクトリの作成に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("セッションレコードのエンコードに失敗しました: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("セッションファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

// Clear は保存済みレコードを削除する。ファイルが存在しなくてもエラーにしない。
func (r *FileRepository) Clear() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("セッションファイルの削除に失敗しました: %w", err)
	}
	return nil
}
