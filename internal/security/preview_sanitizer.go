// Package security はクライアントのセキュリティ機能を提供する。
//
// PreviewSanitizerService はリモートサービスが返すプレビューHTMLをサニタイズし、
// 生成コンテンツ経由のXSSなどのリスクから表示側を保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグと属性のみを通過させる。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// PreviewSanitizerService はプレビューHTMLのサニタイズ機能のインターフェースを定義する。
// プレビュー表示およびHTMLファイル書き出しの前に使用される。
type PreviewSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 見出し・段落・リスト・コードブロック等の許可タグのみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// imgタグのsrc属性はhttpsスキームのみ許可される。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// previewSanitizer はPreviewSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type previewSanitizer struct {
	policy *bluemonday.Policy
}

// NewPreviewSanitizer はPreviewSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// 生成されたプロジェクトのプレビューは見出し・説明文・コードスニペットを含むため、
// 文書構造系のタグを広めに許可し、実行可能なコンテンツは一切通さない。
func NewPreviewSanitizer() *previewSanitizer {
	p := bluemonday.NewPolicy()

	// 許可タグの設定（属性なしのシンプルなタグ）
	// script, iframe, style等は許可リストに含めないことで自動的に除去される
	// on*イベント属性はbluemondayのデフォルトで許可されないため除去される
	p.AllowElements(
		"h1", "h2", "h3", "h4",
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
		"table", "thead", "tbody", "tr", "th", "td",
	)

	// aタグの設定:
	// - href属性を許可
	// - 相対URLは不許可（プレビューは外部ストレージ由来のコンテンツのため）
	// - target="_blank"を全リンクに強制付与
	// - rel="noreferrer noopener"を強制付与
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// imgタグの設定:
	// - src属性はhttpsスキームのみ許可（http, javascript, data等は拒否）
	// - alt属性を許可
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &previewSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *previewSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
