// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は公開プロフィールに保存するテキスト項目からマークアップを除去し、
// 格納型XSSのリスクからプロフィール閲覧者を保護する。
// bluemondayのStrictPolicyで全てのタグを取り除き、プレーンテキストのみを残す。
// '<' を含まない値はタグになりえないため、一切変更せずに返す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses はエスケープ済みタグの多重エンコードを剥がす最大回数。
const maxSanitizePasses = 4

// TextSanitizer はプレーンテキスト化のインターフェースを定義する。
type TextSanitizer interface {
	// PlainText は入力から全てのHTMLタグを除去したテキストを返す。
	// '<' を含まない入力はそのまま返す（"C++ & Go" や "&lt;b&gt;" も変化しない）。
	// 同一入力に対して常に同一出力を返す（冪等）。
	PlainText(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// PlainText はタグを除去し、HTMLエンティティを元の文字に戻す。
// 戻した結果に再びタグが現れる場合は安定するまで繰り返す。
func (s *textSanitizer) PlainText(in string) string {
	if !strings.Contains(in, "<") {
		return in
	}

	out := in
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(out))
		if next == out {
			return out
		}
		out = next
	}
	return s.policy.Sanitize(out)
}
