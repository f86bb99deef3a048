// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// tokenContextKey はリクエストコンテキストにトークン文字列を格納するためのキー。
var tokenContextKey = contextKey("token")

const bearerPrefix = "Bearer "

// NewBearerTokenMiddleware はAuthorizationヘッダーからトークンを取り出し、
// リクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーの値はトークンそのもの、または "Bearer <token>" のどちらも受け付ける。
// 検証は行わず、トークンがなくても次のハンドラーを呼ぶ（拒否はサービス層が行う）。
func NewBearerTokenMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithToken(r.Context(), token)))
		})
	}
}

// TokenFromHeader はAuthorizationヘッダーの値からトークンを取り出す。
// "Bearer " プレフィックスは大文字小文字を区別せず取り除く。
func TokenFromHeader(value string) string {
	value = strings.TrimLeft(value, " \t")
	if len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		value = value[len(bearerPrefix):]
	}
	return strings.TrimSpace(value)
}

// TokenFromContext はリクエストコンテキストからトークンを取得する。
// トークンがない場合は空文字列を返す。
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// ContextWithToken はコンテキストにトークンを注入する。
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}
