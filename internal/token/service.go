// Package token は署名付きで有効期限を持つ本人確認トークンの発行と検証を提供する。
//
// トークンはHS256で署名したJWTで、クレームは {iat, exp, id} の3つのみ。
// サーバー側には保存せず、失効手段は有効期限のみである。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultValidity はトークンの有効期間（604800秒 = 1週間）。
const DefaultValidity = 7 * 24 * time.Hour

var (
	// ErrInvalidToken は署名不一致、ペイロード不正、期限切れのいずれかを表す。
	ErrInvalidToken = errors.New("invalid token")
	// ErrSigning は秘密鍵の欠落や署名処理の失敗を表す。内部エラーとして扱う。
	ErrSigning = errors.New("token signing failed")
)

// Claims はトークンに含めるクレーム。
// JSON上は {"id": ..., "iat": ..., "exp": ...} となる。
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。テストで期限切れを再現するために使う。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLeeway は検証時に許容する時計のずれを設定する。
// exp からleeway以上経過したトークンは常に拒否される。
func WithLeeway(leeway time.Duration) Option {
	return func(s *Service) {
		s.leeway = leeway
	}
}

// WithValidity はトークンの有効期間を変更する。
func WithValidity(d time.Duration) Option {
	return func(s *Service) {
		s.validity = d
	}
}

// Service はトークンの発行と検証を行う。
// 秘密鍵と時計のみに依存する純粋なサービスで、並行呼び出しに対して安全。
type Service struct {
	secret   []byte
	now      func() time.Time
	leeway   time.Duration
	validity time.Duration
}

// NewService はServiceを生成する。秘密鍵が空の場合はErrSigningを返す。
func NewService(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret is empty", ErrSigning)
	}

	s := &Service{
		secret:   secret,
		now:      time.Now,
		validity: DefaultValidity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue は指定ユーザーIDを主体とするトークンを発行する。
func (s *Service) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("%w: subject id is empty", ErrSigning)
	}

	now := s.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
	})

	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、主体のユーザーIDを返す。
// 失敗時は常にErrInvalidTokenをラップしたエラーを返す。
func (s *Service) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	claims := &Claims{}
	t, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !t.Valid {
		return "", ErrInvalidToken
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: id claim is missing", ErrInvalidToken)
	}

	return claims.UserID, nil
}
