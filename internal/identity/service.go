// Package identity はサインアップとログインのドメインロジックを提供する。
//
// ディレクトリの一意性（1メールアドレス1アカウント）はサービス層が事前検索で判定する。
// 検索はストアがDirectoryIndexを実装していればインデックス検索、そうでなければ全件走査となる。
// 判定と挿入は不可分ではないため、同一メールアドレスでの同時サインアップは両方が判定を
// 通過しうる。DirectoryIndexを実装するストアではInsertIfAbsentで挿入し、この競合をストア側で閉じる。
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hitoshi/badgeman/internal/model"
	"github.com/hitoshi/badgeman/internal/repository"
)

// TokenIssuer はトークン発行のインターフェース。
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

// Result はサインアップ・ログイン成功時の結果。
type Result struct {
	UserID string
	Token  string
}

// Service はID登録と認証を行うサービス層。
// 状態を持たず、全ての状態はディレクトリストアにある。
type Service struct {
	store  repository.DirectoryStore
	tokens TokenIssuer
	newID  func() string
}

// NewService はServiceを生成する。
func NewService(store repository.DirectoryStore, tokens TokenIssuer) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		newID:  uuid.NewString,
	}
}

// Signup は新しいユーザーを登録し、トークンを発行する。
func (s *Service) Signup(ctx context.Context, email, password string) (*Result, error) {
	// 1. 入力値の検証
	if email == "" {
		return nil, model.NewValidationError("email is required")
	}
	if password == "" {
		return nil, model.NewValidationError("password is required")
	}

	// 2-3. 同一メールアドレスの存在確認（挿入とは不可分ではない）
	existing, err := repository.LookupByEmail(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyRegisteredError()
	}

	// 4. 新しいIDでバッジ項目が空のユーザーを作成
	user := &model.User{
		ID:       s.newID(),
		Email:    email,
		Password: password,
	}
	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
	)

	// 5. トークンを発行
	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Result{UserID: user.ID, Token: tok}, nil
}

// Login はメールアドレスとパスワードが一致するユーザーにトークンを発行する。
// メール未登録とパスワード誤りは区別せず、どちらも認証エラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	matched, err := repository.LookupByEmail(ctx, s.store, email)
	if err != nil {
		return nil, err
	}
	if matched == nil || !equalSecret(matched.Password, password) {
		return nil, model.NewInvalidCredentialsError()
	}

	tok, err := s.tokens.Issue(matched.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Result{UserID: matched.ID, Token: tok}, nil
}

// insert はストアの能力に応じて条件付き挿入または通常の挿入を行う。
// 書き込みがコミットされなかった場合は必ずエラーを返す。
func (s *Service) insert(ctx context.Context, user *model.User) error {
	if idx, ok := s.store.(repository.DirectoryIndex); ok {
		inserted, err := idx.InsertIfAbsent(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		if !inserted {
			return model.NewEmailAlreadyRegisteredError()
		}
		return nil
	}

	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.NewEmailAlreadyRegisteredError()
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// equalSecret は比較時間が内容に依存しない文字列比較を行う。
func equalSecret(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}
