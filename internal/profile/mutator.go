// Package profile はバッジプロフィールの作成と公開プロフィールの参照を提供する。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/badgeman/internal/model"
	"github.com/hitoshi/badgeman/internal/repository"
	"github.com/hitoshi/badgeman/internal/security"
)

// TokenVerifier はトークン検証のインターフェース。
// 検証に成功した場合はトークンの主体（ユーザーID）を返す。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Mutator はバッジプロフィールを書き込むサービス層。
type Mutator struct {
	store     repository.DirectoryStore
	tokens    TokenVerifier
	sanitizer security.TextSanitizer
}

// NewMutator はMutatorを生成する。
func NewMutator(store repository.DirectoryStore, tokens TokenVerifier, sanitizer security.TextSanitizer) *Mutator {
	return &Mutator{
		store:     store,
		tokens:    tokens,
		sanitizer: sanitizer,
	}
}

// CreateBadge はトークンの主体となるユーザーにバッジ5項目を書き込む。
// 既存の値とはマージせず無条件に上書きし、同時実行時は後勝ちとなる。
func (m *Mutator) CreateBadge(ctx context.Context, token string, details model.BadgeDetails) error {
	// 1. トークン検証（欠落・不正・期限切れは全て認証エラー）
	if token == "" {
		return model.NewUnauthorizedError()
	}
	userID, err := m.tokens.Verify(token)
	if err != nil {
		slog.Debug("token rejected", slog.String("error", err.Error()))
		return model.NewUnauthorizedError()
	}

	// 2. 入力値の検証
	details = m.sanitize(details)
	if details.FullName == "" {
		return model.NewValidationError("full_name is required")
	}
	if details.GraduationDate > model.MaxGraduationDate {
		return model.NewValidationError("graduation_date is out of range")
	}

	// 3-4. トークン主体のレコードを特定
	target, err := repository.LookupByID(ctx, m.store, userID)
	if err != nil {
		return err
	}
	if target == nil {
		// トークン発行後にユーザーが削除された
		return model.NewUserNotFoundError()
	}

	// 5. バッジ5項目のみを上書き
	target.ApplyBadge(details)
	if err := m.store.UpdateFields(ctx, target, repository.BadgeFields()); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("failed to update badge: %w", err)
	}

	slog.Info("badge created",
		slog.String("user_id", userID),
	)

	return nil
}

// sanitize はテキスト項目からマークアップを除去する。
func (m *Mutator) sanitize(d model.BadgeDetails) model.BadgeDetails {
	if m.sanitizer == nil {
		return d
	}
	d.FullName = m.sanitizer.PlainText(d.FullName)
	d.University = m.sanitizer.PlainText(d.University)
	d.Major = m.sanitizer.PlainText(d.Major)
	d.GitHub = m.sanitizer.PlainText(d.GitHub)
	return d
}
