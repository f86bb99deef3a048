package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/badgeman/internal/model"
)

// LookupByID はIDでユーザーを探す。見つからない場合はnilを返す。
// ストアがDirectoryIndexを実装していればインデックス検索を使い、そうでなければ全件を走査する。
func LookupByID(ctx context.Context, store DirectoryStore, id string) (*model.User, error) {
	if idx, ok := store.(DirectoryIndex); ok {
		u, err := idx.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		return u, nil
	}
	return scan(ctx, store, func(u *model.User) bool { return u.ID == id })
}

// LookupByEmail はメールアドレスでユーザーを探す。見つからない場合はnilを返す。
// 走査の場合も一意性の判定は呼び出し時点のスナップショットに基づく。
func LookupByEmail(ctx context.Context, store DirectoryStore, email string) (*model.User, error) {
	if idx, ok := store.(DirectoryIndex); ok {
		u, err := idx.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		return u, nil
	}
	return scan(ctx, store, func(u *model.User) bool { return u.Email == email })
}

func scan(ctx context.Context, store DirectoryStore, match func(*model.User) bool) (*model.User, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, nil
}
