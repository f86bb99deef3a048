package profile

import (
	"context"

	"github.com/hitoshi/badgeman/internal/model"
	"github.com/hitoshi/badgeman/internal/repository"
)

// Reader は公開プロフィールを参照するサービス層。認証を必要としない。
type Reader struct {
	store repository.DirectoryStore
}

// NewReader はReaderを生成する。
func NewReader(store repository.DirectoryStore) *Reader {
	return &Reader{store: store}
}

// GetProfile は指定IDのユーザーの公開プロフィールを返す。
// バッジ未作成のユーザーはバッジ項目がnilの射影となる。
func (r *Reader) GetProfile(ctx context.Context, id string) (*model.ProfileView, error) {
	u, err := repository.LookupByID(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, model.NewProfileNotFoundError(id)
	}
	return u.Profile(), nil
}
