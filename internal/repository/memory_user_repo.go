package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/badgeman/internal/model"
)

// MemoryUserRepo はプロセス内のマップを使ったユーザーディレクトリ。
// テストとSTORE_DRIVER=memoryの開発モードで使用する。
// InsertUserは一意制約を持たないドキュメントストアと同じく重複を許す。
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User
	order []string
}

// NewMemoryUserRepo は空のMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users: make(map[string]*model.User),
	}
}

// ListUsers は全件のコピーを挿入順で返す。
func (r *MemoryUserRepo) ListUsers(ctx context.Context) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, cloneUser(r.users[id]))
	}
	return users, nil
}

// InsertUser はuser.IDをキーとしてユーザーを作成する。同一IDは上書きする。
func (r *MemoryUserRepo) InsertUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.ID == "" {
		return fmt.Errorf("user id is required for insert")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(user)
	return nil
}

// InsertIfAbsent は同一メールアドレスが存在しない場合のみ作成する。
func (r *MemoryUserRepo) InsertIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if user == nil || user.ID == "" {
		return false, fmt.Errorf("user id is required for insert")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return false, nil
		}
	}
	r.put(user)
	return true, nil
}

// UpdateFields は指定フィールドのみをコピーする。
func (r *MemoryUserRepo) UpdateFields(ctx context.Context, user *model.User, fields []Field) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.ID == "" {
		return fmt.Errorf("user id is required for update")
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}
	for _, f := range fields {
		if _, err := fieldValue(user, f); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	src := cloneUser(user)
	for _, f := range fields {
		switch f {
		case FieldFullName:
			stored.FullName = src.FullName
		case FieldUniversity:
			stored.University = src.University
		case FieldMajor:
			stored.Major = src.Major
		case FieldGraduationDate:
			stored.GraduationDate = src.GraduationDate
		case FieldGitHub:
			stored.GitHub = src.GitHub
		}
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

// Delete は指定IDのユーザーを削除する。
// トークン発行後に本人が削除されたケースの再現に使う。
func (r *MemoryUserRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return
	}
	delete(r.users, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// PingContext は常に成功する。
func (r *MemoryUserRepo) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// put はロック取得済みの状態で呼び出すこと。
func (r *MemoryUserRepo) put(user *model.User) {
	if _, exists := r.users[user.ID]; !exists {
		r.order = append(r.order, user.ID)
	}
	r.users[user.ID] = cloneUser(user)
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.FullName = cloneString(u.FullName)
	c.University = cloneString(u.University)
	c.Major = cloneString(u.Major)
	c.GitHub = cloneString(u.GitHub)
	if u.GraduationDate != nil {
		v := *u.GraduationDate
		c.GraduationDate = &v
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// compile-time interface check
var (
	_ DirectoryStore = (*MemoryUserRepo)(nil)
	_ DirectoryIndex = (*MemoryUserRepo)(nil)
	_ HealthChecker  = (*MemoryUserRepo)(nil)
)
