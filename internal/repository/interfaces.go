// Package repository はユーザーディレクトリの永続化インターフェースと実装を提供する。
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/badgeman/internal/model"
)

var (
	// ErrUserNotFound は更新対象のユーザーが存在しないことを表す。
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail はストア側の一意制約によって挿入が拒否されたことを表す。
	ErrDuplicateEmail = errors.New("email already registered")
)

// Field は部分更新で指定できるユーザーの属性名。
// 値は永続化層のカラム名（ドキュメントのフィールド名）と一致する。
type Field string

const (
	FieldFullName       Field = "full_name"
	FieldUniversity     Field = "university"
	FieldMajor          Field = "major"
	FieldGraduationDate Field = "graduation_date"
	FieldGitHub         Field = "github"
)

// BadgeFields はバッジ作成で上書きする5項目。
func BadgeFields() []Field {
	return []Field{FieldFullName, FieldGitHub, FieldGraduationDate, FieldMajor, FieldUniversity}
}

// fieldValue はユーザーから指定属性の値を取り出す。
// id、email、passwordは部分更新の対象外。
func fieldValue(u *model.User, f Field) (any, error) {
	switch f {
	case FieldFullName:
		return nullableString(u.FullName), nil
	case FieldUniversity:
		return nullableString(u.University), nil
	case FieldMajor:
		return nullableString(u.Major), nil
	case FieldGraduationDate:
		if u.GraduationDate == nil {
			return nil, nil
		}
		if *u.GraduationDate > model.MaxGraduationDate {
			return nil, fmt.Errorf("graduation_date %d exceeds %d", *u.GraduationDate, model.MaxGraduationDate)
		}
		return int64(*u.GraduationDate), nil
	case FieldGitHub:
		return nullableString(u.GitHub), nil
	default:
		return nil, fmt.Errorf("field %q is not updatable", f)
	}
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// DirectoryStore はユーザーディレクトリに対する基本操作のインターフェース。
// ストア自体は一意制約を持たない前提で、一意性はサービス層が全件走査で判定する。
type DirectoryStore interface {
	// ListUsers はコレクション全件を取得する。
	ListUsers(ctx context.Context) ([]*model.User, error)

	// InsertUser はuser.IDをキーとしてユーザーを作成する。
	InsertUser(ctx context.Context, user *model.User) error

	// UpdateFields はuserの指定フィールドのみを書き込む。
	// 対象が存在しない場合はErrUserNotFoundを返す。
	UpdateFields(ctx context.Context, user *model.User, fields []Field) error
}

// DirectoryIndex はストアのインデックス付き検索と条件付き書き込みの能力を表す。
// 全件走査の代わりに一意性判定と検索をストアへ委譲したい場合に使う。
type DirectoryIndex interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// InsertIfAbsent は同一メールアドレスのユーザーが存在しない場合のみ作成する。
	// 作成した場合はtrue、既に存在した場合はfalseを返す。判定と挿入は不可分に行われる。
	InsertIfAbsent(ctx context.Context, user *model.User) (bool, error)
}

// HealthChecker はストアの疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}
