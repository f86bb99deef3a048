package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/badgeman/internal/model"
	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

const selectUserColumns = `id, email, password, full_name, university, major, graduation_date, github`

// PostgresUserRepo はPostgreSQLを使用したユーザーディレクトリ。
// usersテーブルをidをキーとしたコレクションとして扱う。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// ListUsers はusersテーブルの全件を作成順で取得する。
func (r *PostgresUserRepo) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectUserColumns+` FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// InsertUser はユーザーを作成する。
// emailの一意インデックスに違反した場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) InsertUser(ctx context.Context, user *model.User) error {
	args, err := insertArgs(user)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (`+selectUserColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// InsertIfAbsent は同一メールアドレスが存在しない場合のみユーザーを作成する。
// ON CONFLICT DO NOTHING によって判定と挿入を1文で行う。
func (r *PostgresUserRepo) InsertIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	args, err := insertArgs(user)
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+selectUserColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (email) DO NOTHING`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// UpdateFields はfieldsで指定したカラムのみを更新する。
// 指定外のカラムには触れない。
func (r *PostgresUserRepo) UpdateFields(ctx context.Context, user *model.User, fields []Field) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("user id is required for update")
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields to update")
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		v, err := fieldValue(user, f)
		if err != nil {
			return err
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", f, i+1))
		args = append(args, v)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, user.ID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user fields: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+selectUserColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// PingContext はデータベースへの疎通を確認する。
func (r *PostgresUserRepo) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u              model.User
		fullName       sql.NullString
		university     sql.NullString
		major          sql.NullString
		graduationDate sql.NullInt64
		github         sql.NullString
	)
	if err := row.Scan(
		&u.ID, &u.Email, &u.Password,
		&fullName, &university, &major, &graduationDate, &github,
	); err != nil {
		return nil, err
	}

	u.FullName = stringPtr(fullName)
	u.University = stringPtr(university)
	u.Major = stringPtr(major)
	u.GitHub = stringPtr(github)
	if graduationDate.Valid && graduationDate.Int64 >= 0 {
		v := uint64(graduationDate.Int64)
		u.GraduationDate = &v
	}
	return &u, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func insertArgs(user *model.User) ([]any, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user id is required for insert")
	}
	args := []any{user.ID, user.Email, user.Password}
	for _, f := range []Field{FieldFullName, FieldUniversity, FieldMajor, FieldGraduationDate, FieldGitHub} {
		v, err := fieldValue(user, f)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// compile-time interface check
var (
	_ DirectoryStore = (*PostgresUserRepo)(nil)
	_ DirectoryIndex = (*PostgresUserRepo)(nil)
	_ HealthChecker  = (*PostgresUserRepo)(nil)
)
