// Package model はドメインモデルを定義する。
package model

import "math"

// MaxGraduationDate は保存できる卒業日の上限。ストアの符号付き64ビット整数に収まる範囲に限る。
const MaxGraduationDate uint64 = math.MaxInt64

// User はディレクトリに永続化される唯一のエンティティを表す。
// バッジ項目はバッジ作成が完了するまで全てnil、作成後は全て非nilとなる。
type User struct {
	ID       string
	Email    string
	Password string

	// バッジプロフィール
	FullName       *string
	University     *string
	Major          *string
	GraduationDate *uint64
	GitHub         *string
}

// HasBadge はバッジプロフィールが作成済みかどうかを返す。
func (u *User) HasBadge() bool {
	return u.FullName != nil
}

// ApplyBadge はバッジ5項目を無条件に上書きする。マージは行わない。
func (u *User) ApplyBadge(d BadgeDetails) {
	fullName := d.FullName
	university := d.University
	major := d.Major
	graduationDate := d.GraduationDate
	github := d.GitHub

	u.FullName = &fullName
	u.University = &university
	u.Major = &major
	u.GraduationDate = &graduationDate
	u.GitHub = &github
}

// Profile はクレデンシャルを除いた公開用の射影を返す。
func (u *User) Profile() *ProfileView {
	return &ProfileView{
		ID:             u.ID,
		FullName:       u.FullName,
		University:     u.University,
		Major:          u.Major,
		GraduationDate: u.GraduationDate,
		GitHub:         u.GitHub,
	}
}

// Credentials はサインアップ・ログインのリクエストボディ。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BadgeDetails はバッジ作成リクエストのボディ。
type BadgeDetails struct {
	FullName       string `json:"full_name"`
	University     string `json:"university"`
	Major          string `json:"major"`
	GraduationDate uint64 `json:"graduation_date"`
	GitHub         string `json:"github"`
}

// ProfileView は公開プロフィールのレスポンス型。
// email と password は含めない。未作成の項目は null としてシリアライズされる。
type ProfileView struct {
	ID             string  `json:"id"`
	FullName       *string `json:"full_name"`
	University     *string `json:"university"`
	Major          *string `json:"major"`
	GraduationDate *uint64 `json:"graduation_date"`
	GitHub         *string `json:"github"`
}
