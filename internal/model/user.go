// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーを示す。登録時のデフォルト。
	RoleUser Role = "user"
	// RoleAdmin は管理者を示す。管理ダッシュボードへのアクセスに必要。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// Emailを一意キーとし、初回サインイン時に冪等に作成される。
// IsDonorはドナーレコードの存在を非正規化したフラグで、
// ドナーサービスが作成・削除時にベストエフォートで同期する。
type User struct {
	ID        string
	Email     string
	Name      string
	PhotoURL  string
	Role      Role
	IsDonor   bool
	CreatedAt time.Time
}

// NewDefaultUser は未登録メールアドレスに対する既定のユーザーを合成する。
// GET /users/:email はレコード未存在でも404を返さず、このデフォルトを返す。
// 永続化はしない。
func NewDefaultUser(email string) *User {
	return &User{
		Email:   email,
		Role:    RoleUser,
		IsDonor: false,
	}
}
