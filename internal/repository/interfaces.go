// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/bloodlink/internal/model"
)

// DonorFilter はdonorsコレクションに対する検索条件。
// ゼロ値のフィールドは条件に含めない。
type DonorFilter struct {
	BloodGroup    string
	Area          string
	OnlyAvailable bool
	CreatedAfter  time.Time
}

// UserFilter はusersコレクションに対する検索条件。
// ゼロ値のフィールドは条件に含めない。
type UserFilter struct {
	// EmailContains はメールアドレスの部分一致（大文字小文字を区別しない）。
	EmailContains string
	Role          model.Role
	CreatedAfter  time.Time
}

// DonorRepository はドナーレコードの永続化インターフェース。
type DonorRepository interface {
	// FindByEmail は指定メールアドレスのドナーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Donor, error)

	// List は条件に一致するドナーをcreatedAt昇順（同時刻は_id昇順）で返す。
	// offset/limitでページングする。
	List(ctx context.Context, filter DonorFilter, offset, limit int) ([]*model.Donor, error)

	// Count は条件に一致するドナー数を返す。Listと同一の条件式を使用する。
	Count(ctx context.Context, filter DonorFilter) (int64, error)

	// Create はドナーを作成し、生成されたレコードIDを返す。
	// 一意性チェックは呼び出し側（サービス層）の責務。
	Create(ctx context.Context, donor *model.Donor) (string, error)

	// UpdateByEmail は指定フィールドのみを部分更新し、更新されたレコード数を返す。
	// レコードが存在しない場合は0を返す（エラーにしない）。
	UpdateByEmail(ctx context.Context, email string, fields map[string]any) (int64, error)

	// DeleteByEmail は指定メールアドレスのドナーを削除し、削除されたレコード数を返す。
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

// UserRepository はユーザーレコードの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、生成されたレコードIDを返す。
	Create(ctx context.Context, user *model.User) (string, error)

	// List は条件に一致するユーザーをcreatedAt降順（新しい順）で最大limit件返す。
	List(ctx context.Context, filter UserFilter, limit int) ([]*model.User, error)

	// Count は条件に一致するユーザー数を返す。Listと同一の条件式を使用する。
	Count(ctx context.Context, filter UserFilter) (int64, error)

	// SetDonorFlag はユーザーの非正規化isDonorフラグを更新し、更新されたレコード数を返す。
	// ユーザーが存在しない場合は0を返す（エラーにしない）。
	SetDonorFlag(ctx context.Context, email string, isDonor bool) (int64, error)
}
