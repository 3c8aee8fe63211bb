// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに返す原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, donor, user, system
	Action   string // クライアント向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeDonorNotFound      = "DONOR_NOT_FOUND"
	ErrCodeDonorAlreadyExists = "DONOR_ALREADY_EXISTS"
	ErrCodeInvalidBloodGroup  = "INVALID_BLOOD_GROUP"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
)

// NewUnauthorizedError は認証情報が欠落・不正な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "Authorizationヘッダーにベアラートークンを設定してください。",
	}
}

// NewForbiddenError はアクセスが拒否された場合のエラーを生成する。
// 拒否理由（トークン検証失敗、本人不一致、管理者権限なし）をreasonに指定する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("アクセスが拒否されました: %s", reason),
		Category: "auth",
		Action:   "アクセス権限を確認してください。",
	}
}

// NewDonorNotFoundError はドナーレコードが存在しない場合のエラーを生成する。
func NewDonorNotFoundError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDonorNotFound,
		Message:  fmt.Sprintf("指定されたドナーが見つかりません: %s", email),
		Category: "donor",
		Action:   "メールアドレスを確認してください。",
	}
}

// NewDonorAlreadyExistsError は同一メールアドレスのドナーが既に存在する場合のエラーを生成する。
func NewDonorAlreadyExistsError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDonorAlreadyExists,
		Message:  fmt.Sprintf("このメールアドレスのドナーは既に登録されています: %s", email),
		Category: "donor",
		Action:   "既存のドナーレコードを更新してください。",
	}
}

// NewInvalidBloodGroupError は無効な血液型が指定された場合のエラーを生成する。
func NewInvalidBloodGroupError(bloodGroup string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBloodGroup,
		Message:  fmt.Sprintf("無効な血液型です: %s", bloodGroup),
		Category: "validation",
		Action:   "A+, A-, B+, B-, AB+, AB-, O+, O- のいずれかを指定してください。",
	}
}

// NewInvalidEmailError は無効なメールアドレスが指定された場合のエラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: "validation",
		Action:   "正しいメールアドレス形式で指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析に失敗した場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
