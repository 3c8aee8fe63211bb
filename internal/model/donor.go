// Package model はドメインモデルを定義する。
package model

import "time"

// BloodGroup は標準8種の血液型を表す。
type BloodGroup string

// 標準8種の血液型
const (
	BloodGroupAPositive  BloodGroup = "A+"
	BloodGroupANegative  BloodGroup = "A-"
	BloodGroupBPositive  BloodGroup = "B+"
	BloodGroupBNegative  BloodGroup = "B-"
	BloodGroupABPositive BloodGroup = "AB+"
	BloodGroupABNegative BloodGroup = "AB-"
	BloodGroupOPositive  BloodGroup = "O+"
	BloodGroupONegative  BloodGroup = "O-"
)

// ValidBloodGroups は登録可能な血液型の一覧。
var ValidBloodGroups = []BloodGroup{
	BloodGroupAPositive, BloodGroupANegative,
	BloodGroupBPositive, BloodGroupBNegative,
	BloodGroupABPositive, BloodGroupABNegative,
	BloodGroupOPositive, BloodGroupONegative,
}

// IsValidBloodGroup は指定された文字列が標準8種の血液型かどうかを判定する。
func IsValidBloodGroup(s string) bool {
	for _, bg := range ValidBloodGroups {
		if string(bg) == s {
			return true
		}
	}
	return false
}

// Donor は献血ドナーのレコードを表す。
// Emailを一意キーとし、同一メールアドレスのドナーレコードは最大1件。
type Donor struct {
	ID          string
	Email       string
	BloodGroup  BloodGroup
	Area        string
	IsAvailable bool
	// Extra は登録時に呼び出し側が任意に付与するプロフィール項目。
	// スキーマレスなまま保持し、サービス層では中身を解釈しない。
	Extra     map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}
