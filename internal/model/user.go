// Package model はドメインモデルを定義する。
package model

import "time"

// User は外部IdPのsubjectをキーとするサービス利用ユーザーを表す。
// サインインのたびにUPSERTされる。
type User struct {
	GoogleID  string
	Name      string
	Email     string
	Picture   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
