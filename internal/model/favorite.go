// Package model はドメインモデルを定義する。
package model

import "time"

// Favorite はユーザーとアニメのお気に入り関係を表す。
// (GoogleID, AnimeID) の組で一意。TitleとImageURLは登録時点のスナップショット。
type Favorite struct {
	GoogleID  string
	AnimeID   AnimeID
	Title     string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
