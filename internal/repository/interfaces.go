// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/feinime/feinime/internal/model"
)

// UserRepository はユーザープロフィールの永続化インターフェース。
type UserRepository interface {
	// Upsert はgoogle_idをキーにユーザーを作成または更新する。
	// 同じ入力で何度呼んでも1行に保たれる。
	Upsert(ctx context.Context, user *model.User) error

	// List は登録済みの全ユーザーを作成日時順に返す。
	List(ctx context.Context) ([]*model.User, error)
}

// FavoriteRepository はお気に入りの永続化インターフェース。
type FavoriteRepository interface {
	// Upsert は(google_id, anime_id)をキーにお気に入りを作成または更新する。
	// 対応するユーザー行が無い場合はプレースホルダ行を同一トランザクションで作成する。
	Upsert(ctx context.Context, favorite *model.Favorite) error

	// Delete は(google_id, anime_id)の行を削除する。
	// 行が存在しなくてもエラーにはしない。
	Delete(ctx context.Context, googleID string, animeID model.AnimeID) error

	// ListByGoogleID はユーザーのお気に入りを登録順に返す。
	ListByGoogleID(ctx context.Context, googleID string) ([]*model.Favorite, error)
}
