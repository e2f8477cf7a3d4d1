package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feinime/feinime/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// Upsert はお気に入りを作成または更新する。
// favorites.google_idはusersを参照するため、ユーザー保存より先に
// お気に入りが届いた場合に備えて空のプロフィール行を先に確保する。
func (r *PostgresFavoriteRepo) Upsert(ctx context.Context, favorite *model.Favorite) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (google_id) VALUES ($1)
		 ON CONFLICT (google_id) DO NOTHING`,
		favorite.GoogleID,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure user row: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO favorites (google_id, anime_id, title, image_url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (google_id, anime_id) DO UPDATE SET
		   title = EXCLUDED.title,
		   image_url = EXCLUDED.image_url,
		   updated_at = now()
		 RETURNING created_at, updated_at`,
		favorite.GoogleID, int64(favorite.AnimeID), favorite.Title, favorite.ImageURL,
	).Scan(&favorite.CreatedAt, &favorite.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert favorite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete は(google_id, anime_id)の行を削除する。
// 存在しない行の削除は成功扱いとする。
func (r *PostgresFavoriteRepo) Delete(ctx context.Context, googleID string, animeID model.AnimeID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE google_id = $1 AND anime_id = $2`,
		googleID, int64(animeID),
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

// ListByGoogleID はユーザーのお気に入りを登録順に返す。
// 該当が無い場合は空スライスを返す。
func (r *PostgresFavoriteRepo) ListByGoogleID(ctx context.Context, googleID string) ([]*model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT google_id, anime_id, title, image_url, created_at, updated_at
		 FROM favorites
		 WHERE google_id = $1
		 ORDER BY created_at, anime_id`,
		googleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*model.Favorite, 0)
	for rows.Next() {
		f := &model.Favorite{}
		var animeID int64
		if err := rows.Scan(&f.GoogleID, &animeID, &f.Title, &f.ImageURL, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		f.AnimeID = model.AnimeID(animeID)
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}

	return favorites, nil
}

// compile-time interface check
var _ FavoriteRepository = (*PostgresFavoriteRepo)(nil)
