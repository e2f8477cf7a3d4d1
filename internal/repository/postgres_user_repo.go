package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feinime/feinime/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Upsert はgoogle_idをキーにユーザーを作成または更新する。
// 既存行はname、email、pictureを上書きし、updated_atを更新する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (google_id, name, email, picture)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (google_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   email = EXCLUDED.email,
		   picture = EXCLUDED.picture,
		   updated_at = now()
		 RETURNING created_at, updated_at`,
		user.GoogleID, user.Name, user.Email, user.Picture,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// List は登録済みの全ユーザーを作成日時順に返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT google_id, name, email, picture, created_at, updated_at
		 FROM users
		 ORDER BY created_at, google_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.GoogleID, &u.Name, &u.Email, &u.Picture, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
