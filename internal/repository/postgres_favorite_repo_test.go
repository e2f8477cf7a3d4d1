package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/feinime/feinime/internal/model"
)

func newMockFavoriteRepo(t *testing.T) (*PostgresFavoriteRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewPostgresFavoriteRepo(db), mock
}

func TestPostgresFavoriteRepo_Upsert_EnsuresUserInSameTransaction(t *testing.T) {
	repo, mock := newMockFavoriteRepo(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users \(google_id\) VALUES \(\$1\)\s+ON CONFLICT \(google_id\) DO NOTHING`).
		WithArgs("g-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO favorites .* ON CONFLICT \(google_id, anime_id\) DO UPDATE`).
		WithArgs("g-1", int64(20), "Naruto", "https://cdn.myanimelist.net/images/anime/13/17405.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	fav := &model.Favorite{
		GoogleID: "g-1",
		AnimeID:  20,
		Title:    "Naruto",
		ImageURL: "https://cdn.myanimelist.net/images/anime/13/17405.jpg",
	}
	if err := repo.Upsert(context.Background(), fav); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if fav.CreatedAt.IsZero() {
		t.Error("CreatedAt should be populated from RETURNING")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresFavoriteRepo_Upsert_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockFavoriteRepo(t)

	cause := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO favorites`).WillReturnError(cause)
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), &model.Favorite{GoogleID: "g-1", AnimeID: 20})
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped %v", err, cause)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresFavoriteRepo_Delete_MissingRowIsNotAnError(t *testing.T) {
	repo, mock := newMockFavoriteRepo(t)

	mock.ExpectExec(`DELETE FROM favorites WHERE google_id = \$1 AND anime_id = \$2`).
		WithArgs("g-1", int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "g-1", 999); err != nil {
		t.Errorf("Delete returned error: %v", err)
	}
}

func TestPostgresFavoriteRepo_Delete_WrapsDriverError(t *testing.T) {
	repo, mock := newMockFavoriteRepo(t)

	cause := errors.New("connection refused")
	mock.ExpectExec(`DELETE FROM favorites`).WillReturnError(cause)

	if err := repo.Delete(context.Background(), "g-1", 20); !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped %v", err, cause)
	}
}

func TestPostgresFavoriteRepo_ListByGoogleID(t *testing.T) {
	repo, mock := newMockFavoriteRepo(t)

	now := time.Now()
	mock.ExpectQuery(`FROM favorites\s+WHERE google_id = \$1`).
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows([]string{"google_id", "anime_id", "title", "image_url", "created_at", "updated_at"}).
			AddRow("g-1", int64(20), "Naruto", "x.jpg", now, now).
			AddRow("g-1", int64(21), "One Piece", "", now, now))

	favs, err := repo.ListByGoogleID(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("ListByGoogleID returned error: %v", err)
	}
	if len(favs) != 2 {
		t.Fatalf("len(favs) = %d, want 2", len(favs))
	}
	if favs[0].AnimeID != 20 || favs[1].AnimeID != 21 {
		t.Errorf("anime ids = [%d %d], want [20 21]", favs[0].AnimeID, favs[1].AnimeID)
	}
}

func TestPostgresFavoriteRepo_ListByGoogleID_Empty(t *testing.T) {
	repo, mock := newMockFavoriteRepo(t)

	mock.ExpectQuery(`FROM favorites`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"google_id", "anime_id", "title", "image_url", "created_at", "updated_at"}))

	favs, err := repo.ListByGoogleID(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByGoogleID returned error: %v", err)
	}
	if favs == nil || len(favs) != 0 {
		t.Errorf("favs = %v, want empty non-nil slice", favs)
	}
}
