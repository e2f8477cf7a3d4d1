package repository

import (
	"context"
	"testing"

	"github.com/feinime/feinime/internal/model"
)

func TestMemoryFavoriteRepo_UpsertKeepsSingleRow(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Favorites()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Upsert(ctx, &model.Favorite{GoogleID: "u1", AnimeID: 20, Title: "Naruto"}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	if err := repo.Upsert(ctx, &model.Favorite{GoogleID: "u1", AnimeID: 20, Title: "NARUTO"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	favs, _ := repo.ListByGoogleID(ctx, "u1")
	if len(favs) != 1 {
		t.Fatalf("len(favs) = %d, want 1", len(favs))
	}
	if favs[0].Title != "NARUTO" {
		t.Errorf("Title = %q, want last write", favs[0].Title)
	}
}

func TestMemoryFavoriteRepo_UpsertCreatesPlaceholderUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Favorites().Upsert(ctx, &model.Favorite{GoogleID: "u1", AnimeID: 1}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	users, _ := store.Users().List(ctx)
	if len(users) != 1 || users[0].GoogleID != "u1" {
		t.Errorf("users = %+v, want placeholder for u1", users)
	}
}

func TestMemoryFavoriteRepo_DeleteIsIdempotent(t *testing.T) {
	repo := NewMemoryStore().Favorites()
	ctx := context.Background()

	repo.Upsert(ctx, &model.Favorite{GoogleID: "u1", AnimeID: 20})
	for i := 0; i < 2; i++ {
		if err := repo.Delete(ctx, "u1", 20); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
	}
	if err := repo.Delete(ctx, "nobody", 1); err != nil {
		t.Fatalf("Delete() on absent row error = %v", err)
	}

	favs, _ := repo.ListByGoogleID(ctx, "u1")
	if len(favs) != 0 {
		t.Errorf("len(favs) = %d, want 0", len(favs))
	}
}

func TestMemoryStore_DeleteUserCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Users().Upsert(ctx, &model.User{GoogleID: "u1", Name: "A"})
	store.Favorites().Upsert(ctx, &model.Favorite{GoogleID: "u1", AnimeID: 20})
	store.DeleteUser("u1")

	favs, _ := store.Favorites().ListByGoogleID(ctx, "u1")
	if favs == nil || len(favs) != 0 {
		t.Errorf("favs = %v, want empty non-nil slice", favs)
	}
}

func TestMemoryUserRepo_UpsertKeepsCreatedAt(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Users()
	ctx := context.Background()

	first := &model.User{GoogleID: "u1", Name: "A"}
	repo.Upsert(ctx, first)
	second := &model.User{GoogleID: "u1", Name: "B"}
	repo.Upsert(ctx, second)

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v != %v", second.CreatedAt, first.CreatedAt)
	}
	users, _ := repo.List(ctx)
	if len(users) != 1 || users[0].Name != "B" {
		t.Errorf("users = %+v, want single updated row", users)
	}
}
