package session

import (
	"context"

	"github.com/feinime/feinime/internal/gateway"
	"github.com/feinime/feinime/internal/model"
)

type mockUserBackend struct {
	saveUserFn func(ctx context.Context, u model.User) (*gateway.User, error)
	signOutFn  func(ctx context.Context, googleID string) error
}

func (m *mockUserBackend) SaveUser(ctx context.Context, u model.User) (*gateway.User, error) {
	if m.saveUserFn == nil {
		return &gateway.User{GoogleID: u.GoogleID}, nil
	}
	return m.saveUserFn(ctx, u)
}

func (m *mockUserBackend) SignOut(ctx context.Context, googleID string) error {
	if m.signOutFn == nil {
		return nil
	}
	return m.signOutFn(ctx, googleID)
}

type mockFavoritesBackend struct {
	listFn   func(ctx context.Context, googleID string) ([]gateway.Favorite, error)
	addFn    func(ctx context.Context, in gateway.AddFavoriteInput) error
	removeFn func(ctx context.Context, googleID string, animeID model.AnimeID) error
}

func (m *mockFavoritesBackend) ListFavorites(ctx context.Context, googleID string) ([]gateway.Favorite, error) {
	return m.listFn(ctx, googleID)
}

func (m *mockFavoritesBackend) AddFavorite(ctx context.Context, in gateway.AddFavoriteInput) error {
	return m.addFn(ctx, in)
}

func (m *mockFavoritesBackend) RemoveFavorite(ctx context.Context, googleID string, animeID model.AnimeID) error {
	return m.removeFn(ctx, googleID, animeID)
}

// failingStorage は常に失敗するStorage。
type failingStorage struct{ err error }

func (s failingStorage) Load() (*model.User, error) { return nil, s.err }
func (s failingStorage) Save(model.User) error      { return s.err }
func (s failingStorage) Clear() error               { return s.err }
