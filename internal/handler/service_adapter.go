package handler

import (
	"context"

	"github.com/feinime/feinime/internal/favorite"
	"github.com/feinime/feinime/internal/model"
	"github.com/feinime/feinime/internal/user"
)

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
type UserServiceAdapter struct {
	svc *user.Service
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc}
}

// SaveUser はプロフィールを保存しhandlerレスポンス型で返す。
func (a *UserServiceAdapter) SaveUser(ctx context.Context, req saveUserRequest) (*userResponse, error) {
	u, err := a.svc.Save(ctx, user.SaveInput{
		GoogleID: req.GoogleID,
		Name:     req.Name,
		Email:    req.Email,
		Picture:  req.Picture,
	})
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// ListUsers は全ユーザーをhandlerレスポンス型で返す。
func (a *UserServiceAdapter) ListUsers(ctx context.Context) ([]userResponse, error) {
	users, err := a.svc.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	return results, nil
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		GoogleID:  u.GoogleID,
		Name:      u.Name,
		Email:     u.Email,
		Picture:   u.Picture,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FavoriteServiceAdapter は favorite.Service を FavoriteServiceInterface に適合させるアダプタ。
type FavoriteServiceAdapter struct {
	svc *favorite.Service
}

// NewFavoriteServiceAdapter はFavoriteServiceAdapterを生成する。
func NewFavoriteServiceAdapter(svc *favorite.Service) *FavoriteServiceAdapter {
	return &FavoriteServiceAdapter{svc: svc}
}

// AddFavorite はお気に入りを追加する。
func (a *FavoriteServiceAdapter) AddFavorite(ctx context.Context, req addFavoriteRequest) error {
	return a.svc.Add(ctx, favorite.AddInput{
		GoogleID: req.GoogleID,
		AnimeID:  req.AnimeID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
	})
}

// RemoveFavorite はお気に入りを削除する。
func (a *FavoriteServiceAdapter) RemoveFavorite(ctx context.Context, googleID string, animeID model.AnimeID) error {
	return a.svc.Remove(ctx, googleID, animeID)
}

// ListFavorites はお気に入り一覧をhandlerレスポンス型で返す。
func (a *FavoriteServiceAdapter) ListFavorites(ctx context.Context, googleID string) ([]favoriteResponse, error) {
	favs, err := a.svc.List(ctx, googleID)
	if err != nil {
		return nil, err
	}

	results := make([]favoriteResponse, len(favs))
	for i, f := range favs {
		results[i] = favoriteResponse{
			GoogleID:  f.GoogleID,
			AnimeID:   f.AnimeID,
			Title:     f.Title,
			ImageURL:  f.ImageURL,
			CreatedAt: f.CreatedAt,
		}
	}
	return results, nil
}
