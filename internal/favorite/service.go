// Package favorite はお気に入り管理のドメインロジックを提供する。
// (google_id, anime_id) の組で一意なお気に入りの追加、削除、一覧を扱う。
package favorite

import (
	"context"
	"log/slog"
	"strings"

	"github.com/feinime/feinime/internal/model"
	"github.com/feinime/feinime/internal/repository"
	"github.com/feinime/feinime/internal/security"
)

// 操作名。メトリクスとログのラベルに使う。
const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// Recorder はお気に入り更新の結果を記録する。
type Recorder interface {
	RecordFavoriteMutation(op, outcome string)
}

// AddInput はお気に入り追加の入力。
type AddInput struct {
	GoogleID string
	AnimeID  model.AnimeID
	Title    string
	ImageURL string
}

// Service はお気に入り管理のサービス層。
type Service struct {
	favoriteRepo repository.FavoriteRepository
	sanitizer    security.ContentSanitizerService
	recorder     Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewService(
	favoriteRepo repository.FavoriteRepository,
	sanitizer security.ContentSanitizerService,
	recorder Recorder,
) *Service {
	return &Service{
		favoriteRepo: favoriteRepo,
		sanitizer:    sanitizer,
		recorder:     recorder,
	}
}

// Add はお気に入りをUPSERTする。同じ組で何度呼んでも1行に保たれる。
// identityが空の場合はストアに触れずに検証エラーを返す。
func (s *Service) Add(ctx context.Context, in AddInput) error {
	googleID := strings.TrimSpace(in.GoogleID)
	if googleID == "" {
		return model.NewIdentityRequiredError()
	}
	if !in.AnimeID.Valid() {
		return model.NewInvalidAnimeIDError(in.AnimeID.String())
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if err := security.ValidateLinkURL(imageURL); err != nil {
		return model.NewInvalidURLError("image_url", err.Error())
	}

	fav := &model.Favorite{
		GoogleID: googleID,
		AnimeID:  in.AnimeID,
		Title:    s.sanitizer.SanitizeText(in.Title),
		ImageURL: imageURL,
	}

	if err := s.favoriteRepo.Upsert(ctx, fav); err != nil {
		s.record(OpAdd, "error")
		return model.PersistenceError("お気に入りの追加に失敗しました", err)
	}
	s.record(OpAdd, "ok")

	slog.Info("お気に入りを追加しました",
		slog.String("google_id", googleID),
		slog.Int64("anime_id", int64(in.AnimeID)),
	)

	return nil
}

// Remove はお気に入りを削除する。存在しない組の削除も成功扱いとする。
func (s *Service) Remove(ctx context.Context, googleID string, animeID model.AnimeID) error {
	googleID = strings.TrimSpace(googleID)
	if googleID == "" {
		return model.NewIdentityRequiredError()
	}
	if !animeID.Valid() {
		return model.NewInvalidAnimeIDError(animeID.String())
	}

	if err := s.favoriteRepo.Delete(ctx, googleID, animeID); err != nil {
		s.record(OpRemove, "error")
		return model.PersistenceError("お気に入りの削除に失敗しました", err)
	}
	s.record(OpRemove, "ok")

	slog.Info("お気に入りを削除しました",
		slog.String("google_id", googleID),
		slog.Int64("anime_id", int64(animeID)),
	)

	return nil
}

// List はユーザーのお気に入り一覧を返す。該当が無い場合は空スライス。
func (s *Service) List(ctx context.Context, googleID string) ([]*model.Favorite, error) {
	googleID = strings.TrimSpace(googleID)
	if googleID == "" {
		return nil, model.NewIdentityRequiredError()
	}

	favs, err := s.favoriteRepo.ListByGoogleID(ctx, googleID)
	if err != nil {
		return nil, model.PersistenceError("お気に入り一覧の取得に失敗しました", err)
	}
	if favs == nil {
		favs = []*model.Favorite{}
	}
	return favs, nil
}

func (s *Service) record(op, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordFavoriteMutation(op, outcome)
	}
}
