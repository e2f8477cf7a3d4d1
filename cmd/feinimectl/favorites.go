package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/feinime/feinime/internal/session"
)

// FavList はサインイン中のidentityのお気に入りを表示する。
func (r *Runner) FavList(ctx context.Context, cmd *cli.Command) error {
	googleID := r.session.Identity()
	if googleID == "" {
		return errNotSignedIn
	}

	favorites, err := r.favorites.List(ctx, googleID)
	if err != nil {
		return fmt.Errorf("failed to fetch favorites: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(favorites, cmd.Bool("pretty"))
	}
	if len(favorites) == 0 {
		return r.writePlain("No favorites yet\n")
	}
	for _, f := range favorites {
		if err := r.writePlain("%7d  %s\n", f.AnimeID, f.Title); err != nil {
			return err
		}
	}
	return nil
}

// FavToggle はアニメのお気に入り状態を反転する。
// 失敗した場合は表示状態が元に戻り、何も変わっていないことを通知する。
func (r *Runner) FavToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := parseAnimeArg(cmd)
	if err != nil {
		return err
	}

	googleID := r.session.Identity()
	anime := session.Anime{ID: id}
	if googleID != "" {
		detail, err := r.gateway.AnimeDetail(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch anime %s: %w", id, err)
		}
		anime.Title = detail.Title
		anime.Picture = detail.MainPicture
	}

	unsubscribe := r.favorites.Subscribe(func(c session.FlagChange) {
		r.logger.Debug("favorite flag changed", "anime_id", c.AnimeID, "favorite", c.Favorite)
	})
	defer unsubscribe()

	now, err := r.favorites.Toggle(ctx, googleID, anime)
	switch {
	case errors.Is(err, session.ErrAuthRequired):
		return errNotSignedIn
	case errors.Is(err, session.ErrToggleFailed):
		return fmt.Errorf("could not update favorites, nothing was changed: %w", err)
	case err != nil:
		return err
	}

	if now {
		return r.writePlain("Added %s (%d) to favorites\n", anime.Title, anime.ID)
	}
	return r.writePlain("Removed %s (%d) from favorites\n", anime.Title, anime.ID)
}
