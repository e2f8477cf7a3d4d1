package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/feinime/feinime/internal/gateway"
	"github.com/feinime/feinime/internal/model"
)

// animeView はアニメ詳細にお気に入り状態を加えた表示用JSON。
type animeView struct {
	*gateway.AnimeDetail
	Favorite bool `json:"favorite"`
}

// defaultPerPage はtopの1ページあたりの表示件数。
const defaultPerPage = 10

// Top はランキング上位のアニメを表示する。取得した一覧は手元でページ分割する。
func (r *Runner) Top(ctx context.Context, cmd *cli.Command) error {
	page, perPage := cmd.Int("page"), cmd.Int("per-page")
	if page < 1 || perPage < 1 {
		return errors.New("--page and --per-page must be at least 1")
	}

	animes, err := r.gateway.TopAnime(ctx, cmd.String("ranking-type"), cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to fetch top anime: %w", err)
	}
	animes = paginate(animes, page, perPage)

	if cmd.Bool("json") {
		return r.writeJSON(animes, cmd.Bool("pretty"))
	}
	for _, a := range animes {
		if err := r.writePlain("%7d  %s\n", a.ID, a.Title); err != nil {
			return err
		}
	}
	return nil
}

// paginate はpage番目（1始まり）のperPage件を返す。範囲外なら空。
func paginate[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := min(start+perPage, len(items))
	return items[start:end]
}

// Anime はアニメ詳細を表示する。サインイン中ならお気に入り状態も表示する。
func (r *Runner) Anime(ctx context.Context, cmd *cli.Command) error {
	id, err := parseAnimeArg(cmd)
	if err != nil {
		return err
	}

	detail, err := r.gateway.AnimeDetail(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch anime %s: %w", id, err)
	}

	favorite := false
	if googleID := r.session.Identity(); googleID != "" {
		favorite, err = r.favorites.IsFavorite(ctx, googleID, id)
		if err != nil {
			r.logger.Warn("could not check favorites", "anime_id", id, "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(animeView{AnimeDetail: detail, Favorite: favorite}, cmd.Bool("pretty"))
	}

	mark := " "
	if favorite {
		mark = "*"
	}
	genres := make([]string, len(detail.Genres))
	for i, g := range detail.Genres {
		genres[i] = g.Name
	}
	return r.writePlain("%s %s (%d)\n  episodes: %d  score: %.2f  status: %s\n  genres: %s\n  image: %s\n\n%s\n",
		mark, detail.Title, detail.ID,
		detail.NumEpisodes, detail.Mean, detail.Status,
		strings.Join(genres, ", "),
		detail.MainPicture.BestURL(),
		detail.Synopsis,
	)
}

// Search はキー不要のプロバイダーでタイトル検索する。
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return errors.New("search query is required")
	}

	results, err := r.jikan.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}
	for _, a := range results {
		if err := r.writePlain("%7d  %s\n", a.ID, a.Title); err != nil {
			return err
		}
	}
	return nil
}

// Recommend は利用者の推薦を表示する。
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	recs, err := r.jikan.Recommendations(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch recommendations: %w", err)
	}
	if limit := cmd.Int("limit"); limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(recs, cmd.Bool("pretty"))
	}
	for _, rec := range recs {
		titles := make([]string, len(rec.Entry))
		for i, a := range rec.Entry {
			titles[i] = fmt.Sprintf("%s (%d)", a.Title, a.ID)
		}
		if err := r.writePlain("%s\n", strings.Join(titles, " <-> ")); err != nil {
			return err
		}
	}
	return nil
}

func parseAnimeArg(cmd *cli.Command) (model.AnimeID, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, errors.New("anime id is required")
	}
	id, err := model.ParseAnimeID(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid anime id: %w", err)
	}
	return id, nil
}
