// Package jikan はキー不要のアニメ検索プロバイダー（Jikan API v4）のクライアントを提供する。
package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/feinime/feinime/internal/model"
)

const (
	// DefaultBaseURL はJikan API v4のベースURL。
	DefaultBaseURL = "https://api.jikan.moe/v4"
	// DefaultSearchLimit は検索件数の既定値。
	DefaultSearchLimit = 20
	// maxSearchLimit はJikanが受け付けるlimitの上限。
	maxSearchLimit = 25
)

// Anime はJikanが返すアニメ1件。
// mal_idはMyAnimeListと同じ識別子で、model.AnimeIDに正規化される。
type Anime struct {
	ID       model.AnimeID `json:"mal_id"`
	Title    string        `json:"title"`
	Synopsis string        `json:"synopsis,omitempty"`
	Score    float64       `json:"score,omitempty"`
	Images   struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
}

// Picture はJikanの画像URLをmodel.Pictureに揃えて返す。
func (a Anime) Picture() *model.Picture {
	return &model.Picture{
		Medium: a.Images.JPG.ImageURL,
		Large:  a.Images.JPG.LargeImageURL,
	}
}

// Recommendation は利用者の推薦1件。entryには関連する2作品が入る。
type Recommendation struct {
	Entry   []Anime `json:"entry"`
	Content string  `json:"content"`
}

// Client はJikan API v4のクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使う。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Search はタイトルでアニメを検索する。
// limitが0以下の場合は既定値、上限を超える場合は上限に丸める。
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Anime, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("検索キーワードが空です")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var result struct {
		Data []Anime `json:"data"`
	}
	if err := c.getJSON(ctx, "/anime?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Recommendations は最近の利用者推薦を取得する。
func (c *Client) Recommendations(ctx context.Context) ([]Recommendation, error) {
	var result struct {
		Data []Recommendation `json:"data"`
	}
	if err := c.getJSON(ctx, "/recommendations/anime", &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Jikan APIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("jikan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Jikan APIがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("jikan returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		c.logger.Error("Jikan APIのレスポンスのパースに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}
