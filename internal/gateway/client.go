// Package gateway はfeinimeゲートウェイのREST APIを呼び出す型付きクライアントを提供する。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/feinime/feinime/internal/model"
)

// maxBodySize はレスポンスボディの読み取り上限（4MB）。
const maxBodySize = 4 << 20

// APIErrorBody はゲートウェイの統一エラーボディ。
type APIErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// StatusError はゲートウェイが非2xxを返したことを表す。
type StatusError struct {
	StatusCode int
	Body       APIErrorBody
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("gateway returned status %d (%s)", e.StatusCode, e.Body.Code)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

// IsStatusError はerrがStatusErrorを含む場合にそれを返す。
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Anime はランキング一覧の1件。
type Anime struct {
	ID          model.AnimeID  `json:"id"`
	Title       string         `json:"title"`
	MainPicture *model.Picture `json:"main_picture,omitempty"`
}

// Genre はアニメのジャンル。
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AnimeDetail はアニメ詳細。
type AnimeDetail struct {
	Anime
	Synopsis    string  `json:"synopsis"`
	NumEpisodes int     `json:"num_episodes"`
	Mean        float64 `json:"mean"`
	Status      string  `json:"status"`
	Genres      []Genre `json:"genres"`
}

// User はゲートウェイが返すユーザー。
type User struct {
	GoogleID  string    `json:"google_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Favorite はゲートウェイが返すお気に入り。
type Favorite struct {
	GoogleID  string        `json:"google_id"`
	AnimeID   model.AnimeID `json:"anime_id"`
	Title     string        `json:"title"`
	ImageURL  string        `json:"image_url"`
	CreatedAt time.Time     `json:"created_at"`
}

// AddFavoriteInput はお気に入り追加の入力。
type AddFavoriteInput struct {
	GoogleID string        `json:"google_id"`
	AnimeID  model.AnimeID `json:"anime_id"`
	Title    string        `json:"title"`
	ImageURL string        `json:"image_url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Client はゲートウェイのHTTPクライアント。リトライは行わない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// TopAnime はランキング上位のアニメを取得する。
// rankingTypeが空、limitが0以下の場合はゲートウェイの既定値に任せる。
func (c *Client) TopAnime(ctx context.Context, rankingType string, limit int) ([]Anime, error) {
	q := url.Values{}
	if rankingType != "" {
		q.Set("ranking_type", rankingType)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/anime"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result struct {
		Data []struct {
			Node Anime `json:"node"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	animes := make([]Anime, len(result.Data))
	for i, d := range result.Data {
		animes[i] = d.Node
	}
	return animes, nil
}

// AnimeDetail は単一アニメの詳細を取得する。
func (c *Client) AnimeDetail(ctx context.Context, id model.AnimeID) (*AnimeDetail, error) {
	var detail AnimeDetail
	if err := c.do(ctx, http.MethodGet, "/api/anime/"+id.String(), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SaveUser はプロフィールを保存し、保存後のユーザーを返す。
func (c *Client) SaveUser(ctx context.Context, u model.User) (*User, error) {
	in := map[string]string{
		"google_id": u.GoogleID,
		"name":      u.Name,
		"email":     u.Email,
		"picture":   u.Picture,
	}
	var result struct {
		Message string `json:"message"`
		User    *User  `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/save-user", in, &result); err != nil {
		return nil, err
	}
	return result.User, nil
}

// ListUsers は登録済みの全ユーザーを取得する。
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddFavorite はお気に入りを追加する。
func (c *Client) AddFavorite(ctx context.Context, in AddFavoriteInput) error {
	return c.do(ctx, http.MethodPost, "/api/favorites", in, &messageResponse{})
}

// RemoveFavorite はお気に入りを削除する。
func (c *Client) RemoveFavorite(ctx context.Context, googleID string, animeID model.AnimeID) error {
	in := struct {
		GoogleID string        `json:"google_id"`
		AnimeID  model.AnimeID `json:"anime_id"`
	}{googleID, animeID}
	return c.do(ctx, http.MethodDelete, "/api/favorites", in, &messageResponse{})
}

// ListFavorites はユーザーのお気に入り一覧を取得する。
func (c *Client) ListFavorites(ctx context.Context, googleID string) ([]Favorite, error) {
	favs := []Favorite{}
	if err := c.do(ctx, http.MethodGet, "/api/favorites/"+url.PathEscape(googleID), nil, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// SignOut はサインアウトをゲートウェイに通知する。
func (c *Client) SignOut(ctx context.Context, googleID string) error {
	in := map[string]string{"google_id": googleID}
	return c.do(ctx, http.MethodPost, "/api/sign-out", in, &messageResponse{})
}

// do はリクエストを送り、2xxならボディをdstにデコードする。
// 非2xxは*StatusErrorを返す。
func (c *Client) do(ctx context.Context, method, path string, in, dst any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, &se.Body); err != nil {
			c.logger.Debug("gateway error body is not JSON",
				slog.String("path", path),
				slog.Int("http_status", resp.StatusCode),
			)
		}
		return se
	}

	if dst == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}
