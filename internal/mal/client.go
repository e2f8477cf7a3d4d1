// Package mal はMyAnimeList API v2 のプロキシクライアントを提供する。
// クライアントIDはサーバー側だけが保持し、レスポンスやログには出さない。
package mal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/feinime/feinime/internal/model"
)

const (
	// DefaultBaseURL はMyAnimeList APIのベースURL。
	DefaultBaseURL = "https://api.myanimelist.net"
	// clientIDHeader はクライアントIDを送るヘッダー名。
	clientIDHeader = "X-MAL-CLIENT-ID"

	rankingFields = "id,title,main_picture"
	detailFields  = "id,title,main_picture,synopsis,num_episodes,mean,status,genres"

	// DefaultRankingLimit はランキング取得件数の既定値。
	DefaultRankingLimit = 50
	// MaxRankingLimit はMAL側が受け付けるlimitの上限。
	MaxRankingLimit = 500
	// DefaultRankingType はランキング種別の既定値。
	DefaultRankingType = "all"

	// maxBodySize は上流レスポンスの読み取り上限（4MB）。
	maxBodySize = 4 << 20
)

// rankingTypes はMALが受け付けるランキング種別。
var rankingTypes = map[string]bool{
	"all":          true,
	"airing":       true,
	"upcoming":     true,
	"tv":           true,
	"ova":          true,
	"movie":        true,
	"special":      true,
	"bypopularity": true,
	"favorite":     true,
}

// ValidRankingType はランキング種別がMALで受け付けられるかを返す。
func ValidRankingType(rankingType string) bool {
	return rankingTypes[rankingType]
}

// StatusError は上流が非2xxを返したことを表す。
// ゲートウェイは同じステータスコードを汎用ボディで返す。
type StatusError struct {
	StatusCode int
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("myanimelist returned status %d", e.StatusCode)
}

// IsStatusError はerrがStatusErrorを含む場合にそれを返す。
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Observer は上流呼び出しの結果を受け取る。メトリクス記録に使う。
type Observer interface {
	ObserveUpstream(endpoint, outcome string, duration time.Duration)
}

// Client はMyAnimeList API v2 のクライアント。
// 受け取ったJSONは加工せずにそのまま返す。キャッシュやリトライは行わない。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	clientID   string
	baseURL    string
	observer   Observer
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使う。
func NewClient(httpClient *http.Client, logger *slog.Logger, clientID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		clientID:   clientID,
		baseURL:    baseURL,
	}
}

// WithObserver は上流呼び出しの観測者を設定したClientを返す。
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// TopAnime はランキング一覧を取得する。
// rankingTypeが空の場合は"all"、limitが0以下の場合は既定値を使う。
func (c *Client) TopAnime(ctx context.Context, rankingType string, limit int) ([]byte, error) {
	if rankingType == "" {
		rankingType = DefaultRankingType
	}
	if limit <= 0 {
		limit = DefaultRankingLimit
	}

	q := url.Values{}
	q.Set("ranking_type", rankingType)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", rankingFields)

	return c.get(ctx, "ranking", "/v2/anime/ranking", q)
}

// Detail は単一アニメの詳細を取得する。
func (c *Client) Detail(ctx context.Context, id model.AnimeID) ([]byte, error) {
	q := url.Values{}
	q.Set("fields", detailFields)

	return c.get(ctx, "detail", "/v2/anime/"+id.String(), q)
}

// get は上流にGETリクエストを送り、2xxの場合はボディを返す。
// 非2xxは*StatusError、通信失敗はラップしたエラーを返す。
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set(clientIDHeader, c.clientID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "error", start)
		c.logger.Error("MyAnimeList APIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("myanimelist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(endpoint, "status_"+strconv.Itoa(resp.StatusCode), start)
		c.logger.Warn("MyAnimeList APIがエラーステータスを返しました",
			slog.String("endpoint", endpoint),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.observe(endpoint, "error", start)
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to read myanimelist response: %w", err)
	}

	c.observe(endpoint, "ok", start)
	return body, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream("mal_"+endpoint, outcome, time.Since(start))
	}
}
