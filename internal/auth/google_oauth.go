package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGoogleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL = "https://oauth2.googleapis.com/token"
)

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string
}

// IdentityProvider はサインインに使うIdPのインターフェース。
type IdentityProvider interface {
	// GetLoginURL は認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをIDトークンに交換し、クレームを返す。
	ExchangeCode(ctx context.Context, code string) (Claims, error)
}

// GoogleOAuthProvider はGoogle OAuth 2.0の認可コードフローを提供する。
type GoogleOAuthProvider struct {
	config     GoogleOAuthConfig
	httpClient *http.Client
}

// NewGoogleOAuthProvider はGoogleOAuthProviderを生成する。
// httpClientがnilの場合はhttp.DefaultClientを使う。
func NewGoogleOAuthProvider(config GoogleOAuthConfig, httpClient *http.Client) *GoogleOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleOAuthProvider{config: config, httpClient: httpClient}
}

// GetLoginURL はGoogle OAuthの認証URLを生成する。
// スコープにはopenid, email, profileを含む。
func (p *GoogleOAuthProvider) GetLoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
		"prompt":        {"select_account"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// googleTokenResponse はGoogleのトークンエンドポイントのレスポンス。
type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ExchangeCode は認可コードをトークンに交換し、IDトークンのクレームを返す。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code string) (Claims, error) {
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to exchange token: %w", err)
	}

	claims, err := DecodeIDToken(tokenResp.IDToken)
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// exchangeToken は認可コードをトークンに交換する。
func (p *GoogleOAuthProvider) exchangeToken(ctx context.Context, code string) (*googleTokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.IDToken == "" {
		return nil, errors.New("empty id token in response")
	}

	return &tokenResp, nil
}

// GenerateState はCSRF対策用のランダムなstate値を生成する。
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// callbackResult はコールバックで受け取った結果。
type callbackResult struct {
	code string
	err  error
}

// ReceiveCode はredirectURLのホストでコールバックを1回だけ待ち受け、認可コードを返す。
// stateが一致しない場合やIdPがエラーを返した場合はエラーになる。
// ctxがキャンセルされると待ち受けを中止する。
func ReceiveCode(ctx context.Context, redirectURL, state string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid redirect url %q", redirectURL)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	callbackPath := u.Path
	if callbackPath == "" {
		callbackPath = "/"
	}
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// faviconなどブラウザが付随して送るリクエストは結果として扱わない
		if q.Get("state") == "" && q.Get("error") == "" {
			http.NotFound(w, r)
			return
		}
		res := parseCallback(q, state)
		if res.err != nil {
			http.Error(w, "サインインに失敗しました。ターミナルを確認してください。", http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "サインインしました。このウィンドウは閉じて構いません。")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Debug("callback server stopped", slog.String("error", err.Error()))
		}
	}()
	defer srv.Close()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// parseCallback はコールバックのクエリを検証して認可コードを取り出す。
func parseCallback(q url.Values, state string) callbackResult {
	if e := q.Get("error"); e != "" {
		return callbackResult{err: fmt.Errorf("authorization failed: %s", e)}
	}
	if q.Get("state") != state {
		return callbackResult{err: errors.New("state mismatch")}
	}
	code := q.Get("code")
	if code == "" {
		return callbackResult{err: errors.New("authorization code is missing")}
	}
	return callbackResult{code: code}
}

// compile-time interface check
var _ IdentityProvider = (*GoogleOAuthProvider)(nil)
