// Package auth はIDトークンのクレーム解析とGoogle OAuthの認可コードフローを提供する。
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/feinime/feinime/internal/model"
)

// ErrMissingSubject はIDトークンにsubクレームが無い場合のエラー。
var ErrMissingSubject = errors.New("id token has no subject")

// Claims はIDトークンから取り出したidentity情報。
// Subjectがそのままgoogle_idになる。
type Claims struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// User はClaimsをユーザーモデルに変換する。
func (c Claims) User() model.User {
	return model.User{
		GoogleID: c.Subject,
		Name:     c.Name,
		Email:    c.Email,
		Picture:  c.Picture,
	}
}

// idTokenClaims はjwtパーサーに渡すクレーム構造。
type idTokenClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// DecodeIDToken はIDトークンのペイロードを署名検証せずに解析する。
// トークンはIdPから直接受け取ったものとして信頼し、サーバーへの送信前に中身を取り出すだけに使う。
func DecodeIDToken(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, errors.New("id token is empty")
	}

	var parsed idTokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &parsed); err != nil {
		return Claims{}, fmt.Errorf("failed to decode id token: %w", err)
	}

	if parsed.Subject == "" {
		return Claims{}, ErrMissingSubject
	}

	return Claims{
		Subject: parsed.Subject,
		Name:    parsed.Name,
		Email:   parsed.Email,
		Picture: parsed.Picture,
	}, nil
}
