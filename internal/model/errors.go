// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, upstream, persistence, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation  = "validation"
	CategoryUpstream    = "upstream"
	CategoryPersistence = "persistence"
	CategorySystem      = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeIdentityRequired = "IDENTITY_REQUIRED"
	ErrCodeInvalidAnimeID   = "INVALID_ANIME_ID"
	ErrCodeInvalidURL       = "INVALID_URL"
	ErrCodeInvalidQuery     = "INVALID_QUERY"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
	ErrCodeUpstreamStatus   = "UPSTREAM_STATUS"
	ErrCodePersistence      = "PERSISTENCE_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
)

// ErrPersistence はストア層の失敗を表す番兵エラー。
// サービス層はリポジトリのエラーをこれでラップして返す。
var ErrPersistence = errors.New("persistence failure")

// PersistenceError はストア層の失敗をErrPersistenceでラップする。
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: CategoryValidation,
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewIdentityRequiredError はidentity未指定エラーを生成する。
func NewIdentityRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityRequired,
		Message:  "ログインが必要です。google_idを指定してください。",
		Category: CategoryValidation,
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewInvalidAnimeIDError は不正なアニメIDエラーを生成する。
func NewInvalidAnimeIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAnimeID,
		Message:  fmt.Sprintf("無効なアニメIDです: %s", raw),
		Category: CategoryValidation,
		Action:   "正の整数のアニメIDを指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("%sが無効なURLです: %s", field, reason),
		Category: CategoryValidation,
		Action:   "http:// または https:// で始まるURLを指定してください。",
	}
}

// NewInvalidQueryError は不正なクエリパラメータエラーを生成する。
func NewInvalidQueryError(param, raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuery,
		Message:  fmt.Sprintf("クエリパラメータ %s が無効です: %s", param, raw),
		Category: CategoryValidation,
		Action:   "パラメータの値を確認してください。",
	}
}

// NewUpstreamStatusError は上流APIが非2xxを返した場合のエラーを生成する。
// 上流の詳細はユーザーに返さない。
func NewUpstreamStatusError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamStatus,
		Message:  "アニメ情報の取得に失敗しました。",
		Category: CategoryUpstream,
		Action:   "IDを確認するか、しばらく待ってから再度お試しください。",
	}
}

// NewUpstreamFailedError は上流APIへの通信失敗エラーを生成する。
func NewUpstreamFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  "サーバーエラーが発生しました。",
		Category: CategoryUpstream,
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPersistenceError はデータベースエラーを生成する。
func NewPersistenceError(message string) *APIError {
	return &APIError{
		Code:     ErrCodePersistence,
		Message:  message,
		Category: CategoryPersistence,
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: CategorySystem,
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}
