// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/feinime/feinime/internal/mal"
	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限（64KB）。
const maxRequestBodySize = 64 << 10

// messageResponse は更新系APIの成功レスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// validate はリクエストボディの構造検証に使う共有バリデータ。
// エラーのフィールド名にはjsonタグ名を使う。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON はリクエストボディをdstにデコードし、validateタグで検証する。
// 失敗した場合はレスポンスに書き込むべきAPIErrorを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewInvalidRequestError("リクエストボディが空です")
		}
		return model.NewInvalidRequestError("JSONの解析に失敗しました")
	}

	if err := validate.Struct(dst); err != nil {
		return validationToAPIError(err)
	}
	return nil
}

// validationToAPIError は最初の検証エラーをAPIErrorに変換する。
// identityの欠落は他の検証より優先して IDENTITY_REQUIRED とする。
func validationToAPIError(err error) *model.APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.NewInvalidRequestError(err.Error())
	}

	for _, fe := range verrs {
		if fe.Field() == "google_id" {
			return model.NewIdentityRequiredError()
		}
	}

	fe := verrs[0]
	switch fe.Field() {
	case "anime_id":
		return model.NewInvalidAnimeIDError(fmt.Sprint(fe.Value()))
	default:
		return model.NewInvalidRequestError(fmt.Sprintf("%s が %s の条件を満たしていません", fe.Field(), fe.Tag()))
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeRawJSON は上流から受け取ったJSONをそのまま書き込む。
func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if errors.Is(err, model.ErrPersistence) {
		slog.Error("persistence failure",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
		middleware.WriteErrorResponse(w, http.StatusInternalServerError,
			model.NewPersistenceError("データベースの処理に失敗しました。"))
		return
	}

	if se, ok := mal.IsStatusError(err); ok {
		middleware.WriteErrorResponse(w, passthroughStatus(se.StatusCode), model.NewUpstreamStatusError())
		return
	}

	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteInternalServerError(w)
}

// handleUpstreamError は上流プロバイダー呼び出しのエラーを変換する。
// 非2xxは同じステータスで返し、通信失敗は500とする。
func handleUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if se, ok := mal.IsStatusError(err); ok {
		middleware.WriteErrorResponse(w, passthroughStatus(se.StatusCode), model.NewUpstreamStatusError())
		return
	}

	slog.Error("upstream request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewUpstreamFailedError())
}

// passthroughStatus は上流のステータスコードをそのまま返す。
// エラーボディを付けられない1xx/3xxは502に置き換える。
func passthroughStatus(code int) int {
	if code < 400 || code > 599 {
		return http.StatusBadGateway
	}
	return code
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest,
		model.ErrCodeIdentityRequired,
		model.ErrCodeInvalidAnimeID,
		model.ErrCodeInvalidURL,
		model.ErrCodeInvalidQuery:
		return http.StatusBadRequest
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeUpstreamStatus:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
