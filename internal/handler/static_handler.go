package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/model"
)

// NewSPAHandler は静的フロントエンドを配信するハンドラーを返す。
// 存在しないパスにはindex.htmlを返し、クライアント側ルーティングに任せる。
// /api配下は対象外で、未定義のAPIは404のJSONになる。
func NewSPAHandler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
				Code:     "NOT_FOUND",
				Message:  "APIエンドポイントが見つかりません。",
				Category: model.CategoryValidation,
				Action:   "URLを確認してください。",
			})
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "."
		}

		if _, err := fs.Stat(root, name); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				middleware.WriteInternalServerError(w)
				return
			}
			serveIndex(w, r, root)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}

// NewSPAHandlerFromDir はディレクトリを配信するSPAハンドラーを返す。
func NewSPAHandlerFromDir(dir string) http.Handler {
	return NewSPAHandler(os.DirFS(dir))
}

func serveIndex(w http.ResponseWriter, r *http.Request, root fs.FS) {
	data, err := fs.ReadFile(root, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
