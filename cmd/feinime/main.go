// Command feinime はアニメカタログのバックエンドゲートウェイを起動する。
//
// サブコマンド:
//
//	serve        APIサーバーを起動する（既定）
//	migrate      DBマイグレーションを適用する
//	healthcheck  起動中のサーバーの/healthを確認する
package main

import (
	"log/slog"
	"os"

	"github.com/feinime/feinime/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
