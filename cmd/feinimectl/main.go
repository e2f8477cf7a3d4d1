// Command feinimectl はfeinimeゲートウェイのコマンドラインフロントエンド。
// アニメの閲覧、サインイン、お気に入りの切り替えを行う。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

var version = "dev"

func main() {
	logger := NewLogger(nil)

	path := DefaultConfigPath()
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			logger.Fatal("failed to load config", "path", path, "error", err)
		}
		config = loaded
	}
	if level, err := log.ParseLevel(config.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.App().Run(ctx, os.Args); err != nil {
		logger.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
