package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/feinime/feinime/internal/config"
	"github.com/feinime/feinime/internal/database"
	"github.com/feinime/feinime/internal/favorite"
	"github.com/feinime/feinime/internal/handler"
	"github.com/feinime/feinime/internal/logger"
	"github.com/feinime/feinime/internal/mal"
	"github.com/feinime/feinime/internal/metrics"
	"github.com/feinime/feinime/internal/middleware"
	"github.com/feinime/feinime/internal/repository"
	"github.com/feinime/feinime/internal/security"
	"github.com/feinime/feinime/internal/user"
)

// defaultPort はSERVER_PORT未設定時のポート。
const defaultPort = "5000"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルを反映する
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultPort
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg, ParseMigrateAction(args))
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. ルーターの構築
	reg := prometheus.NewRegistry()
	router, stop := buildRouter(cfg, db, reg)
	defer stop()

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter は設定とDB接続から全依存関係をワイヤリングし、ルーターを返す。
// 戻り値の関数はバックグラウンド処理を停止する。
func buildRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, func()) {
	log := slog.Default()

	// 1. メトリクス
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 2. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	favoriteRepo := repository.NewPostgresFavoriteRepo(db)

	// 3. セキュリティ
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. 上流プロバイダー
	malClient := mal.NewClient(upstreamClient(ssrfGuard, cfg), log, cfg.MALClientID, cfg.MALBaseURL).
		WithObserver(collector)

	// 5. ドメインサービス
	userService := user.NewService(userRepo, sanitizer, collector)
	favoriteService := favorite.NewService(favoriteRepo, sanitizer, collector)

	// 6. レート制限
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitWrite))

	deps := &handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustedProxies:    cfg.TrustedProxies,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		HealthChecker:     db,

		AnimeService:    malClient,
		UserService:     handler.NewUserServiceAdapter(userService),
		FavoriteService: handler.NewFavoriteServiceAdapter(favoriteService),
	}

	if cfg.StaticDir != "" {
		deps.Static = handler.NewSPAHandlerFromDir(cfg.StaticDir)
		slog.Info("serving static frontend", slog.String("dir", cfg.StaticDir))
	}

	return handler.NewRouter(deps), rateLimiter.Stop
}

// upstreamClient はMAL呼び出し用のHTTPクライアントを返す。
// 通常はSSRF防止クライアントを使い、MAL_BASE_URLがプライベートアドレスを指す場合
// （ローカルのモックサーバー等）は警告を出して通常のクライアントを使う。
func upstreamClient(guard security.SSRFGuardService, cfg *config.Config) *http.Client {
	if err := guard.ValidateURL(cfg.MALBaseURL); err != nil {
		slog.Warn("MAL_BASE_URL is not a public address; using an unguarded client",
			slog.String("base_url", cfg.MALBaseURL),
			slog.String("reason", err.Error()),
		)
		return &http.Client{Timeout: cfg.UpstreamTimeout}
	}
	return guard.NewSafeClient(cfg.UpstreamTimeout)
}

// runMigrate はデータベースマイグレーションを実行する。
// upは未適用分をすべて適用し、downは直近の1つを戻し、versionは現在のバージョンを記録する。
func runMigrate(cfg *config.Config, action MigrateAction) error {
	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case MigrateVersion:
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	status, err := database.CurrentMigration(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	slog.Info("database migrations completed",
		slog.Uint64("version", uint64(status.Version)),
		slog.Bool("dirty", status.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
