package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/feinime/feinime/internal/auth"
	"github.com/feinime/feinime/internal/gateway"
	"github.com/feinime/feinime/internal/jikan"
	"github.com/feinime/feinime/internal/security"
	"github.com/feinime/feinime/internal/session"
)

// Runner はCLIコマンドの依存関係を保持し、各コマンドのアクションを提供する。
type Runner struct {
	config     *Config
	configPath string
	gateway    *gateway.Client
	jikan      *jikan.Client
	session    *session.Session
	favorites  *session.Favorites
	idp        auth.IdentityProvider
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts はRunner生成時のオプション。nilの項目は既定値で埋める。
type RunnerOpts struct {
	Config     *Config
	ConfigPath string
	// HTTPClient はゲートウェイとIdPへの通信に使う。
	HTTPClient *http.Client
	// JikanHTTPClient は公開APIへの通信に使う。nilならSSRF対策済みクライアント。
	JikanHTTPClient  *http.Client
	Storage          session.Storage
	IdentityProvider auth.IdentityProvider
	Logger           *log.Logger
	Output           io.Writer
}

// NewLogger はタイムスタンプと呼び出し元付きのロガーを生成する。wがnilならstderr。
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true, ReportCaller: true})
}

// NewRunner は設定からクライアントとセッションを組み立ててRunnerを生成する。
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath()
	}
	if opts.Logger == nil {
		opts.Logger = NewLogger(nil)
		if level, err := log.ParseLevel(opts.Config.LogLevel); err == nil {
			opts.Logger.SetLevel(level)
		}
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Timeout.Duration}
	}
	if opts.JikanHTTPClient == nil {
		opts.JikanHTTPClient = security.NewSSRFGuard().NewSafeClient(opts.Config.Timeout.Duration)
	}
	if opts.Storage == nil {
		opts.Storage = session.NewFileStorage(opts.Config.sessionPath())
	}
	if opts.IdentityProvider == nil {
		opts.IdentityProvider = auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
			ClientID:     opts.Config.Google.ClientID,
			ClientSecret: opts.Config.Google.ClientSecret,
			RedirectURL:  opts.Config.Google.RedirectURL,
		}, opts.HTTPClient)
	}

	// ライブラリ側のslog出力もcharmbracelet/logに流す
	slogger := slog.New(opts.Logger)
	gw := gateway.NewClient(opts.HTTPClient, slogger, opts.Config.GatewayURL)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		gateway:    gw,
		jikan:      jikan.NewClient(opts.JikanHTTPClient, slogger, opts.Config.JikanURL),
		session:    session.New(opts.Storage, gw, slogger),
		favorites:  session.NewFavorites(gw, slogger),
		idp:        opts.IdentityProvider,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// App はルートコマンドを組み立てる。
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:     "feinimectl",
		Usage:    "Browse anime and manage favorites through the feinime gateway",
		Version:  version,
		Before:   r.restore,
		After:    r.wait,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initConfigCommand, loginCommand, logoutCommand, whoamiCommand,
		topCommand, animeCommand, searchCommand, recommendCommand, favCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// restore は保存済みのidentityを読み込む。壊れた保存データは警告して未サインインとして続行する。
func (r *Runner) restore(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.session.Restore(ctx); err != nil {
		r.logger.Warn("saved session is unreadable; continuing signed out", "error", err)
	}
	return ctx, nil
}

// wait はバックグラウンドのユーザー登録が終わるまで待つ。
func (r *Runner) wait(ctx context.Context, cmd *cli.Command) error {
	r.session.Wait()
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
