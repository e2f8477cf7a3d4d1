package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/feinime/feinime/internal/auth"
	"github.com/feinime/feinime/internal/model"
)

// errNotSignedIn はサインインが必要なコマンドを未サインインで実行したことを表す。
var errNotSignedIn = errors.New("not signed in; run `feinimectl login` first")

// userView はidentityの表示用JSON。
type userView struct {
	GoogleID string `json:"google_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

func newUserView(u model.User) userView {
	return userView{GoogleID: u.GoogleID, Name: u.Name, Email: u.Email, Picture: u.Picture}
}

// InitConfig は設定例を書き出す。
func (r *Runner) InitConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("Wrote %s\n", path)
}

// Login はIDトークンのクレームでセッションを開始する。
// ゲートウェイへのユーザー登録はバックグラウンドで行われ、失敗してもサインインは取り消さない。
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	claims, err := r.claims(ctx, cmd)
	if err != nil {
		return err
	}

	if err := r.session.SignIn(ctx, claims); err != nil {
		r.logger.Warn("signed in for this run only; saving the session failed", "error", err)
	}

	u, _ := r.session.Current()
	if cmd.Bool("json") {
		return r.writeJSON(newUserView(u), cmd.Bool("pretty"))
	}
	return r.writePlain("Signed in as %s <%s>\n", u.Name, u.Email)
}

// claims は--id-tokenまたはブラウザでの認可コードフローからクレームを得る。
func (r *Runner) claims(ctx context.Context, cmd *cli.Command) (auth.Claims, error) {
	if token := cmd.String("id-token"); token != "" {
		return auth.DecodeIDToken(token)
	}

	if r.config.Google.ClientID == "" {
		return auth.Claims{}, errors.New("google.client_id is not configured; edit the config file or pass --id-token")
	}

	state, err := auth.GenerateState()
	if err != nil {
		return auth.Claims{}, err
	}
	if err := r.writePlain("Open this URL in your browser to sign in:\n\n  %s\n\n", r.idp.GetLoginURL(state)); err != nil {
		return auth.Claims{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	code, err := auth.ReceiveCode(ctx, r.config.Google.RedirectURL, state)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("sign-in was not completed: %w", err)
	}
	claims, err := r.idp.ExchangeCode(ctx, code)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return claims, nil
}

// Logout はセッションを破棄する。ゲートウェイへの通知は失敗しても無視される。
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	googleID := r.session.Identity()
	if googleID == "" {
		return r.writePlain("Not signed in\n")
	}

	if err := r.session.SignOut(ctx); err != nil {
		return err
	}
	r.favorites.Forget(googleID)
	return r.writePlain("Signed out\n")
}

// Whoami はサインイン中のidentityを表示する。
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	u, ok := r.session.Current()
	if cmd.Bool("json") {
		if !ok {
			return r.writeJSON(nil, false)
		}
		return r.writeJSON(newUserView(u), cmd.Bool("pretty"))
	}
	if !ok {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("%s <%s>\n%s\n", u.Name, u.Email, u.GoogleID)
}
