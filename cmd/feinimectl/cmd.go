package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/feinime/feinime/internal/jikan"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func initConfigCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init-config",
		Usage: "Write an example configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   r.configPath,
			},
		},
		Action: r.InitConfig,
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with Google",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "id-token",
				Usage: "Sign in with an existing Google ID token instead of the browser flow",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 5 * time.Minute,
			},
		}, jsonFlags()...),
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and forget the saved identity",
		Action: r.Logout,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in identity",
		Flags:  jsonFlags(),
		Action: r.Whoami,
	}
}

func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "List top-ranked anime",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of anime to return (gateway default when 0)",
			},
			&cli.StringFlag{
				Name:  "ranking-type",
				Usage: "Ranking type such as all, airing, upcoming, tv, movie",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page of the fetched list to show, starting at 1",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Number of anime per page",
				Value: defaultPerPage,
			},
		}, jsonFlags()...),
		Action: r.Top,
	}
}

func animeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "anime",
		Usage: "Show details for one anime",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  jsonFlags(),
		Action: r.Anime,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search anime by title",
		ArgsUsage: "<query>",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: jikan.DefaultSearchLimit,
			},
		}, jsonFlags()...),
		Action: r.Search,
	}
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Show recent community recommendations",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of recommendations",
				Value: 10,
			},
		}, jsonFlags()...),
		Action: r.Recommend,
	}
}

func favCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "fav",
		Aliases: []string{"favorites"},
		Usage:   "Manage favorites of the signed-in identity",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List favorites",
				Flags:  jsonFlags(),
				Action: r.FavList,
			},
			{
				Name:  "toggle",
				Usage: "Add or remove one anime from favorites",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.FavToggle,
			},
		},
	}
}
