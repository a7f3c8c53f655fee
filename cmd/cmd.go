// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/urfave/cli/v3"
)

// globalFlags are accepted before any subcommand.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file with DHUNJAM_* overrides",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

// setupCommand writes a starter config and prepares the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// loginCommand signs a venue admin in and stores the session.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in as a venue admin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Admin username",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Admin password (prefer --password-stdin)",
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "Read the password from the first line of stdin",
			},
		},
		Action: r.Login,
	}
}

// logoutCommand removes the stored session.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and forget the stored session",
		Action: r.Logout,
	}
}

// whoamiCommand reports the stored session.
func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in admin and when the session expires",
		Action: r.WhoAmI,
	}
}

// settingsCommand handles reading and updating song request prices.
func settingsCommand(r *Runner) *cli.Command {
	amountFlags := []cli.Flag{}
	for _, spec := range models.Categories() {
		amountFlags = append(amountFlags, &cli.IntFlag{
			Name:  spec.Key,
			Usage: "Minimum price for " + spec.Label + " (" + spec.WireKey + ")",
		})
	}

	return &cli.Command{
		Name:    "settings",
		Aliases: []string{"prices"},
		Usage:   "View and update song request prices",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the venue settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, csv or markdown",
						Value:   "text",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Update one or more category prices; others keep their current value",
				Flags: append(amountFlags,
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Validate and print the request body without sending it",
					},
				),
				Action: r.SettingsSet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive console.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui", "console"},
		Usage:   "Launch the interactive admin console",
		Action:  r.TUI,
	}
}
