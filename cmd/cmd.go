// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spautofy/internal/shared"
	"github.com/urfave/cli/v3"
)

// newApp builds the root command. Running it without a subcommand authorizes.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spautofy",
		Usage:   "Authorize against the Spotify Web API from the command line",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-path",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (JSON, or TOML with a .toml extension)",
				Value:   shared.DefaultConfigPath,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the authorized session as JSON",
			},
		},
		Before:   r.before,
		Action:   r.Authorize,
		Commands: r.register(),
	}
}

// before applies --debug ahead of any command action.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		r.logger.SetLevel(log.DebugLevel)
		r.debug = true
	}
	return ctx, nil
}

// authorizeCommand runs the authorization flow explicitly.
func authorizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "authorize",
		Aliases: []string{"auth"},
		Usage:   "Authorize with Spotify, reusing stored refresh material when available",
		Action:  r.Authorize,
	}
}

// initCommand writes the example configuration.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Create a configuration file from the built-in template",
		Action: r.Init,
	}
}

// forgetCommand deletes stored refresh material.
func forgetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "forget",
		Usage:  "Delete the refresh token stored for the configured client",
		Action: r.Forget,
	}
}
